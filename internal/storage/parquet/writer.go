// Package parquet persists normalized record chunks as Snappy-compressed
// Parquet files, one file per entity type and run.
//
// Every column is written as a nullable UTF-8 string. The source dumps carry
// no reliable type information (leading zeros in codes, locale-formatted
// numbers), so typing is deferred to downstream consumers.
package parquet

import (
	"fmt"
	"os"

	"github.com/apache/arrow/go/v10/arrow"
	"github.com/apache/arrow/go/v10/arrow/array"
	"github.com/apache/arrow/go/v10/arrow/memory"
	"github.com/apache/arrow/go/v10/parquet"
	"github.com/apache/arrow/go/v10/parquet/compress"
	"github.com/apache/arrow/go/v10/parquet/pqarrow"

	"cnpjetl/internal/schema"
	"cnpjetl/pkg/records"
)

// arrowSchema maps a table's column list to an all-nullable-string arrow
// schema, preserving column order.
func arrowSchema(table schema.Table) *arrow.Schema {
	fields := make([]arrow.Field, len(table.Columns))
	for i, col := range table.Columns {
		fields[i] = arrow.Field{Name: col, Type: arrow.BinaryTypes.String, Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

// Writer streams record chunks into a single Parquet file. Each WriteChunk
// call becomes one row group, so memory stays bounded by chunk size no matter
// how large the dataset grows.
type Writer struct {
	f     *os.File
	fw    *pqarrow.FileWriter
	sc    *arrow.Schema
	table schema.Table
	mem   memory.Allocator
	rows  int64
}

// NewWriter creates path (truncating any existing file) and returns a Writer
// for the given table's schema.
func NewWriter(path string, table schema.Table) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}

	sc := arrowSchema(table)
	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	fw, err := pqarrow.NewFileWriter(sc, f, props, pqarrow.DefaultWriterProps())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open parquet writer for %s: %w", path, err)
	}

	return &Writer{
		f:     f,
		fw:    fw,
		sc:    sc,
		table: table,
		mem:   memory.NewGoAllocator(),
	}, nil
}

// WriteChunk appends recs as one row group. Missing fields and nil values
// are written as Parquet nulls; any other value is stringified via the
// record accessor.
func (w *Writer) WriteChunk(recs []records.Record) error {
	if len(recs) == 0 {
		return nil
	}

	cols := make([]arrow.Array, len(w.table.Columns))
	for i, col := range w.table.Columns {
		b := array.NewStringBuilder(w.mem)
		for _, rec := range recs {
			v, ok := rec[col]
			if !ok || v == nil {
				b.AppendNull()
				continue
			}
			b.Append(rec.String(col))
		}
		cols[i] = b.NewArray()
		b.Release()
	}

	rec := array.NewRecord(w.sc, cols, int64(len(recs)))
	err := w.fw.Write(rec)
	rec.Release()
	for _, c := range cols {
		c.Release()
	}
	if err != nil {
		return fmt.Errorf("write row group: %w", err)
	}
	w.rows += int64(len(recs))
	return nil
}

// Rows reports how many rows have been written so far.
func (w *Writer) Rows() int64 { return w.rows }

// Close finalizes the Parquet footer and closes the underlying file. The
// file is not valid until Close returns nil.
func (w *Writer) Close() error {
	if err := w.fw.Close(); err != nil {
		w.f.Close()
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return w.f.Close()
}
