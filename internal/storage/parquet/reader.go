package parquet

import (
	"context"
	"fmt"
	"os"

	"github.com/apache/arrow/go/v10/arrow/array"
	"github.com/apache/arrow/go/v10/arrow/memory"
	"github.com/apache/arrow/go/v10/parquet/file"
	"github.com/apache/arrow/go/v10/parquet/pqarrow"

	"cnpjetl/internal/schema"
	"cnpjetl/pkg/records"
)

// ReadAll loads an entire Parquet file back into records, in row order.
// Column names come from the file's own schema, so a file written for any
// table can be read without knowing its type. Null cells become nil values.
//
// The whole dataset is materialized; this is meant for the rewrite pass and
// for tests, not for streaming consumption.
func ReadAll(ctx context.Context, path string) ([]records.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pf, err := file.NewParquetReader(f)
	if err != nil {
		return nil, fmt.Errorf("open parquet %s: %w", path, err)
	}
	defer pf.Close()

	mem := memory.NewGoAllocator()
	reader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, fmt.Errorf("arrow reader for %s: %w", path, err)
	}
	table, err := reader.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", path, err)
	}
	defer table.Release()

	out := make([]records.Record, table.NumRows())
	for i := range out {
		out[i] = make(records.Record, table.NumCols())
	}

	for ci := 0; ci < int(table.NumCols()); ci++ {
		name := table.Schema().Field(ci).Name
		row := 0
		for _, chunk := range table.Column(ci).Data().Chunks() {
			col, ok := chunk.(*array.String)
			if !ok {
				return nil, fmt.Errorf("%s: column %q is %s, want string", path, name, chunk.DataType())
			}
			for j := 0; j < col.Len(); j++ {
				if col.IsNull(j) {
					out[row][name] = nil
				} else {
					out[row][name] = col.Value(j)
				}
				row++
			}
		}
	}
	return out, nil
}

// Rewrite atomically replaces the file at path with recs laid out per table's
// schema. The new content is written to a sibling temp file first and moved
// into place with a rename, so readers never observe a half-written file.
func Rewrite(path string, table schema.Table, recs []records.Record, chunkRows int) error {
	if chunkRows <= 0 {
		chunkRows = len(recs)
	}
	tmp := path + ".tmp"
	w, err := NewWriter(tmp, table)
	if err != nil {
		return err
	}
	for start := 0; start < len(recs); start += chunkRows {
		end := start + chunkRows
		if end > len(recs) {
			end = len(recs)
		}
		if err := w.WriteChunk(recs[start:end]); err != nil {
			w.Close()
			os.Remove(tmp)
			return err
		}
	}
	if err := w.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
