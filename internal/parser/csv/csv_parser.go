// Package csv implements streaming, chunked parsing of the publisher's
// delimiter-separated shard files.
//
// Source files are semicolon-delimited, Latin-1 encoded, and have no header
// row; column identity comes solely from position against the entity type's
// schema. Files can run to tens of millions of rows, so the parser never
// materializes more than one chunk of rows at a time. Malformed rows are
// skipped individually (soft-fail) and counted; a bad row never aborts a
// chunk or a file.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"cnpjetl/pkg/records"
)

// skipLogLimit caps per-row skip logging so a pathological file cannot flood
// the log.
const skipLogLimit = 400

// Options configures the parser. Columns is required; zero values elsewhere
// get sensible defaults.
type Options struct {
	// Comma is the field delimiter. When zero, ';' is used.
	Comma rune

	// Columns is the ordered column list rows are positionally mapped to.
	// Rows whose field count differs from len(Columns) are skipped.
	Columns []string

	// ChunkRows bounds the number of rows per emitted chunk. When zero,
	// 100000 is used.
	ChunkRows int
}

// Parser parses shard files according to Options. A Parser may be reused
// across inputs but is not concurrency-safe.
type Parser struct {
	opt Options
	log *zap.Logger
}

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options, log *zap.Logger) *Parser {
	if opt.Comma == 0 {
		opt.Comma = ';'
	}
	if opt.ChunkRows <= 0 {
		opt.ChunkRows = 100_000
	}
	return &Parser{opt: opt, log: log}
}

// Stats summarizes one parsed input.
type Stats struct {
	Rows    int // rows successfully parsed and emitted
	Skipped int // malformed rows dropped
}

// ReadError wraps a mid-file input failure. Unlike a malformed row, a failing
// reader returns the same error on every call, so it cannot be skipped
// row-by-row; callers are expected to give up on the file and move on.
type ReadError struct{ Err error }

func (e *ReadError) Error() string { return "read input: " + e.Err.Error() }
func (e *ReadError) Unwrap() error { return e.Err }

// ParseChunks consumes delimiter-separated text from r, decoding Latin-1 to
// UTF-8 on the fly, and invokes fn once per chunk of at most ChunkRows
// records. Fields are mapped to Options.Columns by position; empty strings
// and the literal NULL tokens normalize to nil.
//
// fn owns the chunk slice; ParseChunks never reuses it. An error from fn is
// fatal and propagates (it means the output writer failed, not the data).
// Per-row parse errors and field-count mismatches are soft: logged at debug
// level, counted in Stats.Skipped, and skipped. An error from the underlying
// reader is neither: rows parsed so far are flushed and a *ReadError is
// returned, since the reader would fail identically on every retry.
func (p *Parser) ParseChunks(ctx context.Context, r io.Reader, fn func([]records.Record) error) (Stats, error) {
	var stats Stats

	// The publisher documents Latin-1 (not the pipeline's UTF-8 default).
	decoded := transform.NewReader(r, charmap.ISO8859_1.NewDecoder())

	cr := csv.NewReader(decoded)
	cr.Comma = p.opt.Comma
	cr.LazyQuotes = true
	// Width is enforced after reading so a bad row is a skip, not an abort.
	cr.FieldsPerRecord = -1

	chunk := make([]records.Record, 0, p.opt.ChunkRows)
	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		if err := fn(chunk); err != nil {
			return err
		}
		chunk = make([]records.Record, 0, p.opt.ChunkRows)
		return nil
	}

	for line := 1; ; line++ {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				// The reader itself failed; retrying the next row would hit
				// the same error forever.
				if ferr := flush(); ferr != nil {
					return stats, fmt.Errorf("flush chunk: %w", ferr)
				}
				return stats, &ReadError{Err: err}
			}
			if stats.Skipped < skipLogLimit {
				p.log.Debug("skip malformed row", zap.Int("line", line), zap.Error(err))
			}
			stats.Skipped++
			continue
		}
		if len(row) != len(p.opt.Columns) {
			if stats.Skipped < skipLogLimit {
				p.log.Debug("skip row with wrong field count",
					zap.Int("line", line),
					zap.Int("expected", len(p.opt.Columns)),
					zap.Int("got", len(row)))
			}
			stats.Skipped++
			continue
		}

		rec := make(records.Record, len(row))
		for i, val := range row {
			rec[p.opt.Columns[i]] = nullToNil(val)
		}
		chunk = append(chunk, rec)
		stats.Rows++

		if len(chunk) >= p.opt.ChunkRows {
			if err := flush(); err != nil {
				return stats, fmt.Errorf("flush chunk: %w", err)
			}
		}
	}

	if err := flush(); err != nil {
		return stats, fmt.Errorf("flush final chunk: %w", err)
	}
	return stats, nil
}

// nullToNil maps the source's absent-value tokens to nil. The empty string
// and the literal NULL spellings all mean "no value" in the dumps; no column
// in the schema legitimately contains those as data.
func nullToNil(s string) any {
	switch s {
	case "", "NULL", "null":
		return nil
	}
	return s
}
