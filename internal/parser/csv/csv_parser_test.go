package csv

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"cnpjetl/pkg/records"
)

func collect(t *testing.T, p *Parser, input string) ([][]records.Record, Stats) {
	t.Helper()
	var chunks [][]records.Record
	stats, err := p.ParseChunks(context.Background(), strings.NewReader(input), func(c []records.Record) error {
		chunks = append(chunks, c)
		return nil
	})
	if err != nil {
		t.Fatalf("ParseChunks: %v", err)
	}
	return chunks, stats
}

func TestParseChunksPositionalMapping(t *testing.T) {
	p := NewParser(Options{Columns: []string{"codigo", "descricao"}}, zap.NewNop())
	chunks, stats := collect(t, p, "105;\"BRASIL\"\n106;\"ARGENTINA\"\n")

	if stats.Rows != 2 || stats.Skipped != 0 {
		t.Fatalf("stats = %+v", stats)
	}
	if len(chunks) != 1 || len(chunks[0]) != 2 {
		t.Fatalf("chunks = %v", chunks)
	}
	if got := chunks[0][0].String("codigo"); got != "105" {
		t.Errorf("codigo = %q", got)
	}
	if got := chunks[0][1].String("descricao"); got != "ARGENTINA" {
		t.Errorf("descricao = %q", got)
	}
}

func TestParseChunksLatin1(t *testing.T) {
	// "SÃO PAULO" encoded as Latin-1 bytes.
	enc, err := charmap.ISO8859_1.NewEncoder().String("7107;\"SÃO PAULO\"\n")
	if err != nil {
		t.Fatal(err)
	}

	p := NewParser(Options{Columns: []string{"codigo", "descricao"}}, zap.NewNop())
	chunks, _ := collect(t, p, enc)
	if got := chunks[0][0].String("descricao"); got != "SÃO PAULO" {
		t.Errorf("latin-1 decode failed: %q", got)
	}
}

func TestParseChunksSkipsMalformedRows(t *testing.T) {
	input := "1;\"ok\"\n2;\"too\";\"wide\"\n3;\"also ok\"\n"
	p := NewParser(Options{Columns: []string{"codigo", "descricao"}}, zap.NewNop())
	chunks, stats := collect(t, p, input)

	if stats.Rows != 2 {
		t.Errorf("rows = %d, want 2", stats.Rows)
	}
	if stats.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", stats.Skipped)
	}
	if len(chunks[0]) != 2 {
		t.Errorf("chunk size = %d, want 2", len(chunks[0]))
	}
}

func TestParseChunksNullNormalization(t *testing.T) {
	input := "1;\n2;NULL\n3;null\n4;\"x\"\n"
	p := NewParser(Options{Columns: []string{"codigo", "descricao"}}, zap.NewNop())
	chunks, _ := collect(t, p, input)

	rows := chunks[0]
	for i := 0; i < 3; i++ {
		if rows[i]["descricao"] != nil {
			t.Errorf("row %d: descricao = %#v, want nil", i, rows[i]["descricao"])
		}
	}
	if rows[3]["descricao"] != "x" {
		t.Errorf("row 3: descricao = %#v, want \"x\"", rows[3]["descricao"])
	}
}

func TestParseChunksChunkBoundary(t *testing.T) {
	input := "1;a\n2;b\n3;c\n4;d\n5;e\n"
	p := NewParser(Options{Columns: []string{"codigo", "descricao"}, ChunkRows: 2}, zap.NewNop())
	chunks, stats := collect(t, p, input)

	if stats.Rows != 5 {
		t.Fatalf("rows = %d, want 5", stats.Rows)
	}
	sizes := make([]int, len(chunks))
	for i, c := range chunks {
		sizes[i] = len(c)
	}
	want := []int{2, 2, 1}
	if len(sizes) != 3 || sizes[0] != want[0] || sizes[1] != want[1] || sizes[2] != want[2] {
		t.Fatalf("chunk sizes = %v, want %v", sizes, want)
	}
}

// brokenReader serves its buffered data and then fails with the same error
// on every subsequent call, like a file on a dying disk.
type brokenReader struct {
	data []byte
	err  error
}

func (r *brokenReader) Read(p []byte) (int, error) {
	if len(r.data) > 0 {
		n := copy(p, r.data)
		r.data = r.data[n:]
		return n, nil
	}
	return 0, r.err
}

func TestParseChunksPersistentReadError(t *testing.T) {
	underlying := errors.New("disk read error")
	r := &brokenReader{data: []byte("105;\"BRASIL\"\n"), err: underlying}
	p := NewParser(Options{Columns: []string{"codigo", "descricao"}}, zap.NewNop())

	type result struct {
		chunks [][]records.Record
		stats  Stats
		err    error
	}
	done := make(chan result, 1)
	go func() {
		var res result
		res.stats, res.err = p.ParseChunks(context.Background(), r, func(c []records.Record) error {
			res.chunks = append(res.chunks, c)
			return nil
		})
		done <- res
	}()

	var res result
	select {
	case res = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ParseChunks did not return on a persistent reader error")
	}

	var rerr *ReadError
	if !errors.As(res.err, &rerr) {
		t.Fatalf("err = %v, want *ReadError", res.err)
	}
	if !errors.Is(res.err, underlying) {
		t.Errorf("underlying error not preserved: %v", res.err)
	}
	if res.stats.Rows != 1 {
		t.Errorf("rows = %d, want 1 (row before the failure)", res.stats.Rows)
	}
	if len(res.chunks) != 1 || len(res.chunks[0]) != 1 {
		t.Errorf("rows parsed before the failure must be flushed, got %v", res.chunks)
	}
	if res.chunks != nil && res.chunks[0][0].String("codigo") != "105" {
		t.Errorf("flushed row = %#v", res.chunks[0][0])
	}
}

func TestParseChunksEmptyInput(t *testing.T) {
	p := NewParser(Options{Columns: []string{"codigo", "descricao"}}, zap.NewNop())
	chunks, stats := collect(t, p, "")
	if len(chunks) != 0 || stats.Rows != 0 {
		t.Fatalf("empty input produced chunks=%v stats=%+v", chunks, stats)
	}
}
