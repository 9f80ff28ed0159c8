// Package pipeline wires the ingestion stages together: archive extraction,
// per-type parsing into Parquet, the final cross-shard deduplication pass,
// the optional Postgres lookup mirror, and the run report.
//
// Failure policy: a run aborts only when the input directory yields no
// archives or when writing output fails. Everything upstream of the writer
// (a corrupt archive, an unreadable shard, a malformed row) is logged,
// counted, and skipped.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cnpjetl/internal/archive"
	"cnpjetl/internal/config"
	"cnpjetl/internal/datasource/file"
	"cnpjetl/internal/metrics"
	csvparser "cnpjetl/internal/parser/csv"
	"cnpjetl/internal/report"
	"cnpjetl/internal/schema"
	parquetstore "cnpjetl/internal/storage/parquet"
	"cnpjetl/internal/storage/postgres"
	"cnpjetl/internal/transformer/builtin"
	"cnpjetl/pkg/records"
)

// TypeStats accumulates per-entity-type counters for the run summary.
type TypeStats struct {
	Files      int // shard files ingested
	FileErrors int // shard files skipped due to read errors
	Rows       int // rows written before the final dedup pass
	Skipped    int // malformed rows dropped by the parser
	DupsChunk  int // duplicates dropped within chunks
	DupsFinal  int // duplicates dropped by the cross-shard pass
}

// Result summarizes a completed run.
type Result struct {
	Archives int
	Types    map[schema.Type]TypeStats
	Report   report.Summary
}

// Run executes one full ingestion run. The scratch directory is recreated
// empty at the start and removed before returning, so reruns never see stale
// shards from a previous run.
func Run(ctx context.Context, cfg config.Pipeline, log *zap.Logger) (Result, error) {
	res := Result{Types: make(map[schema.Type]TypeStats)}

	scratch := cfg.ScratchDir
	if scratch == "" {
		scratch = filepath.Join(cfg.OutputDir, ".scratch")
	}
	if err := os.RemoveAll(scratch); err != nil {
		return res, fmt.Errorf("reset scratch dir: %w", err)
	}
	if err := os.MkdirAll(scratch, 0755); err != nil {
		return res, fmt.Errorf("create scratch dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			log.Warn("scratch cleanup failed", zap.String("dir", scratch), zap.Error(err))
		}
	}()
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return res, fmt.Errorf("create output dir: %w", err)
	}

	start := time.Now()
	n, err := archive.NewExtractor(log).ExtractAll(cfg.InputDir, scratch)
	metrics.RecordStage(cfg.Job, "extract", err, time.Since(start))
	if err != nil {
		return res, err
	}
	res.Archives = n
	metrics.RecordArchives("extracted", int64(n))

	groups, err := file.GroupByType(scratch, archive.TextSuffix, log)
	if err != nil {
		return res, err
	}

	start = time.Now()
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Runtime.Workers())
	for _, table := range schema.All() {
		files, ok := groups[table.Type]
		if !ok {
			continue
		}
		table := table
		g.Go(func() error {
			stats, err := ingestType(gctx, cfg, table, files, log)
			if err != nil {
				return fmt.Errorf("%s: %w", table.Type, err)
			}
			mu.Lock()
			res.Types[table.Type] = stats
			mu.Unlock()
			return nil
		})
	}
	err = g.Wait()
	metrics.RecordStage(cfg.Job, "ingest", err, time.Since(start))
	if err != nil {
		return res, err
	}

	for _, table := range schema.All() {
		s, ok := res.Types[table.Type]
		if !ok {
			continue
		}
		t := table.Type
		metrics.RecordRows(string(t), "parsed", int64(s.Rows+s.DupsChunk))
		metrics.RecordRows(string(t), "skipped", int64(s.Skipped))
		metrics.RecordRows(string(t), "deduped", int64(s.DupsChunk+s.DupsFinal))
		metrics.RecordRows(string(t), "written", int64(s.Rows-s.DupsFinal))
		log.Info("type complete",
			zap.String("type", string(t)),
			zap.Int("files", s.Files),
			zap.Int("file_errors", s.FileErrors),
			zap.Int("rows", s.Rows-s.DupsFinal),
			zap.Int("skipped", s.Skipped),
			zap.Int("duplicates_chunk", s.DupsChunk),
			zap.Int("duplicates_final", s.DupsFinal))
	}

	if cfg.Mirror.DSN != "" {
		start = time.Now()
		err := mirrorLookups(ctx, cfg, res.Types, log)
		metrics.RecordStage(cfg.Job, "mirror", err, time.Since(start))
		if err != nil {
			log.Error("lookup mirror failed", zap.Error(err))
		}
	}

	sum, err := report.Generate(cfg.OutputDir, log)
	if err != nil {
		log.Warn("report generation failed", zap.Error(err))
	}
	res.Report = sum
	return res, nil
}

// ingestType parses all of a type's shard files into one Parquet file, then
// runs the cross-shard dedup pass over the finished file. The writer is
// created lazily at the first parsed chunk so a type whose shards all fail
// leaves no output file behind.
func ingestType(ctx context.Context, cfg config.Pipeline, table schema.Table, files []string, log *zap.Logger) (TypeStats, error) {
	var stats TypeStats
	sort.Strings(files)

	outPath := filepath.Join(cfg.OutputDir, string(table.Type)+".parquet")
	var w *parquetstore.Writer

	dedup := builtin.DeDup{}
	if cfg.DedupEnabled() {
		dedup.KeyOf = func(r records.Record) string { return schema.IdentityKey(table.Type, r) }
	}

	parser := csvparser.NewParser(csvparser.Options{
		Comma:     cfg.Parser.CommaRune(),
		Columns:   table.Columns,
		ChunkRows: cfg.Parser.ChunkRowsOrDefault(),
	}, log)

	var bar *pb.ProgressBar
	if cfg.Progress {
		bar = pb.StartNew(len(files))
		defer bar.Finish()
	}

	for _, path := range files {
		if bar != nil {
			bar.Increment()
		}
		rc, err := file.NewLocal(path).Open(ctx)
		if err != nil {
			log.Warn("shard unreadable, skipped", zap.String("file", path), zap.Error(err))
			stats.FileErrors++
			continue
		}

		fstats, err := parser.ParseChunks(ctx, rc, func(chunk []records.Record) error {
			kept, dropped := dedup.Apply(chunk)
			stats.DupsChunk += dropped
			if len(kept) == 0 {
				return nil
			}
			if w == nil {
				var werr error
				if w, werr = parquetstore.NewWriter(outPath, table); werr != nil {
					return werr
				}
			}
			return w.WriteChunk(kept)
		})
		rc.Close()
		stats.Rows += fstats.Rows
		stats.Skipped += fstats.Skipped
		if err != nil {
			var rerr *csvparser.ReadError
			if errors.As(err, &rerr) {
				log.Warn("shard failed mid-read, remainder skipped",
					zap.String("file", path), zap.Error(err))
				stats.FileErrors++
				continue
			}
			if w != nil {
				w.Close()
			}
			return stats, fmt.Errorf("ingest %s: %w", path, err)
		}
		stats.Files++
	}

	if w == nil {
		return stats, nil
	}
	if err := w.Close(); err != nil {
		return stats, err
	}

	if cfg.DedupEnabled() {
		dropped, err := dedupFile(ctx, outPath, table, dedup, cfg.Parser.ChunkRowsOrDefault())
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				log.Warn("final dedup skipped, output file missing", zap.String("file", outPath))
				return stats, nil
			}
			return stats, err
		}
		stats.DupsFinal = dropped
	}
	return stats, nil
}

// dedupFile runs the cross-shard pass: the whole file is read back, deduped
// with the same key function as the chunk pass, and atomically rewritten when
// anything was dropped.
func dedupFile(ctx context.Context, path string, table schema.Table, dedup builtin.DeDup, chunkRows int) (int, error) {
	recs, err := parquetstore.ReadAll(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("dedup read %s: %w", path, err)
	}
	kept, dropped := dedup.Apply(recs)
	if dropped == 0 {
		return 0, nil
	}
	if err := parquetstore.Rewrite(path, table, kept, chunkRows); err != nil {
		return 0, fmt.Errorf("dedup rewrite %s: %w", path, err)
	}
	return dropped, nil
}

// mirrorLookups replicates the finished lookup tables into Postgres. A table
// whose output file is missing is skipped with a warning; a failed replace
// does not stop the remaining tables.
func mirrorLookups(ctx context.Context, cfg config.Pipeline, types map[schema.Type]TypeStats, log *zap.Logger) error {
	m, closeFn, err := postgres.NewMirror(ctx, cfg.Mirror.DSN, log)
	if err != nil {
		return err
	}
	defer closeFn()

	var firstErr error
	for _, table := range schema.All() {
		if !table.Type.IsLookup() {
			continue
		}
		if _, ok := types[table.Type]; !ok {
			continue
		}
		path := filepath.Join(cfg.OutputDir, string(table.Type)+".parquet")
		recs, err := parquetstore.ReadAll(ctx, path)
		if err != nil {
			log.Warn("mirror skipped, output unreadable",
				zap.String("type", string(table.Type)), zap.Error(err))
			continue
		}
		if err := m.Replace(ctx, table.Type, recs); err != nil {
			log.Error("mirror replace failed",
				zap.String("type", string(table.Type)), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
