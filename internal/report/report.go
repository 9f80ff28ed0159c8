// Package report summarizes a run's output directory: one line per Parquet
// file with row count (from the footer, no data pages read) and on-disk
// size, plus totals.
package report

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	parquetstore "cnpjetl/internal/storage/parquet"
)

// Entry describes one output file.
type Entry struct {
	Name  string
	Rows  int64
	Bytes int64
}

// Summary is the final run report.
type Summary struct {
	Entries    []Entry
	TotalRows  int64
	TotalBytes int64
}

// Generate scans outputDir for .parquet files and logs one summary line per
// file plus a totals line. A file whose footer cannot be read is logged as a
// warning and excluded from totals; the report never fails the run.
func Generate(outputDir string, log *zap.Logger) (Summary, error) {
	var paths []string
	err := filepath.WalkDir(outputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".parquet") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return Summary{}, nil
		}
		return Summary{}, err
	}
	sort.Strings(paths)

	var sum Summary
	for _, path := range paths {
		info, err := parquetstore.Stat(path)
		if err != nil {
			log.Warn("unreadable output file, excluded from report",
				zap.String("file", path), zap.Error(err))
			continue
		}
		e := Entry{Name: filepath.Base(path), Rows: info.Rows, Bytes: info.Bytes}
		sum.Entries = append(sum.Entries, e)
		sum.TotalRows += e.Rows
		sum.TotalBytes += e.Bytes

		log.Info("output file",
			zap.String("file", e.Name),
			zap.Int64("rows", e.Rows),
			zap.String("size", humanize.Bytes(uint64(e.Bytes))))
	}

	log.Info("run totals",
		zap.Int("files", len(sum.Entries)),
		zap.Int64("rows", sum.TotalRows),
		zap.String("size", humanize.Bytes(uint64(sum.TotalBytes))))
	return sum, nil
}
