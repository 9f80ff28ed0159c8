// Package file implements the local filesystem data source and the grouping
// of extracted shard files by entity type.
package file

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"cnpjetl/internal/datasource"
	"cnpjetl/internal/schema"
)

// Local is a filesystem data source that opens one file from the local disk.
type Local struct{ path string }

var _ datasource.Source = (*Local)(nil)

// NewLocal returns a Local source bound to path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Open opens the configured path for reading. If ctx is already done, the
// context error is returned without touching the filesystem. Filesystem
// errors are wrapped with the path while remaining errors.Is-compatible.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}

// GroupByType walks scratchDir recursively, classifies every file carrying
// suffix by filename, and returns the matching paths grouped per entity type
// in discovery order. Unclassifiable files are logged at debug level and
// excluded; types with no files are absent from the result.
func GroupByType(scratchDir, suffix string, log *zap.Logger) (map[schema.Type][]string, error) {
	groups := make(map[schema.Type][]string)

	err := filepath.WalkDir(scratchDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), suffix) {
			return nil
		}
		t := schema.Classify(d.Name())
		if t == schema.TypeUnknown {
			log.Debug("unrecognized file excluded", zap.String("file", d.Name()))
			return nil
		}
		groups[t] = append(groups[t], path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan scratch directory %s: %w", scratchDir, err)
	}
	return groups, nil
}
