// Package archive unpacks the publisher's ZIP archives into the scratch
// directory and normalizes extracted filenames.
//
// Failure handling is deliberately soft: a corrupt archive or an entry that
// cannot be written is logged and skipped, and the run continues with the
// remaining work. The only fatal condition is an input directory with no
// archives at all, which would otherwise silently produce empty output.
package archive

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/yeka/zip"
	"go.uber.org/zap"
)

// ErrNoArchives is returned when the input directory contains no ZIP files.
var ErrNoArchives = errors.New("no archives found in input directory")

// TextSuffix is appended to every extracted file. The publisher ships files
// without extensions; downstream grouping keys off this suffix.
const TextSuffix = ".csv"

// Extractor unpacks archives into a scratch directory.
type Extractor struct {
	log *zap.Logger
}

// NewExtractor returns an Extractor logging through log.
func NewExtractor(log *zap.Logger) *Extractor {
	return &Extractor{log: log}
}

// ExtractAll extracts every ZIP archive found directly inside inputDir
// (non-recursive) into scratchDir, preserving each archive's internal
// directory structure. A failure on one archive is logged and does not stop
// the rest. After extraction every regular file under scratchDir is renamed
// to carry TextSuffix.
//
// Callers must provide a clean scratchDir: re-running over a partially
// populated scratch directory would double-suffix files from the prior run.
//
// Returns the number of archives successfully extracted. ErrNoArchives is
// returned when inputDir holds no ZIP files.
func (e *Extractor) ExtractAll(inputDir, scratchDir string) (int, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return 0, fmt.Errorf("read input directory %s: %w", inputDir, err)
	}

	var archives []string
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(ent.Name()), ".zip") {
			archives = append(archives, filepath.Join(inputDir, ent.Name()))
		}
	}
	if len(archives) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNoArchives, inputDir)
	}

	extracted := 0
	for _, path := range archives {
		if err := e.extractZip(path, scratchDir); err != nil {
			e.log.Error("extract archive failed, skipping",
				zap.String("archive", filepath.Base(path)), zap.Error(err))
			continue
		}
		e.log.Info("extracted archive", zap.String("archive", filepath.Base(path)))
		extracted++
	}

	renamed := e.suffixFiles(scratchDir)
	e.log.Info("suffixed extracted files",
		zap.Int("files", renamed), zap.String("suffix", TextSuffix))

	return extracted, nil
}

// extractZip unpacks one archive into destDir.
func (e *Extractor) extractZip(path, destDir string) error {
	r, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if err := e.extractEntry(f, destDir); err != nil {
			e.log.Warn("skip archive entry",
				zap.String("archive", filepath.Base(path)),
				zap.String("entry", f.Name), zap.Error(err))
		}
	}
	return nil
}

// extractEntry writes one archive entry under destDir. Entry paths escaping
// destDir are rejected.
func (e *Extractor) extractEntry(f *zip.File, destDir string) error {
	target := filepath.Join(destDir, filepath.FromSlash(f.Name))
	if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return fmt.Errorf("entry path escapes scratch directory: %s", f.Name)
	}

	if f.FileInfo().IsDir() {
		return os.MkdirAll(target, 0755)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open entry: %w", err)
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		os.Remove(target)
		return fmt.Errorf("write entry: %w", err)
	}
	return out.Close()
}

// suffixFiles appends TextSuffix to every regular file under root,
// recursively. Renames are best effort: a failure on one file is logged and
// does not block the rest. Returns the number of files renamed.
func (e *Extractor) suffixFiles(root string) int {
	count := 0
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if err := os.Rename(path, path+TextSuffix); err != nil {
			e.log.Error("rename extracted file failed",
				zap.String("file", d.Name()), zap.Error(err))
			return nil
		}
		count++
		return nil
	})
	return count
}
