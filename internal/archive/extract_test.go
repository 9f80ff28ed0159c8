package archive

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/yeka/zip"
	"go.uber.org/zap"
)

// writeZip creates a ZIP archive at path containing the given entries.
func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, body := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestExtractAll(t *testing.T) {
	input := t.TempDir()
	scratch := t.TempDir()

	writeZip(t, filepath.Join(input, "Estabelecimentos0.zip"), map[string]string{
		"K3241.K03200Y0.D50510.ESTABELE": "data",
		"nested/dir/F.K03200$Z.D50510.PAISCSV": "more",
	})

	e := NewExtractor(zap.NewNop())
	n, err := e.ExtractAll(input, scratch)
	if err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}
	if n != 1 {
		t.Fatalf("extracted %d archives, want 1", n)
	}

	// Every extracted file must carry the text suffix.
	for _, rel := range []string{
		"K3241.K03200Y0.D50510.ESTABELE" + TextSuffix,
		filepath.Join("nested", "dir", "F.K03200$Z.D50510.PAISCSV"+TextSuffix),
	} {
		if _, err := os.Stat(filepath.Join(scratch, rel)); err != nil {
			t.Errorf("missing extracted file %s: %v", rel, err)
		}
	}
}

func TestExtractAllSkipsCorruptArchive(t *testing.T) {
	input := t.TempDir()
	scratch := t.TempDir()

	writeZip(t, filepath.Join(input, "good.zip"), map[string]string{
		"F.K03200$Z.D50510.CNAECSV": "111;\"desc\"\n",
	})
	if err := os.WriteFile(filepath.Join(input, "bad.zip"), []byte("not a zip"), 0644); err != nil {
		t.Fatal(err)
	}

	e := NewExtractor(zap.NewNop())
	n, err := e.ExtractAll(input, scratch)
	if err != nil {
		t.Fatalf("a corrupt archive must not abort the run: %v", err)
	}
	if n != 1 {
		t.Fatalf("extracted %d archives, want 1 (the valid one)", n)
	}
	if _, err := os.Stat(filepath.Join(scratch, "F.K03200$Z.D50510.CNAECSV"+TextSuffix)); err != nil {
		t.Errorf("valid archive contents missing: %v", err)
	}
}

func TestExtractAllNoArchives(t *testing.T) {
	input := t.TempDir()
	if err := os.WriteFile(filepath.Join(input, "readme.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	e := NewExtractor(zap.NewNop())
	if _, err := e.ExtractAll(input, t.TempDir()); !errors.Is(err, ErrNoArchives) {
		t.Fatalf("want ErrNoArchives, got %v", err)
	}
}

func TestExtractEntryRejectsTraversal(t *testing.T) {
	input := t.TempDir()
	scratch := t.TempDir()

	writeZip(t, filepath.Join(input, "evil.zip"), map[string]string{
		"../outside": "nope",
		"SOCIOCSV":   "ok",
	})

	e := NewExtractor(zap.NewNop())
	if _, err := e.ExtractAll(input, scratch); err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(scratch), "outside")); err == nil {
		t.Fatal("traversal entry escaped the scratch directory")
	}
	if _, err := os.Stat(filepath.Join(scratch, "SOCIOCSV"+TextSuffix)); err != nil {
		t.Errorf("benign entry missing: %v", err)
	}
}
