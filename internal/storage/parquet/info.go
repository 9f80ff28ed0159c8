package parquet

import (
	"fmt"
	"os"

	"github.com/apache/arrow/go/v10/parquet/file"
)

// Info summarizes one output file from its metadata alone.
type Info struct {
	Path  string
	Rows  int64
	Bytes int64
}

// Stat reads row count from the Parquet footer and size from the filesystem
// without loading any column data.
func Stat(path string) (Info, error) {
	st, err := os.Stat(path)
	if err != nil {
		return Info{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	pf, err := file.NewParquetReader(f)
	if err != nil {
		return Info{}, fmt.Errorf("read parquet footer of %s: %w", path, err)
	}
	defer pf.Close()

	return Info{Path: path, Rows: pf.NumRows(), Bytes: st.Size()}, nil
}
