// Package datasource defines the minimal contract for opening raw input data.
package datasource

import (
	"context"
	"io"
)

// Source is anything the parser can stream bytes from.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
