// Package storage persists uploaded bill images so an analysis can later be
// traced back to the image it was computed from.
package storage

import (
	"context"
	"io"
)

type ObjectStore interface {
	PutObject(ctx context.Context, key string, data io.Reader) error

	GetObject(ctx context.Context, key string) (io.ReadCloser, error)
}
