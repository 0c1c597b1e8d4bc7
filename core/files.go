package core

import (
	"context"
	"io"
)

// FileStorage is any service that can store uploaded files.
type FileStorage interface {
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	URL(ctx context.Context, name string) (string, error)
	Delete(ctx context.Context, name string) error
}
