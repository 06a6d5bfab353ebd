package core

import (
	"context"
	"io"
)

// FileStore is any service that can store opaque blobs under a key.
// Material attachments go through it; the database only keeps the key.
type FileStore interface {
	Put(ctx context.Context, key string, contentType string, data io.Reader, size int64) error
	Get(ctx context.Context, key string) (io.ReadCloser, int64, error)
	Delete(ctx context.Context, key string) error
}
