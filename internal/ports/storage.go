// Package ports declares the contracts the application expects from its
// infrastructure adapters.
package ports

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned (possibly wrapped) by GetObject and
// DeleteObject for a key the provider does not hold.
var ErrObjectNotFound = errors.New("storage: object not found")

type PutObjectInput struct {
	ObjectKey   string
	ContentType string
	Reader      io.Reader
	Size        int64
}

type PutObjectOutput struct {
	// ObjectKey is the key to use for later reads. Providers that assign
	// their own ids (gdrive) return that id instead of the requested key.
	ObjectKey string
	Size      int64
}

// StorageProvider holds uploaded videos, overlay media and rendered outputs.
type StorageProvider interface {
	Provider() string

	PutObject(ctx context.Context, in PutObjectInput) (PutObjectOutput, error)
	GetObject(ctx context.Context, objectKey string) (rc io.ReadCloser, contentType string, size int64, err error)
	DeleteObject(ctx context.Context, objectKey string) error

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
}
