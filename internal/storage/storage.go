// Package storage keeps uploaded blobs (prescriptions) outside the database.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrNotFound is returned when a key has no object.
var ErrNotFound = errors.New("storage: object not found")

// BlobStore writes and reads opaque objects by key.
type BlobStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// CleanKey normalizes a key and rejects traversal outside the store root.
func CleanKey(key string) (string, error) {
	cleaned := path.Clean("/" + strings.ReplaceAll(key, "\\", "/"))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." {
		return "", errors.New("storage: empty key")
	}
	return cleaned, nil
}
