// Package artifacts stores rendered report files in object storage.
package artifacts

import (
	"context"
	"io"
)

// ObjectStore defines common object operations across backends.
type ObjectStore interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Bucket() string
}

// Store wraps an ObjectStore backend with a stable API.
type Store struct {
	backend ObjectStore
}

// NewStore constructs a Store wrapper for the provided backend.
func NewStore(backend ObjectStore) *Store {
	return &Store{backend: backend}
}

// EnsureBucket ensures the configured bucket exists.
func (s *Store) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// Put uploads an artifact to the configured bucket.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	return s.backend.Put(ctx, key, r, size, contentType)
}

// Get opens a reader for an artifact in the configured bucket.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.backend.Get(ctx, key)
}

// Bucket returns the configured bucket name.
func (s *Store) Bucket() string {
	return s.backend.Bucket()
}
