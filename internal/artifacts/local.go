package artifacts

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// LocalStore writes artifacts to a directory on disk. It is the fallback
// when no object storage backend is configured.
type LocalStore struct {
	dir string
}

// NewLocalStore constructs a filesystem-backed store rooted at dir.
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{dir: dir}
}

// EnsureBucket creates the root directory if it does not exist.
func (l *LocalStore) EnsureBucket(ctx context.Context) error {
	return os.MkdirAll(l.dir, 0o755)
}

// Put writes an artifact under the root directory.
func (l *LocalStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	path := filepath.Join(l.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Get opens an artifact under the root directory.
func (l *LocalStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(l.dir, filepath.FromSlash(key)))
}

// Bucket returns the root directory path.
func (l *LocalStore) Bucket() string {
	return l.dir
}
