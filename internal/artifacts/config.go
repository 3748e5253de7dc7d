package artifacts

import (
	"context"
	"fmt"

	"github.com/floorreports/apiserver/config"
)

// NewFromConfig selects and constructs the object storage backend named in
// the configuration. An unset backend falls back to local directory storage.
func NewFromConfig(ctx context.Context, cfg config.StorageConfig) (*Store, error) {
	switch cfg.Backend {
	case config.BackendMinio:
		backend, err := NewMinioStore(cfg.Minio)
		if err != nil {
			return nil, err
		}
		return NewStore(backend), nil
	case config.BackendGCS:
		backend, err := NewGCSStore(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		return NewStore(backend), nil
	case config.BackendNone, "":
		return NewStore(NewLocalStore(cfg.LocalDir)), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
