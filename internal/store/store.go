// Package store persists the table state under a single key.
//
// A Store is a minimal key/value contract with four backends selected by
// STORAGE_MODE: memory, local files, PostgreSQL and S3-compatible object
// storage. Persister layers the snapshot encoding on top.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/DataTable/internal/config"
)

// ErrNotFound is returned by Load when nothing is stored under the key.
var ErrNotFound = errors.New("store: key not found")

// Store saves opaque values by key.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// New creates the backend named by cfg.Mode.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch strings.ToLower(cfg.Mode) {
	case config.StorageMemory:
		return NewMemory(), nil
	case config.StorageLocal:
		return NewLocal(cfg.Path, cfg.Compress)
	case config.StoragePostgres:
		return NewPostgres(ctx, PostgresConfig{
			URL:      cfg.DatabaseURL,
			MaxConns: cfg.MaxConns,
			MinConns: cfg.MinConns,
		})
	case config.StorageS3:
		return NewS3(ctx, S3Config{
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Prefix:          cfg.S3.Prefix,
		})
	default:
		return nil, fmt.Errorf("unsupported storage mode: %s (supported: memory, local, postgres, s3)", cfg.Mode)
	}
}

// fileName maps a key such as "persist:root" to a portable file name.
func fileName(key string) string {
	return keyReplacer.Replace(key) + ".json"
}

var keyReplacer = strings.NewReplacer(":", "_", "/", "_", `\`, "_")
