package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pierrec/lz4/v4"
)

// Local stores each key as a file under a base directory. Writes go to a
// temporary file that is renamed into place. With compress set, files are
// LZ4 frames with a ".lz4" suffix.
type Local struct {
	basePath string
	compress bool
}

// NewLocal creates basePath if needed.
func NewLocal(basePath string, compress bool) (*Local, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Local{basePath: basePath, compress: compress}, nil
}

func (l *Local) path(key string) string {
	name := fileName(key)
	if l.compress {
		name += ".lz4"
	}
	return filepath.Join(l.basePath, name)
}

func (l *Local) Load(_ context.Context, key string) ([]byte, error) {
	raw, err := os.ReadFile(l.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !l.compress {
		return raw, nil
	}
	data, err := io.ReadAll(lz4.NewReader(bytes.NewReader(raw)))
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", key, err)
	}
	return data, nil
}

func (l *Local) Save(_ context.Context, key string, data []byte) error {
	if l.compress {
		var buf bytes.Buffer
		if err := compressLZ4(data, &buf); err != nil {
			return fmt.Errorf("compress %s: %w", key, err)
		}
		data = buf.Bytes()
	}

	target := l.path(key)
	tmp, err := os.CreateTemp(l.basePath, ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), target)
}

func (l *Local) Delete(_ context.Context, key string) error {
	err := os.Remove(l.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (l *Local) Close() error { return nil }

func compressLZ4(src []byte, output *bytes.Buffer) error {
	zw := lz4.NewWriter(output)
	if _, err := zw.Write(src); err != nil {
		return err
	}
	return zw.Close()
}
