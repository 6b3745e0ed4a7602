package store

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
)

// Memory keeps values in an in-memory filesystem. Contents are lost when
// the process exits.
type Memory struct {
	mu sync.RWMutex
	fs billy.Filesystem
}

// NewMemory returns an empty memory store.
func NewMemory() *Memory {
	return &Memory{fs: memfs.New()}
}

func (m *Memory) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, err := m.fs.Open(fileName(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (m *Memory) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return util.WriteFile(m.fs, fileName(key), data, 0o644)
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.fs.Remove(fileName(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (m *Memory) Close() error { return nil }
