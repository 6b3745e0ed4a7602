package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/JonMunkholm/DataTable/internal/core"
)

// DefaultKey is the key the snapshot lives under unless configured otherwise.
const DefaultKey = "persist:root"

// Persister encodes core snapshots as JSON under one key of a Store.
//
//	{"version":1,"table":{"data":[...],"visibleColumns":[...],"allColumns":[...]},"theme":"light"}
type Persister struct {
	store Store
	key   string
}

// NewPersister uses DefaultKey when key is empty.
func NewPersister(s Store, key string) *Persister {
	if key == "" {
		key = DefaultKey
	}
	return &Persister{store: s, key: key}
}

// Key returns the storage key.
func (p *Persister) Key() string {
	return p.key
}

// Persist implements core.Persister.
func (p *Persister) Persist(ctx context.Context, snap core.Snapshot) error {
	snap.Version = core.SnapshotVersion
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	return p.store.Save(ctx, p.key, data)
}

// Rehydrate implements core.Persister. A missing key is not an error.
func (p *Persister) Rehydrate(ctx context.Context) (core.Snapshot, bool, error) {
	data, err := p.store.Load(ctx, p.key)
	if errors.Is(err, ErrNotFound) {
		return core.Snapshot{}, false, nil
	}
	if err != nil {
		return core.Snapshot{}, false, err
	}

	var snap core.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return core.Snapshot{}, false, fmt.Errorf("decode state under %q: %w", p.key, err)
	}
	if snap.Version > core.SnapshotVersion {
		return core.Snapshot{}, false, fmt.Errorf("state version %d is newer than supported %d", snap.Version, core.SnapshotVersion)
	}
	return snap, true, nil
}

// Purge removes the persisted state.
func (p *Persister) Purge(ctx context.Context) error {
	return p.store.Delete(ctx, p.key)
}
