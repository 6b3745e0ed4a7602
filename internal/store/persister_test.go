package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/DataTable/internal/core"
)

func TestPersister_RoundTrip(t *testing.T) {
	ctx := context.Background()
	p := NewPersister(NewMemory(), "")

	_, ok, err := p.Rehydrate(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "nothing persisted yet")

	tbl := core.NewTable(core.DefaultSchema, nil)
	tbl.SetData([]core.Row{{"id": core.Text("1"), "name": core.Text("Ada"), "age": core.Number(36)}})
	_, err = tbl.AddColumn("dept", true)
	require.NoError(t, err)

	require.NoError(t, p.Persist(ctx, core.Snapshot{Table: *tbl, Theme: core.ThemeDark}))

	snap, ok, err := p.Rehydrate(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, core.SnapshotVersion, snap.Version)
	assert.Equal(t, core.ThemeDark, snap.Theme)
	assert.Equal(t, tbl.VisibleColumns, snap.Table.VisibleColumns)
	assert.Equal(t, tbl.AllColumns, snap.Table.AllColumns)
	require.Len(t, snap.Table.Data, 1)
	assert.True(t, snap.Table.Data[0]["age"].IsNumber())
	assert.Equal(t, "Ada", snap.Table.Data[0]["name"].String())
}

func TestPersister_Layout(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	p := NewPersister(mem, "")
	assert.Equal(t, "persist:root", p.Key())

	require.NoError(t, p.Persist(ctx, core.Snapshot{Table: *core.NewTable(core.DefaultSchema, nil)}))

	raw, err := mem.Load(ctx, "persist:root")
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Contains(t, doc, "version")
	assert.Contains(t, doc, "theme")

	var table map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(doc["table"], &table))
	assert.JSONEq(t, `[]`, string(table["data"]))
	assert.JSONEq(t, `["id","name","email","age","role"]`, string(table["visibleColumns"]))
	assert.JSONEq(t, `["id","name","email","age","role"]`, string(table["allColumns"]))
}

func TestPersister_RejectsCorruptAndNewer(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	p := NewPersister(mem, "k")

	require.NoError(t, mem.Save(ctx, "k", []byte("not json")))
	_, _, err := p.Rehydrate(ctx)
	assert.ErrorContains(t, err, "decode state")

	require.NoError(t, mem.Save(ctx, "k", []byte(`{"version":99}`)))
	_, _, err = p.Rehydrate(ctx)
	assert.ErrorContains(t, err, "newer than supported")
}

func TestPersister_WithService(t *testing.T) {
	ctx := context.Background()
	p := NewPersister(NewMemory(), "")

	svc, err := core.NewService(ctx, core.Options{Persister: p})
	require.NoError(t, err)
	_, err = svc.AddRow(ctx, map[string]string{"id": "7", "name": "Gia"})
	require.NoError(t, err)

	again, err := core.NewService(ctx, core.Options{Persister: p})
	require.NoError(t, err)
	rows := again.State().Table.Data
	require.Len(t, rows, 1)
	assert.Equal(t, "7", rows[0].ID())

	require.NoError(t, p.Purge(ctx))
	_, ok, err := p.Rehydrate(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
