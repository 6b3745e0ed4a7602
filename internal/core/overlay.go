package core

// overlay.go holds uncommitted per-row edits apart from the base rows.
//
// Edits are staged as raw text, merged over the base rows at render time
// without touching them, and either committed (Commit) or thrown away
// (Discard). A commit validates every affected edit first and applies
// nothing if any edit is invalid.

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Overlay maps row id -> field -> raw typed value.
type Overlay struct {
	edits map[string]map[string]string
	order []string // row ids in first-staged order
}

// NewOverlay returns an empty overlay.
func NewOverlay() *Overlay {
	return &Overlay{edits: make(map[string]map[string]string)}
}

// Stage records an edit of field on the row with rowID. The row and the
// column must exist in t; the id column cannot be edited.
func (o *Overlay) Stage(t *Table, rowID, field, value string) error {
	if field == IDColumn {
		return ErrIDReadOnly
	}
	if _, ok := t.Row(rowID); !ok {
		return fmt.Errorf("%w: %q", ErrRowNotFound, rowID)
	}
	if !t.HasColumn(field) {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, field)
	}

	fields, ok := o.edits[rowID]
	if !ok {
		fields = make(map[string]string)
		o.edits[rowID] = fields
		o.order = append(o.order, rowID)
	}
	fields[field] = value
	return nil
}

// Has reports whether rowID has pending edits.
func (o *Overlay) Has(rowID string) bool {
	_, ok := o.edits[rowID]
	return ok
}

// Len returns the number of rows with pending edits.
func (o *Overlay) Len() int {
	return len(o.edits)
}

// RowIDs returns the ids of rows with pending edits in staging order.
func (o *Overlay) RowIDs() []string {
	return slices.Clone(o.order)
}

// Pending returns a copy of the edits staged for rowID.
func (o *Overlay) Pending(rowID string) map[string]string {
	return maps.Clone(o.edits[rowID])
}

// All returns a copy of every pending edit.
func (o *Overlay) All() map[string]map[string]string {
	out := make(map[string]map[string]string, len(o.edits))
	for id, fields := range o.edits {
		out[id] = maps.Clone(fields)
	}
	return out
}

// Apply returns rows with pending edits merged in. rows is not modified.
// Numeric fields that parse are shown as numbers; anything else as typed.
func (o *Overlay) Apply(rows []Row, schema Schema) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		fields, ok := o.edits[r.ID()]
		if !ok {
			out[i] = r.Clone()
			continue
		}
		merged := r.Clone()
		for f, raw := range fields {
			if clearsNumeric(schema, f, raw) {
				delete(merged, f)
				continue
			}
			merged[f] = previewField(schema, f, raw)
		}
		out[i] = merged
	}
	return out
}

// clearsNumeric reports whether raw empties a numeric field. A blank
// numeric edit removes the value instead of failing to parse.
func clearsNumeric(schema Schema, field, raw string) bool {
	return schema.IsNumeric(field) && strings.TrimSpace(raw) == ""
}

// Commit validates and writes the pending edits of rowIDs (all rows when
// none are given) into t, replacing the affected rows, then clears them from
// the overlay. If any edit is invalid nothing is written and the overlay is
// left as it was.
func (o *Overlay) Commit(t *Table, schema Schema, rowIDs ...string) ([]Row, error) {
	ids := o.pick(rowIDs)
	if len(ids) == 0 {
		return nil, ErrNoPendingEdits
	}

	updated := make([]Row, 0, len(ids))
	for _, id := range ids {
		base, ok := t.Row(id)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrRowNotFound, id)
		}
		fields := o.edits[id]
		for _, f := range sortedKeys(fields) {
			if clearsNumeric(schema, f, fields[f]) {
				delete(base, f)
				continue
			}
			v, err := ConvertField(schema, f, fields[f])
			if err != nil {
				return nil, &FieldError{RowID: id, Field: f, Value: fields[f], Err: err}
			}
			base[f] = v
		}
		updated = append(updated, base)
	}

	for _, row := range updated {
		t.UpdateRow(row)
	}
	o.Discard(ids...)
	return updated, nil
}

// Discard drops the pending edits of rowIDs, or every edit when none are given.
func (o *Overlay) Discard(rowIDs ...string) {
	if len(rowIDs) == 0 {
		o.edits = make(map[string]map[string]string)
		o.order = nil
		return
	}
	for _, id := range rowIDs {
		delete(o.edits, id)
	}
	o.order = slices.DeleteFunc(o.order, func(id string) bool { return !o.Has(id) })
}

// Prune drops edits for rows that no longer exist in t.
func (o *Overlay) Prune(t *Table) {
	for _, id := range o.order {
		if _, ok := t.Row(id); !ok {
			delete(o.edits, id)
		}
	}
	o.order = slices.DeleteFunc(o.order, func(id string) bool { return !o.Has(id) })
}

// Clone returns a deep copy of the overlay.
func (o *Overlay) Clone() *Overlay {
	return &Overlay{edits: o.All(), order: slices.Clone(o.order)}
}

// pick returns the requested ids that have pending edits, in staging
// order, or all of them when none are requested.
func (o *Overlay) pick(rowIDs []string) []string {
	if len(rowIDs) == 0 {
		return slices.Clone(o.order)
	}
	var ids []string
	for _, id := range o.order {
		if slices.Contains(rowIDs, id) {
			ids = append(ids, id)
		}
	}
	return ids
}

func sortedKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}
