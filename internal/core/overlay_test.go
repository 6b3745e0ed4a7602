package core

import (
	"errors"
	"testing"
)

func tableWithRows() *Table {
	tbl := newTestTable()
	tbl.SetData([]Row{
		{"id": Text("1"), "name": Text("Ada"), "age": Number(36)},
		{"id": Text("2"), "name": Text("Bob"), "age": Number(41)},
	})
	return tbl
}

func TestOverlay_Stage(t *testing.T) {
	tbl := tableWithRows()
	tests := []struct {
		name    string
		rowID   string
		field   string
		wantErr error
	}{
		{name: "known field", rowID: "1", field: "name"},
		{name: "id read-only", rowID: "1", field: "id", wantErr: ErrIDReadOnly},
		{name: "unknown row", rowID: "9", field: "name", wantErr: ErrRowNotFound},
		{name: "unknown column", rowID: "1", field: "salary", wantErr: ErrUnknownColumn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOverlay()
			err := o.Stage(tbl, tt.rowID, tt.field, "x")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if (tt.wantErr == nil) != o.Has(tt.rowID) {
				t.Errorf("Has(%q) = %v", tt.rowID, o.Has(tt.rowID))
			}
		})
	}
}

func TestOverlay_ApplyDoesNotMutateBase(t *testing.T) {
	tbl := tableWithRows()
	o := NewOverlay()
	o.Stage(tbl, "1", "name", "Ada L.")
	o.Stage(tbl, "1", "age", "abc")

	merged := o.Apply(tbl.Data, DefaultSchema)

	if merged[0]["name"].String() != "Ada L." {
		t.Errorf("merged name = %q", merged[0]["name"].String())
	}
	if merged[0]["age"].String() != "abc" {
		t.Errorf("unparsed numeric edit should show as typed, got %q", merged[0]["age"].String())
	}
	if merged[1]["name"].String() != "Bob" {
		t.Errorf("untouched row changed: %q", merged[1]["name"].String())
	}
	if tbl.Data[0]["name"].String() != "Ada" {
		t.Errorf("base mutated: %q", tbl.Data[0]["name"].String())
	}
}

func TestOverlay_CommitValid(t *testing.T) {
	tbl := tableWithRows()
	o := NewOverlay()
	o.Stage(tbl, "1", "age", " 37 ")
	o.Stage(tbl, "2", "name", "Robert")

	saved, err := o.Commit(tbl, DefaultSchema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(saved) != 2 {
		t.Errorf("saved %d rows, want 2", len(saved))
	}

	r1, _ := tbl.Row("1")
	if f, ok := r1["age"].Float(); !ok || f != 37 {
		t.Errorf("age = %v (numeric %v), want number 37", r1["age"], ok)
	}
	r2, _ := tbl.Row("2")
	if r2["name"].String() != "Robert" {
		t.Errorf("name = %q, want Robert", r2["name"].String())
	}
	if o.Len() != 0 {
		t.Errorf("overlay not cleared: %d rows pending", o.Len())
	}
}

func TestOverlay_CommitInvalidNumberCommitsNothing(t *testing.T) {
	tbl := tableWithRows()
	o := NewOverlay()
	o.Stage(tbl, "1", "name", "Ada L.")
	o.Stage(tbl, "2", "age", "forty")

	_, err := o.Commit(tbl, DefaultSchema)
	if !errors.Is(err, ErrInvalidNumber) {
		t.Fatalf("err = %v, want ErrInvalidNumber", err)
	}
	if got := MapError(err).Message; got != "Age must be a valid number" {
		t.Errorf("message = %q", got)
	}

	r1, _ := tbl.Row("1")
	if r1["name"].String() != "Ada" {
		t.Errorf("valid edit committed despite failure: %q", r1["name"].String())
	}
	if o.Len() != 2 {
		t.Errorf("overlay should be retained, has %d rows", o.Len())
	}
}

func TestOverlay_CommitBlankNumberClears(t *testing.T) {
	tbl := tableWithRows()
	o := NewOverlay()
	o.Stage(tbl, "1", "age", "  ")

	if merged := o.Apply(tbl.Data, DefaultSchema); merged[0]["age"].String() != "" {
		t.Errorf("merged age = %q, want blank", merged[0]["age"].String())
	}
	if _, err := o.Commit(tbl, DefaultSchema); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r1, _ := tbl.Row("1")
	if _, ok := r1["age"]; ok {
		t.Errorf("age = %v, want field cleared", r1["age"])
	}
}

func TestOverlay_CommitSingleRow(t *testing.T) {
	tbl := tableWithRows()
	o := NewOverlay()
	o.Stage(tbl, "1", "name", "Ada L.")
	o.Stage(tbl, "2", "age", "bad")

	if _, err := o.Commit(tbl, DefaultSchema, "1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Has("1") || !o.Has("2") {
		t.Errorf("pending rows = %v, want [2]", o.RowIDs())
	}
}

func TestOverlay_CommitNothingPending(t *testing.T) {
	o := NewOverlay()
	if _, err := o.Commit(tableWithRows(), DefaultSchema); !errors.Is(err, ErrNoPendingEdits) {
		t.Errorf("err = %v, want ErrNoPendingEdits", err)
	}
}

func TestOverlay_DiscardAndPrune(t *testing.T) {
	tbl := tableWithRows()
	o := NewOverlay()
	o.Stage(tbl, "1", "name", "x")
	o.Stage(tbl, "2", "name", "y")

	o.Discard("1")
	if o.Has("1") || !o.Has("2") {
		t.Errorf("after Discard(1) pending = %v", o.RowIDs())
	}

	tbl.DeleteRow("2")
	o.Prune(tbl)
	if o.Len() != 0 {
		t.Errorf("Prune kept edits for deleted row: %v", o.RowIDs())
	}
	if tbl.Data[0]["name"].String() != "Ada" {
		t.Error("Discard changed the base row")
	}
}

func TestOverlay_CloneIsIndependent(t *testing.T) {
	tbl := tableWithRows()
	o := NewOverlay()
	o.Stage(tbl, "1", "name", "x")

	c := o.Clone()
	c.Stage(tbl, "1", "name", "changed")
	c.Stage(tbl, "2", "name", "y")

	if o.Pending("1")["name"] != "x" || o.Has("2") {
		t.Errorf("original changed through clone: %v", o.All())
	}
}
