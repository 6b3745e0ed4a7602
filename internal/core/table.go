package core

import (
	"fmt"
	"slices"
	"strings"
)

// Table is the row collection plus its column set. It mirrors the state the
// UI renders: Data in insertion order, AllColumns as every known column, and
// VisibleColumns as the displayed subset.
//
// Invariants kept by every method: row ids are unique and non-empty, and
// IDColumn is a member of both column lists.
type Table struct {
	Data           []Row    `json:"data"`
	VisibleColumns []string `json:"visibleColumns"`
	AllColumns     []string `json:"allColumns"`

	newID IDGenerator
}

// NewTable returns the initial state: no rows and the schema's columns all visible.
func NewTable(schema Schema, gen IDGenerator) *Table {
	return &Table{
		Data:           []Row{},
		VisibleColumns: schema.Columns(),
		AllColumns:     schema.Columns(),
		newID:          gen,
	}
}

// Clone returns a deep copy, including the id generator.
func (t *Table) Clone() *Table {
	return &Table{
		Data:           cloneRows(t.Data),
		VisibleColumns: slices.Clone(t.VisibleColumns),
		AllColumns:     slices.Clone(t.AllColumns),
		newID:          t.newID,
	}
}

// SetGenerator replaces the id generator (nil means NewID).
func (t *Table) SetGenerator(gen IDGenerator) {
	t.newID = gen
}

// SetData replaces the row collection, reconciling ids.
func (t *Table) SetData(records []Row) {
	t.Data = Reconcile(records, t.newID, nil)
}

// AddRow appends a row, assigning a new id if its id is missing, blank, or
// already taken. Returns the stored row.
func (t *Table) AddRow(row Row) Row {
	added := ReconcileInto(t.Data, []Row{row}, t.newID)[0]
	t.Data = append(t.Data, added)
	return added.Clone()
}

// UpdateRow replaces the row with the same id. Returns false if absent.
func (t *Table) UpdateRow(row Row) bool {
	i := t.index(row.ID())
	if i < 0 {
		return false
	}
	t.Data[i] = row.Clone()
	return true
}

// DeleteRow removes the row with the given id. Returns false if absent.
func (t *Table) DeleteRow(id string) bool {
	i := t.index(id)
	if i < 0 {
		return false
	}
	t.Data = slices.Delete(t.Data, i, i+1)
	return true
}

// Row returns a copy of the row with the given id.
func (t *Table) Row(id string) (Row, bool) {
	i := t.index(id)
	if i < 0 {
		return nil, false
	}
	return t.Data[i].Clone(), true
}

func (t *Table) index(id string) int {
	return slices.IndexFunc(t.Data, func(r Row) bool { return r.ID() == id })
}

// HasColumn reports whether col is a known column.
func (t *Table) HasColumn(col string) bool {
	return slices.Contains(t.AllColumns, col)
}

// IsVisible reports whether col is displayed.
func (t *Table) IsVisible(col string) bool {
	return slices.Contains(t.VisibleColumns, col)
}

// SetVisibleColumns replaces the displayed column list, keeping the given
// order. Duplicates are dropped and IDColumn is prepended when missing.
// Every name must be a known column.
func (t *Table) SetVisibleColumns(cols []string) error {
	visible := make([]string, 0, len(cols)+1)
	for _, c := range cols {
		c = strings.TrimSpace(c)
		if c == "" || slices.Contains(visible, c) {
			continue
		}
		if !t.HasColumn(c) {
			return fmt.Errorf("%w: %q", ErrUnknownColumn, c)
		}
		visible = append(visible, c)
	}
	if !slices.Contains(visible, IDColumn) {
		visible = slices.Insert(visible, 0, IDColumn)
	}
	t.VisibleColumns = visible
	return nil
}

// ShowColumn appends a known column to the visible list if not already shown.
func (t *Table) ShowColumn(col string) error {
	if !t.HasColumn(col) {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, col)
	}
	if !t.IsVisible(col) {
		t.VisibleColumns = append(t.VisibleColumns, col)
	}
	return nil
}

// HideColumn removes a column from the visible list; it stays known.
// IDColumn cannot be hidden.
func (t *Table) HideColumn(col string) error {
	if col == IDColumn {
		return ErrIDColumnRequired
	}
	if !t.HasColumn(col) {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, col)
	}
	t.VisibleColumns = slices.DeleteFunc(t.VisibleColumns, func(c string) bool { return c == col })
	return nil
}

// ToggleColumn flips the visibility of col and returns the new state.
func (t *Table) ToggleColumn(col string) (bool, error) {
	if t.IsVisible(col) {
		if err := t.HideColumn(col); err != nil {
			return true, err
		}
		return false, nil
	}
	if err := t.ShowColumn(col); err != nil {
		return false, err
	}
	return true, nil
}

// AddColumn registers a custom column, optionally showing it.
func (t *Table) AddColumn(name string, show bool) (string, error) {
	name, err := ValidateColumnName(name)
	if err != nil {
		return "", err
	}
	if t.HasColumn(name) {
		return "", fmt.Errorf("%w: %q", ErrColumnExists, name)
	}
	t.AllColumns = append(t.AllColumns, name)
	if show {
		t.VisibleColumns = append(t.VisibleColumns, name)
	}
	return name, nil
}

// LearnColumns appends unknown names to AllColumns without showing them.
// Returns the names added.
func (t *Table) LearnColumns(cols []string) []string {
	var added []string
	for _, c := range cols {
		if _, err := ValidateColumnName(c); err != nil || t.HasColumn(c) {
			continue
		}
		t.AllColumns = append(t.AllColumns, c)
		added = append(added, c)
	}
	return added
}

// Normalize restores the invariants on state from an untrusted source such
// as persisted storage: ids are reconciled, column lists deduplicated, every
// visible column known, and IDColumn present in both lists.
func (t *Table) Normalize(schema Schema) {
	if t.Data == nil {
		t.Data = []Row{}
	}
	t.Data = Reconcile(t.Data, t.newID, nil)

	if len(t.AllColumns) == 0 {
		t.AllColumns = schema.Columns()
	}
	t.AllColumns = dedupe(t.AllColumns)
	if !slices.Contains(t.AllColumns, IDColumn) {
		t.AllColumns = slices.Insert(t.AllColumns, 0, IDColumn)
	}

	visible := dedupe(t.VisibleColumns)
	for _, c := range visible {
		if !slices.Contains(t.AllColumns, c) {
			t.AllColumns = append(t.AllColumns, c)
		}
	}
	if !slices.Contains(visible, IDColumn) {
		visible = slices.Insert(visible, 0, IDColumn)
	}
	t.VisibleColumns = visible
}

// ValidateColumnName trims name and rejects blanks and characters that would
// break the CSV header.
func ValidateColumnName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is empty", ErrInvalidColumnName)
	}
	if strings.ContainsAny(name, ",\"\r\n") {
		return "", fmt.Errorf("%w: %q", ErrInvalidColumnName, name)
	}
	return name, nil
}

func dedupe(cols []string) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		c = strings.TrimSpace(c)
		if c != "" && !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}
