package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// IDColumn is the mandatory row identity column. It is always visible.
const IDColumn = "id"

// Value is a single cell: either text or a number.
// The zero Value is empty text.
type Value struct {
	str   string
	num   float64
	isNum bool
}

// Text returns a text Value.
func Text(s string) Value {
	return Value{str: s}
}

// Number returns a numeric Value.
func Number(f float64) Value {
	return Value{num: f, isNum: true}
}

// IsNumber reports whether v holds a number.
func (v Value) IsNumber() bool {
	return v.isNum
}

// Float returns the numeric value and true, or 0 and false for text.
func (v Value) Float() (float64, bool) {
	return v.num, v.isNum
}

// String renders the value the way it appears in the grid and in exports.
// Numbers use the shortest decimal form (30, 41.5).
func (v Value) String() string {
	if v.isNum {
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	}
	return v.str
}

// MarshalJSON encodes numbers as JSON numbers and text as JSON strings.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.isNum {
		return json.Marshal(v.num)
	}
	return json.Marshal(v.str)
}

// UnmarshalJSON accepts a JSON string, number, or null.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = Value{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
		return nil
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("cell value must be a string or number: %w", err)
		}
		*v = Number(f)
		return nil
	}
}

// Row maps column name to cell value. Every stored row has a non-empty,
// unique "id" entry.
type Row map[string]Value

// ID returns the row's identifier as text.
func (r Row) ID() string {
	return r[IDColumn].String()
}

// Get returns the value for col, or empty text when absent.
func (r Row) Get(col string) Value {
	return r[col]
}

// Clone returns a shallow copy; Values are immutable so this is a full copy.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Plain converts the row to generic values (string or float64) for encoders
// that do not know about Value.
func (r Row) Plain() map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		if f, ok := v.Float(); ok {
			out[k] = f
		} else {
			out[k] = v.String()
		}
	}
	return out
}

// cloneRows copies a row slice and every row in it.
func cloneRows(rows []Row) []Row {
	if rows == nil {
		return nil
	}
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}

// FieldType represents the expected data type for a column.
type FieldType int

const (
	FieldText FieldType = iota
	FieldNumeric
)

// FieldSpec defines the rules for a single known column.
type FieldSpec struct {
	Name     string    // Column header name (must match CSV exactly)
	Type     FieldType // Expected data type
	Required bool      // Column must exist in an imported CSV header
}

// Schema lists the built-in columns. Columns added at runtime are text.
type Schema struct {
	Fields []FieldSpec
}

// DefaultSchema is the table's built-in column layout.
var DefaultSchema = Schema{
	Fields: []FieldSpec{
		{Name: IDColumn, Type: FieldText, Required: true},
		{Name: "name", Type: FieldText, Required: true},
		{Name: "email", Type: FieldText, Required: true},
		{Name: "age", Type: FieldNumeric, Required: true},
		{Name: "role", Type: FieldText, Required: true},
	},
}

// Columns returns the names of all schema fields in order.
func (s Schema) Columns() []string {
	cols := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		cols[i] = f.Name
	}
	return cols
}

// RequiredColumns returns the names an imported CSV header must contain.
func (s Schema) RequiredColumns() []string {
	var cols []string
	for _, f := range s.Fields {
		if f.Required {
			cols = append(cols, f.Name)
		}
	}
	return cols
}

// IsNumeric reports whether col is declared numeric.
func (s Schema) IsNumeric(col string) bool {
	for _, f := range s.Fields {
		if f.Name == col {
			return f.Type == FieldNumeric
		}
	}
	return false
}

// ThemeMode is the UI color mode.
type ThemeMode string

const (
	ThemeLight ThemeMode = "light"
	ThemeDark  ThemeMode = "dark"
)

// Toggle returns the opposite mode. Unknown modes toggle to dark.
func (m ThemeMode) Toggle() ThemeMode {
	if m == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// Normalize maps unknown values to light.
func (m ThemeMode) Normalize() ThemeMode {
	if m == ThemeDark {
		return ThemeDark
	}
	return ThemeLight
}

// SnapshotVersion is the current persisted state format.
const SnapshotVersion = 1

// Snapshot is the complete persisted application state.
type Snapshot struct {
	Version int       `json:"version"`
	Table   Table     `json:"table"`
	Theme   ThemeMode `json:"theme"`
}
