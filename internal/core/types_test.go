package core

import (
	"encoding/json"
	"testing"
)

func TestValue_String(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Text("Ada"), "Ada"},
		{Number(30), "30"},
		{Number(41.5), "41.5"},
		{Number(-0.25), "-0.25"},
		{Value{}, ""},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestValue_JSON(t *testing.T) {
	row := Row{"id": Text("1"), "age": Number(36), "note": Text("36")}
	data, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"age":36,"id":"1","note":"36"}` {
		t.Errorf("json = %s", data)
	}

	var back Row
	if err := json.Unmarshal([]byte(`{"id":"1","age":36,"note":"36","gone":null}`), &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back["age"].IsNumber() || back["note"].IsNumber() {
		t.Errorf("types not preserved: age=%v note=%v", back["age"].IsNumber(), back["note"].IsNumber())
	}
	if back["gone"].String() != "" {
		t.Errorf("null should decode to empty text, got %q", back["gone"].String())
	}

	if err := json.Unmarshal([]byte(`{"id":true}`), &back); err == nil {
		t.Error("expected error for boolean cell")
	}
}

func TestRow_Plain(t *testing.T) {
	p := Row{"id": Text("1"), "age": Number(2)}.Plain()
	if p["id"] != "1" || p["age"] != float64(2) {
		t.Errorf("Plain() = %#v", p)
	}
}

func TestThemeMode(t *testing.T) {
	if ThemeLight.Toggle() != ThemeDark || ThemeDark.Toggle() != ThemeLight {
		t.Error("Toggle should flip light and dark")
	}
	if ThemeMode("").Normalize() != ThemeLight || ThemeMode("blue").Normalize() != ThemeLight {
		t.Error("unknown modes should normalize to light")
	}
}

func TestSchema(t *testing.T) {
	if !DefaultSchema.IsNumeric("age") || DefaultSchema.IsNumeric("name") || DefaultSchema.IsNumeric("custom") {
		t.Error("only age is numeric")
	}
	if got := len(DefaultSchema.RequiredColumns()); got != 5 {
		t.Errorf("required columns = %d, want 5", got)
	}
}
