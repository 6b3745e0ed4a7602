package core

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestNewImportReader(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "file with BOM",
			input:    append([]byte{0xEF, 0xBB, 0xBF}, []byte("id,name")...),
			expected: "id,name",
		},
		{
			name:     "file without BOM",
			input:    []byte("id,name"),
			expected: "id,name",
		},
		{
			name:     "empty file",
			input:    []byte{},
			expected: "",
		},
		{
			name:     "only BOM",
			input:    []byte{0xEF, 0xBB, 0xBF},
			expected: "",
		},
		{
			name:     "multibyte text kept",
			input:    []byte("Zoë,Müller"),
			expected: "Zoë,Müller",
		},
		{
			name:     "invalid byte replaced",
			input:    []byte{'a', 0x80, 'b'},
			expected: "a�b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := io.ReadAll(NewImportReader(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
		})
	}
}

func TestCountingReader(t *testing.T) {
	cr := NewCountingReader(strings.NewReader("hello, world"))
	if _, err := io.ReadAll(cr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cr.BytesRead(); got != 12 {
		t.Errorf("BytesRead() = %d, want 12", got)
	}
}

func TestContextReader_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := io.ReadAll(contextReader{ctx: ctx, r: strings.NewReader("data")})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
