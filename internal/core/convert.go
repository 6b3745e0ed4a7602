package core

// convert.go turns user-typed cell text into stored values.

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// numericRegex validates that a string is a plain decimal number.
// Matches integers, decimals, and scientific notation; rejects NaN and Inf.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// ParseNumber parses s (after trimming) as a decimal number.
func ParseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if !numericRegex.MatchString(s) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	return f, nil
}

// ConvertField converts typed text for col. Numeric columns must parse;
// everything else is stored as text unchanged.
func ConvertField(schema Schema, col, raw string) (Value, error) {
	if !schema.IsNumeric(col) {
		return Text(raw), nil
	}
	f, err := ParseNumber(raw)
	if err != nil {
		return Value{}, err
	}
	return Number(f), nil
}

// previewField is ConvertField for display: values that do not parse are
// shown as typed.
func previewField(schema Schema, col, raw string) Value {
	v, err := ConvertField(schema, col, raw)
	if err != nil {
		return Text(raw)
	}
	return v
}

// ColumnLabel returns the header label for a column name: "email" -> "Email".
// A Caser is stateful, so one is built per call.
func ColumnLabel(col string) string {
	return cases.Title(language.Und, cases.NoLower).String(col)
}
