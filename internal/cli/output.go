package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/goccy/go-yaml"
	"github.com/olekukonko/tablewriter"

	"github.com/JonMunkholm/DataTable/internal/core"
)

// Format selects how command results are printed.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

func parseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (use table, json or yaml)", core.ErrInvalidRequest, s)
	}
}

// output encodes data in format. Table output falls back to JSON for data
// that has no tabular form.
func output(w io.Writer, format Format, data any) error {
	switch format {
	case FormatYAML:
		b, err := yaml.MarshalWithOptions(data, yaml.Indent(2), yaml.IndentSequence(false))
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	case FormatTable:
		if t, ok := data.(tableData); ok {
			return renderTable(w, t)
		}
		fallthrough
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
}

// tableData is a result with a tabular rendering.
type tableData struct {
	Headers []string
	Rows    [][]string
	Footer  string
}

func renderTable(w io.Writer, data tableData) error {
	table := tablewriter.NewTable(w)

	headers := make([]any, len(data.Headers))
	for i, h := range data.Headers {
		headers[i] = h
	}
	table.Header(headers...)

	for _, row := range data.Rows {
		cells := make([]any, len(row))
		for i, cell := range row {
			cells[i] = cell
		}
		if err := table.Append(cells...); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	if data.Footer != "" {
		fmt.Fprintln(w, data.Footer)
	}
	return nil
}

// plainRows converts rows for the JSON and YAML encoders.
func plainRows(rows []core.Row) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, r := range rows {
		out[i] = r.Plain()
	}
	return out
}

var (
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed, color.Bold)
)

func success(w io.Writer, format string, args ...any) {
	successColor.Fprintf(w, format+"\n", args...)
}

// PrintError writes err as the user-facing alert with its support code.
// Errors without a mapped message are printed as they are.
func PrintError(w io.Writer, err error) {
	errorColor.Fprint(w, "Error: ")
	if core.IsUserFacing(err) {
		fmt.Fprintln(w, core.FormatUserError(err))
		return
	}
	fmt.Fprintln(w, err)
}
