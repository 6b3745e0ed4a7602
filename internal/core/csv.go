package core

// csv.go converts between CSV text and table rows.
//
// Import keeps every cell as the raw string from the file; only row ids are
// reconciled afterwards. Export writes the visible columns with every value
// quoted so that commas and quotes inside cells survive a round trip.

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

// Export file metadata.
const (
	ExportFileName    = "table_data.csv"
	ExportContentType = "text/csv;charset=utf-8"
)

// ImportSuccessMessage is shown after a successful import.
const ImportSuccessMessage = "CSV imported successfully!"

// ParsedCSV is a tokenized import: the trimmed header and one row per record.
type ParsedCSV struct {
	Header []string
	Rows   []Row
}

// ParseCSV reads a CSV document whose header must contain every required
// column of schema. maxSize limits the bytes read (0 means unlimited).
//
// Empty lines are skipped and stray quotes are tolerated. A record shorter
// than the header lacks the trailing fields; cells past the header are
// dropped. Ids are not reconciled here.
func ParseCSV(ctx context.Context, r io.Reader, schema Schema, maxSize int64) (*ParsedCSV, error) {
	if maxSize > 0 {
		r = io.LimitReader(r, maxSize+1)
	}
	counter := NewCountingReader(r)
	tooLarge := func() bool { return maxSize > 0 && counter.BytesRead() > maxSize }

	cr := csv.NewReader(NewImportReader(contextReader{ctx: ctx, r: counter}))
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	first, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, readError(err, tooLarge())
	}

	header, err := parseHeader(first, schema)
	if err != nil {
		if tooLarge() {
			return nil, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, maxSize)
		}
		return nil, err
	}

	rows := []Row{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, readError(err, tooLarge())
		}
		row := make(Row, len(header))
		for i, col := range header {
			if i >= len(rec) {
				break
			}
			if col != "" {
				row[col] = Text(rec[i])
			}
		}
		rows = append(rows, row)
	}
	if tooLarge() {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, maxSize)
	}

	return &ParsedCSV{Header: header, Rows: rows}, nil
}

// parseHeader trims the header names, rejects duplicates, and checks the
// required columns are present.
func parseHeader(raw []string, schema Schema) ([]string, error) {
	header := make([]string, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(h)
		if h != "" && slices.Contains(header[:i], h) {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrInvalidCSV, h)
		}
		header[i] = h
	}

	required := schema.RequiredColumns()
	var missing []string
	for _, col := range required {
		if !slices.Contains(header, col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Missing: missing, Required: required}
	}
	return header, nil
}

func readError(err error, tooLarge bool) error {
	if tooLarge {
		return ErrFileTooLarge
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return fmt.Errorf("%w: line %d: %v", ErrInvalidCSV, pe.Line, pe.Err)
	}
	return fmt.Errorf("%w: %v", ErrInvalidCSV, err)
}

// WriteCSV writes columns as the header line followed by one line per row.
// Every value is double-quoted with embedded quotes doubled; lines are
// separated by "\n" with no trailing newline. A "\r\n" inside a cell is
// written as is, but encoding/csv folds it to "\n" when the file is
// imported again.
func WriteCSV(w io.Writer, columns []string, rows []Row) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(strings.Join(columns, ","))
	for _, row := range rows {
		bw.WriteByte('\n')
		for i, col := range columns {
			if i > 0 {
				bw.WriteByte(',')
			}
			bw.WriteString(quoteCell(row.Get(col).String()))
		}
	}
	return bw.Flush()
}

// ExportCSV returns the WriteCSV output as a string.
func ExportCSV(columns []string, rows []Row) string {
	var sb strings.Builder
	WriteCSV(&sb, columns, rows)
	return sb.String()
}

func quoteCell(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
