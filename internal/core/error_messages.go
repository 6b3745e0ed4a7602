package core

// error_messages.go maps technical errors to user-facing alerts with codes
// for support reference.
//
// Codes by category:
//
//	VAL002  Invalid number     a numeric field edit did not parse ("Age must be a valid number")
//	VAL004  Missing column     imported CSV lacks a required column
//	VAL007  Column name        a custom column name is blank or contains , " or a line break
//	FILE001 File too large     CSV exceeds IMPORT_MAX_FILE_SIZE
//	FILE002 Invalid CSV        the CSV could not be tokenized
//	FILE004 No file            the import request carried no file
//	FILE005 Empty file         the CSV has no header line
//	ROW001  Row not found      the row id does not exist
//	ROW002  Read-only id       an edit targeted the id column
//	ROW003  Nothing to save    save requested without pending edits
//	COL001  Unknown column     the column is not in the known column set
//	COL002  Duplicate column   a custom column already exists
//	COL003  Id column          the id column cannot be hidden
//	IMP001  Import busy        too many concurrent imports
//	STO001  Storage failure    the state could not be persisted or loaded
//	REQ001  Cancelled          the request was cancelled
//	REQ002  Timeout            the request timed out
//	REQ003  Bad request        the request body or parameters are malformed
//	RATE001 Rate limited       too many requests
//	ERR000  Unknown            fallback; check logs for the technical error
//
// Sentinel errors are matched with errors.Is first. Errors from other
// packages fall back to case-insensitive substring patterns; the first match
// wins, so specific patterns come before general ones.

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingColumns    = errors.New("missing required column")
	ErrEmptyFile         = errors.New("empty file")
	ErrInvalidCSV        = errors.New("invalid csv")
	ErrFileTooLarge      = errors.New("file too large")
	ErrNoFile            = errors.New("no file provided")
	ErrInvalidNumber     = errors.New("invalid number")
	ErrRowNotFound       = errors.New("row not found")
	ErrUnknownColumn     = errors.New("unknown column")
	ErrColumnExists      = errors.New("column already exists")
	ErrInvalidColumnName = errors.New("invalid column name")
	ErrIDColumnRequired  = errors.New("id column cannot be hidden")
	ErrIDReadOnly        = errors.New("id column is read-only")
	ErrNoPendingEdits    = errors.New("no pending edits")
	ErrStorage           = errors.New("storage failure")
	ErrInvalidRequest    = errors.New("invalid request")
)

// MissingColumnsError reports the required columns absent from a CSV header.
type MissingColumnsError struct {
	Missing  []string
	Required []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingColumns, strings.Join(e.Missing, ", "))
}

func (e *MissingColumnsError) Is(target error) bool {
	return target == ErrMissingColumns
}

// FieldError reports an invalid value for a single field of a row.
type FieldError struct {
	RowID string
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("row %s: %s %q: %v", e.RowID, e.Field, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// sentinelMessages is checked in order with errors.Is.
var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{ErrTooManyImports, UserMessage{"Another import is still running", "Please wait a moment and try again", "IMP001"}},
	{ErrFileTooLarge, UserMessage{"File exceeds the maximum import size", "Split the file into smaller files", "FILE001"}},
	{ErrNoFile, UserMessage{"No file was selected", "Please select a CSV file to import", "FILE004"}},
	{ErrEmptyFile, UserMessage{"The CSV file is empty", "Please import a CSV file with a header row", "FILE005"}},
	{ErrInvalidCSV, UserMessage{"Failed to parse CSV", "Ensure the file is comma-separated with one header row", "FILE002"}},
	{ErrInvalidNumber, UserMessage{"Value must be a valid number", "Enter digits only, for example 42 or 41.5", "VAL002"}},
	{ErrInvalidColumnName, UserMessage{"Invalid column name", "Use a non-empty name without commas, quotes or line breaks", "VAL007"}},
	{ErrRowNotFound, UserMessage{"Row not found", "Reload the table; the row may have been deleted", "ROW001"}},
	{ErrIDReadOnly, UserMessage{"The id column cannot be edited", "Edit the other fields of the row", "ROW002"}},
	{ErrNoPendingEdits, UserMessage{"There are no pending edits", "Edit a row before saving", "ROW003"}},
	{ErrIDColumnRequired, UserMessage{"The id column is always visible", "Choose a different column to hide", "COL003"}},
	{ErrColumnExists, UserMessage{"A column with this name already exists", "Choose a different column name", "COL002"}},
	{ErrUnknownColumn, UserMessage{"Unknown column", "Add the column first or pick an existing one", "COL001"}},
	{ErrStorage, UserMessage{"Could not save the table state", "Please try again; your last change was not applied", "STO001"}},
	{ErrInvalidRequest, UserMessage{"Invalid request", "Check the request body and parameters", "REQ003"}},
}

// errorPatterns maps technical error text (case-insensitive) to user messages
// for errors that are not core sentinels.
var errorPatterns = []struct {
	pattern string
	msg     UserMessage
}{
	{"request body too large", UserMessage{"File exceeds the maximum import size", "Split the file into smaller files", "FILE001"}},
	{"context canceled", UserMessage{"Request was cancelled", "Please try again", "REQ001"}},
	{"context deadline exceeded", UserMessage{"Request timed out", "Try a smaller file or try again later", "REQ002"}},
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Structured errors render with their details: a MissingColumnsError yields
// "Invalid CSV format" with the required column list, and a FieldError on a
// numeric field yields "Age must be a valid number".
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var missing *MissingColumnsError
	if errors.As(err, &missing) {
		return UserMessage{
			Message: "Invalid CSV format",
			Action:  "Required columns: " + strings.Join(missing.Required, ", "),
			Code:    "VAL004",
		}
	}

	var field *FieldError
	if errors.As(err, &field) && errors.Is(field.Err, ErrInvalidNumber) {
		return UserMessage{
			Message: ColumnLabel(field.Field) + " must be a valid number",
			Action:  "Enter digits only, for example 42 or 41.5",
			Code:    "VAL002",
		}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted alert string: "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
