// Package core holds the table state and every operation on it.
//
// Nothing here knows about HTTP or the command line; web handlers, the CLI
// and tests all drive the same [Service].
//
// # State
//
// A [Table] is an ordered list of [Row] values plus two column lists:
// AllColumns (every known column) and VisibleColumns (the displayed subset).
// The "id" column is always present in both and every row carries a unique,
// non-empty id.
//
// # Row identity
//
// [Reconcile] assigns ids on bulk load and [ReconcileInto] on insertion. A
// declared id is trimmed; if it is blank or already used a fresh token from
// the [IDGenerator] replaces it. Every other field is copied unchanged.
//
// # Edits
//
// Typed edits are staged in an [Overlay] and merged over the committed rows
// for display. Saving validates every staged value first (numeric columns
// must parse) and commits all of them or none.
//
// # Import and export
//
//	id,name,email,age,role
//	1,Ada,ada@example.com,36,admin
//
// [ParseCSV] requires the built-in columns in the header, keeps cells as
// raw text and strips a UTF-8 byte order mark. [WriteCSV] writes the visible
// columns with every value quoted.
//
// # Error handling
//
// Technical errors map to user messages with support codes via [MapError]:
//
//   - VAL002-VAL007: value and column-name validation
//   - FILE001-FILE005: import file problems
//   - ROW001-ROW003, COL001-COL003: row and column operations
//   - IMP001, STO001: import limit and storage failures
package core
