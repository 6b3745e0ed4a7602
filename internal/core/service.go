package core

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/JonMunkholm/DataTable/internal/logging"
)

// DefaultImportTimeout bounds a single import when none is configured.
const DefaultImportTimeout = time.Minute

// Persister saves and restores the application snapshot.
type Persister interface {
	Persist(ctx context.Context, snap Snapshot) error
	// Rehydrate returns false when nothing has been persisted yet.
	Rehydrate(ctx context.Context) (Snapshot, bool, error)
}

// Options configures a Service. Zero values select defaults.
type Options struct {
	Persister         Persister // nil keeps state in memory only
	Schema            Schema    // zero value means DefaultSchema
	IDGenerator       IDGenerator
	MaxImportSize     int64
	ImportConcurrency int
	ImportWait        time.Duration
	ImportTimeout     time.Duration
	PageSize          int
}

// Service owns the table, the edit overlay and the theme mode. Each method
// is one state transition: it runs on a copy of the current state, persists
// the copy, and only then makes it current. A failed transition leaves the
// state untouched.
type Service struct {
	persister Persister
	schema    Schema
	newID     IDGenerator
	limiter   *ImportLimiter
	maxImport int64
	timeout   time.Duration
	pageSize  int

	mu  sync.RWMutex
	cur state
}

// state is everything a transition may change. The overlay is session
// state and is never persisted.
type state struct {
	table   *Table
	overlay *Overlay
	theme   ThemeMode
}

func (st state) clone() state {
	return state{table: st.table.Clone(), overlay: st.overlay.Clone(), theme: st.theme}
}

func (st state) snapshot() Snapshot {
	t := st.table.Clone()
	return Snapshot{Version: SnapshotVersion, Table: *t, Theme: st.theme}
}

// NewService creates a Service and rehydrates persisted state, if any.
func NewService(ctx context.Context, opts Options) (*Service, error) {
	if len(opts.Schema.Fields) == 0 {
		opts.Schema = DefaultSchema
	}
	if opts.IDGenerator == nil {
		opts.IDGenerator = NewID
	}
	if opts.ImportTimeout <= 0 {
		opts.ImportTimeout = DefaultImportTimeout
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}

	s := &Service{
		persister: opts.Persister,
		schema:    opts.Schema,
		newID:     opts.IDGenerator,
		limiter:   NewImportLimiter(opts.ImportConcurrency, opts.ImportWait),
		maxImport: opts.MaxImportSize,
		timeout:   opts.ImportTimeout,
		pageSize:  opts.PageSize,
		cur: state{
			table:   NewTable(opts.Schema, opts.IDGenerator),
			overlay: NewOverlay(),
			theme:   ThemeLight,
		},
	}

	if s.persister == nil {
		return s, nil
	}
	snap, ok, err := s.persister.Rehydrate(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: rehydrate: %v", ErrStorage, err)
	}
	if ok {
		t := snap.Table
		t.SetGenerator(s.newID)
		t.Normalize(s.schema)
		s.cur.table = &t
		s.cur.theme = snap.Theme.Normalize()
		logging.FromContext(ctx).Info("state rehydrated",
			"rows", len(t.Data),
			"columns", len(t.AllColumns),
		)
	}
	return s, nil
}

// Schema returns the built-in column layout.
func (s *Service) Schema() Schema {
	return s.schema
}

// PageSize returns the configured default page size.
func (s *Service) PageSize() int {
	return s.pageSize
}

// Limiter exposes the import limiter for shutdown draining.
func (s *Service) Limiter() *ImportLimiter {
	return s.limiter
}

// State returns a copy of the committed state.
func (s *Service) State() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.snapshot()
}

// Theme returns the current theme mode.
func (s *Service) Theme() ThemeMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.theme
}

// TableView is one rendered page of the grid: committed rows with pending
// edits merged in.
type TableView struct {
	Rows           []Row                        `json:"rows"`
	VisibleColumns []string                     `json:"visibleColumns"`
	AllColumns     []string                     `json:"allColumns"`
	Pending        map[string]map[string]string `json:"pending"`
	Theme          ThemeMode                    `json:"theme"`
	PageInfo
}

// IsPending reports whether the row has uncommitted edits.
func (v TableView) IsPending(rowID string) bool {
	_, ok := v.Pending[rowID]
	return ok
}

// View returns the requested page. size <= 0 uses the configured page size.
func (s *Service) View(page, size int) TableView {
	if size <= 0 {
		size = s.pageSize
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	merged := s.cur.overlay.Apply(s.cur.table.Data, s.schema)
	rows, info := Paginate(merged, page, size)
	return TableView{
		Rows:           rows,
		VisibleColumns: slices.Clone(s.cur.table.VisibleColumns),
		AllColumns:     slices.Clone(s.cur.table.AllColumns),
		Pending:        s.cur.overlay.All(),
		Theme:          s.cur.theme,
		PageInfo:       info,
	}
}

// MergedRow returns the row with its pending edits applied, as the grid
// shows it.
func (s *Service) MergedRow(id string) (Row, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.cur.table.Row(id)
	if !ok {
		return nil, false
	}
	return s.cur.overlay.Apply([]Row{row}, s.schema)[0], true
}

// Overlay returns a copy of every pending edit.
func (s *Service) Overlay() map[string]map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.overlay.All()
}

// ImportResult summarizes a completed import.
type ImportResult struct {
	FileName   string   `json:"fileName"`
	Rows       int      `json:"rows"`
	Header     []string `json:"header"`
	NewColumns []string `json:"newColumns,omitempty"`
	Reassigned int      `json:"reassignedIds"`
	Message    string   `json:"message"`
	DurationMs int64    `json:"durationMs"`
}

// Import replaces the data set with the rows of a CSV document. The header
// must contain every required column. Header columns not yet known become
// hidden columns. Pending edits are discarded.
func (s *Service) Import(ctx context.Context, name string, r io.Reader) (*ImportResult, error) {
	if r == nil {
		return nil, ErrNoFile
	}
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	log := logging.WithFields(ctx,
		"file", name,
		"source", SourceFromContext(ctx),
		"client_ip", ClientIPFromContext(ctx),
	)

	parsed, err := ParseCSV(ctx, r, s.schema, s.maxImport)
	if err != nil {
		log.Warn("import rejected", "error", err)
		return nil, err
	}

	result := &ImportResult{
		FileName: name,
		Rows:     len(parsed.Rows),
		Header:   parsed.Header,
		Message:  ImportSuccessMessage,
	}
	err = s.transition(ctx, func(st *state) error {
		st.table.SetData(parsed.Rows)
		result.NewColumns = st.table.LearnColumns(parsed.Header)
		result.Reassigned = countReassigned(parsed.Rows, st.table.Data)
		st.overlay.Discard()
		return nil
	})
	if err != nil {
		log.Error("import failed", "error", err)
		return nil, err
	}

	result.DurationMs = time.Since(start).Milliseconds()
	log.Info("import complete",
		"rows", result.Rows,
		"new_columns", len(result.NewColumns),
		"reassigned_ids", result.Reassigned,
		"duration_ms", result.DurationMs,
	)
	return result, nil
}

// countReassigned counts rows whose stored id differs from the declared one.
// stored is the reconciled form of declared, index for index.
func countReassigned(declared, stored []Row) int {
	n := 0
	for i := range min(len(declared), len(stored)) {
		if declared[i][IDColumn].String() != stored[i].ID() {
			n++
		}
	}
	return n
}

// Export writes the committed rows restricted to the visible columns.
// Pending edits are not included.
func (s *Service) Export(w io.Writer) error {
	s.mu.RLock()
	cols := slices.Clone(s.cur.table.VisibleColumns)
	rows := cloneRows(s.cur.table.Data)
	s.mu.RUnlock()
	return WriteCSV(w, cols, rows)
}

// SetVisibleColumns replaces the displayed column list.
func (s *Service) SetVisibleColumns(ctx context.Context, cols []string) ([]string, error) {
	var visible []string
	err := s.transition(ctx, func(st *state) error {
		if err := st.table.SetVisibleColumns(cols); err != nil {
			return err
		}
		visible = slices.Clone(st.table.VisibleColumns)
		return nil
	})
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("visible columns set", "columns", visible)
	return visible, nil
}

// ToggleColumn flips the visibility of col and returns whether it is shown.
func (s *Service) ToggleColumn(ctx context.Context, col string) (bool, error) {
	var shown bool
	err := s.transition(ctx, func(st *state) error {
		var err error
		shown, err = st.table.ToggleColumn(col)
		return err
	})
	if err != nil {
		return false, err
	}
	logging.FromContext(ctx).Info("column toggled", "column", col, "visible", shown)
	return shown, nil
}

// ShowColumn makes col visible.
func (s *Service) ShowColumn(ctx context.Context, col string) error {
	return s.transition(ctx, func(st *state) error {
		return st.table.ShowColumn(col)
	})
}

// HideColumn hides col. The id column cannot be hidden.
func (s *Service) HideColumn(ctx context.Context, col string) error {
	return s.transition(ctx, func(st *state) error {
		return st.table.HideColumn(col)
	})
}

// AddColumn registers a custom text column and returns its trimmed name.
func (s *Service) AddColumn(ctx context.Context, name string, show bool) (string, error) {
	var added string
	err := s.transition(ctx, func(st *state) error {
		var err error
		added, err = st.table.AddColumn(name, show)
		return err
	})
	if err != nil {
		return "", err
	}
	logging.FromContext(ctx).Info("column added", "column", added, "visible", show)
	return added, nil
}

// AddRow appends a row built from typed field values. Every field must be
// a known column; non-empty numeric fields must parse. A missing, blank or
// taken id is replaced with a fresh one.
func (s *Service) AddRow(ctx context.Context, fields map[string]string) (Row, error) {
	var added Row
	err := s.transition(ctx, func(st *state) error {
		row := make(Row, len(fields))
		for _, col := range sortedKeys(fields) {
			raw := fields[col]
			if !st.table.HasColumn(col) {
				return fmt.Errorf("%w: %q", ErrUnknownColumn, col)
			}
			if col == IDColumn || raw == "" {
				row[col] = Text(raw)
				continue
			}
			v, err := ConvertField(s.schema, col, raw)
			if err != nil {
				return &FieldError{Field: col, Value: raw, Err: err}
			}
			row[col] = v
		}
		added = st.table.AddRow(row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("row added", "row_id", added.ID())
	return added, nil
}

// DeleteRow removes a row and any pending edits for it.
func (s *Service) DeleteRow(ctx context.Context, id string) error {
	err := s.transition(ctx, func(st *state) error {
		if !st.table.DeleteRow(id) {
			return fmt.Errorf("%w: %q", ErrRowNotFound, id)
		}
		st.overlay.Discard(id)
		return nil
	})
	if err != nil {
		return err
	}
	logging.FromContext(ctx).Info("row deleted", "row_id", id)
	return nil
}

// StageEdit records pending edits for one row. Either every field is staged
// or none is.
func (s *Service) StageEdit(ctx context.Context, rowID string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cur.overlay.Clone()
	for _, f := range sortedKeys(fields) {
		if err := next.Stage(s.cur.table, rowID, f, fields[f]); err != nil {
			return err
		}
	}
	s.cur.overlay = next
	logging.FromContext(ctx).Debug("edit staged", "row_id", rowID, "fields", slices.Collect(maps.Keys(fields)))
	return nil
}

// SaveEdits commits every pending edit. If any numeric field does not parse
// nothing is committed and the overlay is kept.
func (s *Service) SaveEdits(ctx context.Context) ([]Row, error) {
	return s.save(ctx)
}

// SaveRow commits the pending edits of one row.
func (s *Service) SaveRow(ctx context.Context, rowID string) (Row, error) {
	rows, err := s.save(ctx, rowID)
	if err != nil {
		return nil, err
	}
	return rows[0], nil
}

func (s *Service) save(ctx context.Context, rowIDs ...string) ([]Row, error) {
	var saved []Row
	err := s.transition(ctx, func(st *state) error {
		var err error
		saved, err = st.overlay.Commit(st.table, s.schema, rowIDs...)
		return err
	})
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("edits saved", "rows", len(saved))
	return saved, nil
}

// CancelEdits discards every pending edit.
func (s *Service) CancelEdits(ctx context.Context) {
	s.mu.Lock()
	n := s.cur.overlay.Len()
	s.cur.overlay.Discard()
	s.mu.Unlock()
	logging.FromContext(ctx).Debug("edits cancelled", "rows", n)
}

// CancelRow discards the pending edits of one row.
func (s *Service) CancelRow(ctx context.Context, rowID string) {
	s.mu.Lock()
	s.cur.overlay.Discard(rowID)
	s.mu.Unlock()
	logging.FromContext(ctx).Debug("edits cancelled", "row_id", rowID)
}

// ToggleTheme flips between light and dark and returns the new mode.
func (s *Service) ToggleTheme(ctx context.Context) (ThemeMode, error) {
	var mode ThemeMode
	err := s.transition(ctx, func(st *state) error {
		st.theme = st.theme.Toggle()
		mode = st.theme
		return nil
	})
	return mode, err
}

// Reset restores the initial table: no rows and the built-in columns. The
// theme is kept.
func (s *Service) Reset(ctx context.Context) error {
	err := s.transition(ctx, func(st *state) error {
		st.table = NewTable(s.schema, s.newID)
		st.overlay = NewOverlay()
		return nil
	})
	if err != nil {
		return err
	}
	logging.FromContext(ctx).Warn("table reset",
		"source", SourceFromContext(ctx),
		"client_ip", ClientIPFromContext(ctx),
	)
	return nil
}

// transition applies fn to a copy of the state, persists the result, and
// installs it. Errors from fn or from persistence leave the state as it was.
func (s *Service) transition(ctx context.Context, fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cur.clone()
	if err := fn(&next); err != nil {
		return err
	}
	next.overlay.Prune(next.table)

	if s.persister != nil {
		if err := s.persister.Persist(ctx, next.snapshot()); err != nil {
			logging.FromContext(ctx).Error("persist failed", "error", err)
			return fmt.Errorf("%w: %v", ErrStorage, err)
		}
	}
	s.cur = next
	return nil
}
