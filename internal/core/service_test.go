package core

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"
)

// memPersister keeps the last snapshot and can be told to fail.
type memPersister struct {
	mu    sync.Mutex
	snap  *Snapshot
	fail  error
	saves int
}

func (p *memPersister) Persist(_ context.Context, snap Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.snap = &snap
	p.saves++
	return nil
}

func (p *memPersister) Rehydrate(context.Context) (Snapshot, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.snap == nil {
		return Snapshot{}, false, nil
	}
	return *p.snap, true, nil
}

const sampleCSV = "id,name,email,age,role\n" +
	"1,Ada,ada@example.com,36,admin\n" +
	"1,Bob,bob@example.com,41,user\n" +
	",Cy,cy@example.com,29,user\n"

func newTestService(t *testing.T, p Persister) *Service {
	t.Helper()
	svc, err := NewService(context.Background(), Options{Persister: p, IDGenerator: seqGen()})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func importSample(t *testing.T, svc *Service) *ImportResult {
	t.Helper()
	res, err := svc.Import(context.Background(), "sample.csv", strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	return res
}

func TestService_InitialState(t *testing.T) {
	svc := newTestService(t, nil)
	st := svc.State()

	if len(st.Table.Data) != 0 || st.Theme != ThemeLight {
		t.Errorf("initial state = %+v", st)
	}
	if !slices.Equal(st.Table.VisibleColumns, DefaultSchema.Columns()) {
		t.Errorf("visible = %v", st.Table.VisibleColumns)
	}
}

func TestService_Import(t *testing.T) {
	svc := newTestService(t, nil)
	res := importSample(t, svc)

	if res.Rows != 3 || res.Message != "CSV imported successfully!" {
		t.Errorf("result = %+v", res)
	}
	if res.Reassigned != 2 {
		t.Errorf("reassigned = %d, want 2", res.Reassigned)
	}
	if got := idsOf(svc.State().Table.Data); !slices.Equal(got, []string{"1", "gen-1", "gen-2"}) {
		t.Errorf("ids = %v", got)
	}
}

func TestService_ImportRejectedKeepsState(t *testing.T) {
	svc := newTestService(t, nil)
	importSample(t, svc)

	_, err := svc.Import(context.Background(), "bad.csv", strings.NewReader("name,email\nx,y\n"))
	if !errors.Is(err, ErrMissingColumns) {
		t.Fatalf("err = %v, want ErrMissingColumns", err)
	}
	if len(svc.State().Table.Data) != 3 {
		t.Error("rejected import changed the data")
	}
}

func TestService_ImportLearnsColumnsAndClearsOverlay(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	importSample(t, svc)
	if err := svc.StageEdit(ctx, "1", map[string]string{"name": "x"}); err != nil {
		t.Fatalf("StageEdit: %v", err)
	}

	res, err := svc.Import(ctx, "more.csv", strings.NewReader("id,name,email,age,role,dept\n5,E,e@x,1,u,ops\n"))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if !slices.Equal(res.NewColumns, []string{"dept"}) {
		t.Errorf("new columns = %v", res.NewColumns)
	}
	st := svc.State()
	if !slices.Contains(st.Table.AllColumns, "dept") || slices.Contains(st.Table.VisibleColumns, "dept") {
		t.Errorf("dept should be known and hidden: all=%v visible=%v", st.Table.AllColumns, st.Table.VisibleColumns)
	}
	if len(svc.Overlay()) != 0 {
		t.Error("import should discard pending edits")
	}
}

func TestService_ImportNilReader(t *testing.T) {
	svc := newTestService(t, nil)
	if _, err := svc.Import(context.Background(), "", nil); !errors.Is(err, ErrNoFile) {
		t.Errorf("err = %v, want ErrNoFile", err)
	}
}

func TestService_ImportTooLarge(t *testing.T) {
	svc, err := NewService(context.Background(), Options{MaxImportSize: 16})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Import(context.Background(), "big.csv", strings.NewReader(sampleCSV)); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("err = %v, want ErrFileTooLarge", err)
	}
}

func TestService_ExportVisibleCommittedOnly(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	importSample(t, svc)

	if err := svc.HideColumn(ctx, "email"); err != nil {
		t.Fatal(err)
	}
	if err := svc.StageEdit(ctx, "1", map[string]string{"name": "pending"}); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := svc.Export(&buf); err != nil {
		t.Fatalf("Export: %v", err)
	}
	lines := strings.Split(buf.String(), "\n")
	if lines[0] != "id,name,age,role" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != `"1","Ada","36","admin"` {
		t.Errorf("first row = %q", lines[1])
	}
}

func TestService_ExportHiddenRequiredColumnNotReimportable(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	importSample(t, svc)

	if err := svc.HideColumn(ctx, "email"); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := svc.Export(&buf); err != nil {
		t.Fatalf("Export: %v", err)
	}

	_, err := svc.Import(ctx, "export.csv", &buf)
	var missing *MissingColumnsError
	if !errors.As(err, &missing) || !slices.Equal(missing.Missing, []string{"email"}) {
		t.Fatalf("err = %v, want missing email", err)
	}
	if len(svc.State().Table.Data) != 3 {
		t.Error("rejected import changed the table")
	}
}

func TestService_MergedRow(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	importSample(t, svc)

	if err := svc.StageEdit(ctx, "1", map[string]string{"name": "Ada L."}); err != nil {
		t.Fatal(err)
	}
	row, ok := svc.MergedRow("1")
	if !ok || row["name"].String() != "Ada L." || row["email"].String() != "ada@example.com" {
		t.Errorf("MergedRow = %v, %v", row, ok)
	}
	if _, ok := svc.MergedRow("missing"); ok {
		t.Error("MergedRow found an unknown id")
	}
}

func TestService_EditSave(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	importSample(t, svc)

	if err := svc.StageEdit(ctx, "1", map[string]string{"age": "37", "name": "Ada L."}); err != nil {
		t.Fatal(err)
	}

	view := svc.View(1, 10)
	if !view.IsPending("1") || view.Rows[0]["name"].String() != "Ada L." {
		t.Errorf("view should show merged pending edit: %+v", view.Rows[0])
	}
	if svc.State().Table.Data[0]["name"].String() != "Ada" {
		t.Error("staging must not change committed rows")
	}

	row, err := svc.SaveRow(ctx, "1")
	if err != nil {
		t.Fatalf("SaveRow: %v", err)
	}
	if f, ok := row["age"].Float(); !ok || f != 37 {
		t.Errorf("age = %v, want number 37", row["age"])
	}
	if len(svc.Overlay()) != 0 {
		t.Error("overlay not cleared after save")
	}
}

func TestService_EditInvalidNumber(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	importSample(t, svc)

	svc.StageEdit(ctx, "1", map[string]string{"age": "old"})
	_, err := svc.SaveEdits(ctx)
	if MapError(err).Message != "Age must be a valid number" {
		t.Errorf("err = %v", err)
	}
	if _, ok := svc.Overlay()["1"]; !ok {
		t.Error("overlay should be retained after failed save")
	}
	if svc.State().Table.Data[0]["age"].String() != "36" {
		t.Error("failed save changed committed data")
	}

	svc.CancelRow(ctx, "1")
	if len(svc.Overlay()) != 0 {
		t.Error("CancelRow should discard the edit")
	}
}

func TestService_StageEditAllOrNothing(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	importSample(t, svc)

	err := svc.StageEdit(ctx, "1", map[string]string{"name": "x", "id": "2"})
	if !errors.Is(err, ErrIDReadOnly) {
		t.Fatalf("err = %v, want ErrIDReadOnly", err)
	}
	if len(svc.Overlay()) != 0 {
		t.Error("partial edit staged")
	}
}

func TestService_AddAndDeleteRow(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	importSample(t, svc)

	row, err := svc.AddRow(ctx, map[string]string{"id": "1", "name": "Dee", "age": "50"})
	if err != nil {
		t.Fatalf("AddRow: %v", err)
	}
	if row.ID() == "1" || row.ID() == "" {
		t.Errorf("duplicate id kept: %q", row.ID())
	}
	if !row["age"].IsNumber() {
		t.Error("numeric field not converted")
	}

	if _, err := svc.AddRow(ctx, map[string]string{"age": "fifty"}); !errors.Is(err, ErrInvalidNumber) {
		t.Errorf("err = %v, want ErrInvalidNumber", err)
	}
	if _, err := svc.AddRow(ctx, map[string]string{"salary": "1"}); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("err = %v, want ErrUnknownColumn", err)
	}

	svc.StageEdit(ctx, row.ID(), map[string]string{"name": "x"})
	if err := svc.DeleteRow(ctx, row.ID()); err != nil {
		t.Fatalf("DeleteRow: %v", err)
	}
	if len(svc.Overlay()) != 0 {
		t.Error("deleting a row should drop its pending edits")
	}
	if err := svc.DeleteRow(ctx, row.ID()); !errors.Is(err, ErrRowNotFound) {
		t.Errorf("err = %v, want ErrRowNotFound", err)
	}
}

func TestService_Columns(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	name, err := svc.AddColumn(ctx, " dept ", false)
	if err != nil || name != "dept" {
		t.Fatalf("AddColumn = %q, %v", name, err)
	}
	shown, err := svc.ToggleColumn(ctx, "dept")
	if err != nil || !shown {
		t.Fatalf("ToggleColumn = %v, %v", shown, err)
	}
	visible, err := svc.SetVisibleColumns(ctx, []string{"dept", "name"})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(visible, []string{"id", "dept", "name"}) {
		t.Errorf("visible = %v", visible)
	}
	if err := svc.HideColumn(ctx, IDColumn); !errors.Is(err, ErrIDColumnRequired) {
		t.Errorf("err = %v, want ErrIDColumnRequired", err)
	}
}

func TestService_PersistsAndRehydrates(t *testing.T) {
	p := &memPersister{}
	svc := newTestService(t, p)
	ctx := context.Background()
	importSample(t, svc)
	svc.AddColumn(ctx, "dept", true)
	svc.ToggleTheme(ctx)
	svc.StageEdit(ctx, "1", map[string]string{"name": "unsaved"})

	again := newTestService(t, p)
	st := again.State()
	if len(st.Table.Data) != 3 || st.Theme != ThemeDark {
		t.Errorf("rehydrated state = %+v", st)
	}
	if !slices.Contains(st.Table.VisibleColumns, "dept") {
		t.Error("custom column not rehydrated")
	}
	if len(again.Overlay()) != 0 {
		t.Error("pending edits must not be persisted")
	}
}

func TestService_PersistFailureLeavesStateUnchanged(t *testing.T) {
	p := &memPersister{}
	svc := newTestService(t, p)
	ctx := context.Background()
	importSample(t, svc)

	p.fail = errors.New("disk full")
	err := svc.DeleteRow(ctx, "1")
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("err = %v, want ErrStorage", err)
	}
	if len(svc.State().Table.Data) != 3 {
		t.Error("failed persist changed state")
	}
}

func TestService_Reset(t *testing.T) {
	p := &memPersister{}
	svc := newTestService(t, p)
	ctx := context.Background()
	importSample(t, svc)
	svc.AddColumn(ctx, "dept", true)

	if err := svc.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	st := svc.State()
	if len(st.Table.Data) != 0 || !slices.Equal(st.Table.AllColumns, DefaultSchema.Columns()) {
		t.Errorf("reset state = %+v", st)
	}
}

func TestService_ImportBusy(t *testing.T) {
	svc, err := NewService(context.Background(), Options{ImportConcurrency: 1, ImportWait: 10 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	svc.Limiter().TryAcquire()
	defer svc.Limiter().Release()

	if _, err := svc.Import(context.Background(), "x.csv", strings.NewReader(sampleCSV)); !errors.Is(err, ErrTooManyImports) {
		t.Errorf("err = %v, want ErrTooManyImports", err)
	}
}

func TestService_ViewPagination(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	for range 12 {
		if _, err := svc.AddRow(ctx, map[string]string{"name": "n"}); err != nil {
			t.Fatal(err)
		}
	}
	view := svc.View(2, 0)
	if view.TotalRows != 12 || view.TotalPages != 2 || len(view.Rows) != 2 {
		t.Errorf("view = page %d of %d, %d rows", view.Page, view.TotalPages, len(view.Rows))
	}
}
