package templates

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/DataTable/internal/core"
)

func render(t *testing.T, d PageData) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Page(d).Render(context.Background(), &buf))
	return buf.String()
}

func sampleView() core.TableView {
	return core.TableView{
		Rows: []core.Row{
			{"id": core.Text("1"), "name": core.Text("<b>Ada</b>"), "age": core.Number(36)},
		},
		VisibleColumns: []string{"id", "name", "age"},
		AllColumns:     []string{"id", "name", "email", "age"},
		Pending:        map[string]map[string]string{},
		Theme:          core.ThemeDark,
		PageInfo:       core.PageInfo{Page: 1, PageSize: 10, TotalRows: 1, TotalPages: 1},
	}
}

func TestPage_RendersGrid(t *testing.T) {
	out := render(t, PageData{View: sampleView(), Schema: core.DefaultSchema})

	assert.Contains(t, out, `<th scope="col">Name</th>`)
	assert.Contains(t, out, `&lt;b&gt;Ada&lt;/b&gt;`, "cell text must be escaped")
	assert.NotContains(t, out, `<b>Ada</b>`)
	assert.Contains(t, out, `<td>36</td>`)
	assert.Contains(t, out, `class="theme-dark"`)
	assert.Contains(t, out, `Page 1 of 1 (1 rows)`)
	assert.Contains(t, out, `value="email"`, "hidden columns are offered in the column form")
}

func TestPage_EditRow(t *testing.T) {
	view := sampleView()
	view.Pending["1"] = map[string]string{"age": "x"}
	out := render(t, PageData{View: view, Schema: core.DefaultSchema, EditRow: "1"})

	assert.Contains(t, out, `class="pending"`)
	assert.Contains(t, out, `action="/rows/1/edit"`)
	assert.Contains(t, out, `name="age" value="36" form="edit-1" inputmode="decimal"`)
	assert.NotContains(t, out, `name="id" value=`, "id is not editable")
}

func TestPage_Alert(t *testing.T) {
	out := render(t, PageData{
		View:  sampleView(),
		Alert: &Alert{Kind: AlertError, Message: "Age must be a valid number", Code: "VAL002"},
	})
	assert.Contains(t, out, `class="alert alert-error"`)
	assert.Contains(t, out, `Age must be a valid number`)
	assert.Contains(t, out, `<code>VAL002</code>`)
}

func TestPage_Empty(t *testing.T) {
	view := sampleView()
	view.Rows = nil
	out := render(t, PageData{View: view})
	assert.Contains(t, out, "No rows.")
}
