package templates

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/DataTable/internal/core"
)

// PageData is everything the grid page shows.
type PageData struct {
	View    core.TableView
	Schema  core.Schema
	Alert   *Alert
	EditRow string // row id rendered as an edit form, if any
}

// Page renders the full grid document.
func Page(d PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`,
			`<meta name="viewport" content="width=device-width, initial-scale=1">`,
			`<title>Data Table</title><style>`, pageCSS, `</style></head>`)
		h.raw(`<body class="theme-`)
		h.text(string(d.View.Theme.Normalize()))
		h.raw(`"><main>`)

		h.render(ctx, Toolbar(d.View.Theme))
		if d.Alert != nil {
			h.render(ctx, AlertBanner(*d.Alert))
		}
		h.render(ctx, Grid(d))
		h.render(ctx, Pagination(d.View.PageInfo))
		h.render(ctx, AddRowForm(d.View.VisibleColumns, d.Schema))
		h.render(ctx, ColumnsForm(d.View.AllColumns, d.View.VisibleColumns))
		h.render(ctx, AddColumnForm())

		h.raw(`</main></body></html>`)
		return h.err
	})
}

// Toolbar renders import, export and the theme toggle.
func Toolbar(theme core.ThemeMode) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<header class="toolbar"><h1>Data Table</h1>`)
		h.raw(`<form method="post" action="/import" enctype="multipart/form-data" class="inline">`,
			`<input type="file" name="file" accept=".csv,text/csv" required>`,
			`<button type="submit">Import CSV</button></form>`)
		h.raw(`<a class="button" href="/export" download="`, core.ExportFileName, `">Export CSV</a>`)
		h.raw(`<form method="post" action="/theme" class="inline"><button type="submit">`)
		if theme.Normalize() == core.ThemeDark {
			h.raw(`Light mode`)
		} else {
			h.raw(`Dark mode`)
		}
		h.raw(`</button></form></header>`)
		return h.err
	})
}

// Grid renders the current page of rows. The row named by EditRow has
// inputs for every visible column except id.
func Grid(d PageData) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &html{w: w}
		cols := d.View.VisibleColumns
		page := strconv.Itoa(d.View.Page)

		h.raw(`<table class="grid"><thead><tr>`)
		for _, c := range cols {
			h.raw(`<th scope="col">`)
			h.text(core.ColumnLabel(c))
			h.raw(`</th>`)
		}
		h.raw(`<th scope="col">Actions</th></tr></thead><tbody>`)

		if len(d.View.Rows) == 0 {
			h.raw(`<tr><td class="empty" colspan="`, strconv.Itoa(len(cols)+1), `">No rows. Import a CSV or add a row.</td></tr>`)
		}

		for _, row := range d.View.Rows {
			id := row.ID()
			editing := id == d.EditRow
			formID := "edit-" + id

			h.raw(`<tr`)
			if d.View.IsPending(id) {
				h.raw(` class="pending"`)
			}
			h.raw(`>`)
			for _, c := range cols {
				h.raw(`<td>`)
				if editing && c != core.IDColumn {
					h.raw(`<input name="`)
					h.text(c)
					h.raw(`" value="`)
					h.text(row.Get(c).String())
					h.raw(`" form="`)
					h.text(formID)
					h.raw(`"`)
					if d.Schema.IsNumeric(c) {
						h.raw(` inputmode="decimal"`)
					}
					h.raw(`>`)
				} else {
					h.text(row.Get(c).String())
				}
				h.raw(`</td>`)
			}

			h.raw(`<td class="actions">`)
			if editing {
				h.raw(`<form id="`)
				h.text(formID)
				h.raw(`" method="post" action="`)
				h.text(rowPath(id, "edit"))
				h.raw(`" class="inline"><input type="hidden" name="page" value="`, page, `">`,
					`<button type="submit">Save</button></form>`)
				h.raw(`<form method="post" action="`)
				h.text(rowPath(id, "cancel"))
				h.raw(`" class="inline"><input type="hidden" name="page" value="`, page, `">`,
					`<button type="submit">Cancel</button></form>`)
			} else {
				h.raw(`<a href="/?page=`, page, `&amp;edit=`)
				h.text(urlQueryEscape(id))
				h.raw(`">Edit</a>`)
				h.raw(`<form method="post" action="`)
				h.text(rowPath(id, "delete"))
				h.raw(`" class="inline"><input type="hidden" name="page" value="`, page, `">`,
					`<button type="submit">Delete</button></form>`)
			}
			h.raw(`</td></tr>`)
		}
		h.raw(`</tbody></table>`)
		return h.err
	})
}

// Pagination renders previous/next links and the position.
func Pagination(p core.PageInfo) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<nav class="pagination">`)
		if p.HasPrev() {
			h.raw(`<a href="/?page=`, strconv.Itoa(p.Page-1), `">Previous</a>`)
		}
		h.raw(`<span>Page `, strconv.Itoa(p.Page), ` of `, strconv.Itoa(p.TotalPages),
			` (`, strconv.Itoa(p.TotalRows), ` rows)</span>`)
		if p.HasNext() {
			h.raw(`<a href="/?page=`, strconv.Itoa(p.Page+1), `">Next</a>`)
		}
		h.raw(`</nav>`)
		return h.err
	})
}

// AddRowForm renders inputs for the visible columns. A blank id is generated.
func AddRowForm(cols []string, schema core.Schema) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<section><h2>Add row</h2><form method="post" action="/rows" class="row-form">`)
		for _, c := range cols {
			h.raw(`<label>`)
			h.text(core.ColumnLabel(c))
			h.raw(` <input name="`)
			h.text(c)
			h.raw(`"`)
			if c == core.IDColumn {
				h.raw(` placeholder="generated if blank"`)
			}
			if schema.IsNumeric(c) {
				h.raw(` inputmode="decimal"`)
			}
			h.raw(`></label>`)
		}
		h.raw(`<button type="submit">Add row</button></form></section>`)
		return h.err
	})
}

// ColumnsForm renders a checkbox per known column. The id box is fixed.
func ColumnsForm(all, visible []string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &html{w: w}
		shown := make(map[string]bool, len(visible))
		for _, c := range visible {
			shown[c] = true
		}

		h.raw(`<section><h2>Manage columns</h2><form method="post" action="/columns" class="columns-form">`)
		h.raw(`<input type="hidden" name="columns" value="`, core.IDColumn, `">`)
		for _, c := range all {
			h.raw(`<label><input type="checkbox" name="columns" value="`)
			h.text(c)
			h.raw(`"`)
			if shown[c] || c == core.IDColumn {
				h.raw(` checked`)
			}
			if c == core.IDColumn {
				h.raw(` disabled`)
			}
			h.raw(`> `)
			h.text(core.ColumnLabel(c))
			h.raw(`</label>`)
		}
		h.raw(`<button type="submit">Apply</button></form></section>`)
		return h.err
	})
}

// AddColumnForm renders the custom column form.
func AddColumnForm() templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<section><h2>Add column</h2><form method="post" action="/columns/add" class="inline">`,
			`<input name="name" placeholder="Column name" required>`,
			`<label><input type="checkbox" name="show" value="true"> Show</label>`,
			`<button type="submit">Add column</button></form></section>`)
		return h.err
	})
}
