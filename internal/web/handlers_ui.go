package web

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/JonMunkholm/DataTable/internal/core"
	"github.com/JonMunkholm/DataTable/internal/logging"
	"github.com/JonMunkholm/DataTable/internal/web/templates"
)

// notices are the success banners selectable by the ?notice= parameter
// after a redirect.
var notices = map[string]string{
	"imported":     core.ImportSuccessMessage,
	"row-added":    "Row added.",
	"row-saved":    "Row saved.",
	"row-deleted":  "Row deleted.",
	"column-added": "Column added.",
	"columns":      "Columns updated.",
}

// renderPage writes the grid page for the requested page number.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, page int, editRow string, alert *templates.Alert) {
	data := templates.PageData{
		View:    s.service.View(page, 0),
		Schema:  s.service.Schema(),
		Alert:   alert,
		EditRow: editRow,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.Page(data).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "error", err)
	}
}

// failPage logs err and re-renders the grid with an error banner.
func (s *Server) failPage(w http.ResponseWriter, r *http.Request, err error, page int, editRow string) {
	status := statusFor(err)
	logging.FromContext(r.Context()).Warn("ui action failed",
		"path", r.URL.Path,
		"status", status,
		"error", err,
		"code", core.MapError(err).Code,
	)
	s.renderPage(w, r, status, page, editRow, alertFor(err))
}

// redirect sends the browser back to the grid after a successful POST.
func redirect(w http.ResponseWriter, r *http.Request, page int, notice string) {
	q := url.Values{}
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	if notice != "" {
		q.Set("notice", notice)
	}
	target := "/"
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var alert *templates.Alert
	if msg, ok := notices[r.URL.Query().Get("notice")]; ok {
		alert = &templates.Alert{Kind: templates.AlertSuccess, Message: msg}
	}
	s.renderPage(w, r, http.StatusOK, parseIntParam(r, "page", 1), r.URL.Query().Get("edit"), alert)
}

func (s *Server) handleImportForm(w http.ResponseWriter, r *http.Request) {
	file, name, err := s.importUpload(w, r)
	if err != nil {
		s.failPage(w, r, err, 1, "")
		return
	}
	defer file.Close()

	if _, err := s.service.Import(withRequestMetadata(r), name, file); err != nil {
		s.failPage(w, r, err, 1, "")
		return
	}
	redirect(w, r, 1, "imported")
}

// handleExport streams the visible committed data as a CSV download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", core.ExportContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+core.ExportFileName+`"`)
	if err := s.service.Export(w); err != nil {
		logging.FromContext(r.Context()).Error("export failed", "error", err)
	}
}

func (s *Server) handleColumnsForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.failPage(w, r, core.ErrInvalidRequest, 1, "")
		return
	}
	if _, err := s.service.SetVisibleColumns(withRequestMetadata(r), r.PostForm["columns"]); err != nil {
		s.failPage(w, r, err, 1, "")
		return
	}
	redirect(w, r, 1, "columns")
}

func (s *Server) handleAddColumnForm(w http.ResponseWriter, r *http.Request) {
	show := r.PostFormValue("show") == "true"
	if _, err := s.service.AddColumn(withRequestMetadata(r), r.PostFormValue("name"), show); err != nil {
		s.failPage(w, r, err, 1, "")
		return
	}
	redirect(w, r, 1, "column-added")
}

func (s *Server) handleAddRowForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.failPage(w, r, core.ErrInvalidRequest, 1, "")
		return
	}
	fields := formFields(r, s.service.State().Table.AllColumns)
	if _, err := s.service.AddRow(withRequestMetadata(r), fields); err != nil {
		s.failPage(w, r, err, 1, "")
		return
	}
	// New rows are appended, so show the last page.
	last := s.service.View(1, 0).TotalPages
	redirect(w, r, last, "row-added")
}

// handleEditRowForm stages the submitted fields and saves the row. A failed
// save keeps the edits pending and shows the row in edit mode again.
func (s *Server) handleEditRowForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.failPage(w, r, core.ErrInvalidRequest, 1, "")
		return
	}
	id := pathParam(r, "id")
	page := parseIntParam(r, "page", 1)
	ctx := withRequestMetadata(r)

	merged, ok := s.service.MergedRow(id)
	if !ok {
		s.failPage(w, r, fmt.Errorf("%w: %q", core.ErrRowNotFound, id), page, "")
		return
	}
	// The form posts every column; only fields the user changed are staged
	// so untouched cells are not re-validated.
	fields := formFields(r, s.service.State().Table.AllColumns)
	delete(fields, core.IDColumn)
	for c, v := range fields {
		if merged.Get(c).String() == v {
			delete(fields, c)
		}
	}

	if err := s.service.StageEdit(ctx, id, fields); err != nil {
		s.failPage(w, r, err, page, "")
		return
	}
	if _, err := s.service.SaveRow(ctx, id); err != nil {
		if errors.Is(err, core.ErrNoPendingEdits) {
			redirect(w, r, page, "")
			return
		}
		s.failPage(w, r, err, page, id)
		return
	}
	redirect(w, r, page, "row-saved")
}

func (s *Server) handleCancelRowForm(w http.ResponseWriter, r *http.Request) {
	s.service.CancelRow(withRequestMetadata(r), pathParam(r, "id"))
	redirect(w, r, parseIntParam(r, "page", 1), "")
}

func (s *Server) handleDeleteRowForm(w http.ResponseWriter, r *http.Request) {
	page := parseIntParam(r, "page", 1)
	if err := s.service.DeleteRow(withRequestMetadata(r), pathParam(r, "id")); err != nil {
		s.failPage(w, r, err, page, "")
		return
	}
	redirect(w, r, page, "row-deleted")
}

func (s *Server) handleThemeForm(w http.ResponseWriter, r *http.Request) {
	if _, err := s.service.ToggleTheme(withRequestMetadata(r)); err != nil {
		s.failPage(w, r, err, 1, "")
		return
	}
	redirect(w, r, parseIntParam(r, "page", 1), "")
}
