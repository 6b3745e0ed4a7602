package web

import (
	"net/http"

	"github.com/JonMunkholm/DataTable/internal/core"
)

// stateResponse is the persisted snapshot plus the session's pending edits.
type stateResponse struct {
	core.Snapshot
	Pending map[string]map[string]string `json:"pending"`
}

func (s *Server) handleAPIState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stateResponse{
		Snapshot: s.service.State(),
		Pending:  s.service.Overlay(),
	})
}

func (s *Server) handleAPIRows(w http.ResponseWriter, r *http.Request) {
	view := s.service.View(parseIntParam(r, "page", 1), parseIntParam(r, "size", 0))
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleAPIAddRow(w http.ResponseWriter, r *http.Request) {
	var fields map[string]string
	if err := decodeJSON(w, r, &fields); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	row, err := s.service.AddRow(withRequestMetadata(r), fields)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusCreated, row)
}

func (s *Server) handleAPIDeleteRow(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteRow(withRequestMetadata(r), pathParam(r, "id")); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAPIStageEdit(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	var fields map[string]string
	if err := decodeJSON(w, r, &fields); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	if err := s.service.StageEdit(withRequestMetadata(r), id, fields); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":      id,
		"pending": s.service.Overlay()[id],
	})
}

func (s *Server) handleAPISaveRow(w http.ResponseWriter, r *http.Request) {
	row, err := s.service.SaveRow(withRequestMetadata(r), pathParam(r, "id"))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleAPICancelRow(w http.ResponseWriter, r *http.Request) {
	s.service.CancelRow(withRequestMetadata(r), pathParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAPIOverlay(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Overlay())
}

func (s *Server) handleAPISaveEdits(w http.ResponseWriter, r *http.Request) {
	rows, err := s.service.SaveEdits(withRequestMetadata(r))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (s *Server) handleAPICancelEdits(w http.ResponseWriter, r *http.Request) {
	s.service.CancelEdits(withRequestMetadata(r))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAPISetVisible(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Columns []string `json:"columns"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	visible, err := s.service.SetVisibleColumns(withRequestMetadata(r), req.Columns)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"visibleColumns": visible})
}

func (s *Server) handleAPIAddColumn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
		Show bool   `json:"show"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	name, err := s.service.AddColumn(withRequestMetadata(r), req.Name, req.Show)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"name": name, "visible": req.Show})
}

func (s *Server) handleAPIToggleColumn(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")
	visible, err := s.service.ToggleColumn(withRequestMetadata(r), name)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"column": name, "visible": visible})
}

func (s *Server) handleAPIImport(w http.ResponseWriter, r *http.Request) {
	file, name, err := s.importUpload(w, r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	defer file.Close()

	result, err := s.service.Import(withRequestMetadata(r), name, file)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAPIToggleTheme(w http.ResponseWriter, r *http.Request) {
	mode, err := s.service.ToggleTheme(withRequestMetadata(r))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"theme": mode})
}

func (s *Server) handleAPIReset(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Reset(withRequestMetadata(r)); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
