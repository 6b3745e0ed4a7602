package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/DataTable/internal/core"
)

// maxJSONBody bounds API request bodies other than imports.
const maxJSONBody = 1 << 20

// multipartOverhead is allowed on top of the import size limit for form
// boundaries and headers.
const multipartOverhead = 64 << 10

// parseIntParam parses a positive integer query or form value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.FormValue(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// pathParam returns a decoded route parameter. chi matches against the raw
// path when the request has escaped characters.
func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return v
	}
	if unescaped, err := url.PathUnescape(v); err == nil {
		return unescaped
	}
	return v
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return err
		}
		return fmt.Errorf("%w: %v", core.ErrInvalidRequest, err)
	}
	return nil
}

// importUpload returns the uploaded CSV and its name. Multipart requests
// carry it in the "file" field; any other body is the CSV itself.
func (s *Server) importUpload(w http.ResponseWriter, r *http.Request) (io.ReadCloser, string, error) {
	limit := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		name := r.URL.Query().Get("name")
		if name == "" {
			name = "upload.csv"
		}
		return r.Body, name, nil
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("%w: %v", core.ErrInvalidRequest, err)
	}
	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, "", core.ErrNoFile
	}
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", core.ErrInvalidRequest, err)
	}
	return file, header.Filename, nil
}

// formFields collects submitted values for known columns.
func formFields(r *http.Request, known []string) map[string]string {
	fields := make(map[string]string)
	for _, col := range known {
		if vals, ok := r.PostForm[col]; ok && len(vals) > 0 {
			fields[col] = vals[0]
		}
	}
	return fields
}
