// Package templates renders the grid UI as templ components.
package templates

import (
	"context"
	"io"
	"net/url"

	"github.com/a-h/templ"
)

// html accumulates the first write error.
type html struct {
	w   io.Writer
	err error
}

// raw writes trusted markup.
func (h *html) raw(s ...string) {
	for _, p := range s {
		if h.err != nil {
			return
		}
		_, h.err = io.WriteString(h.w, p)
	}
}

// text writes escaped text or attribute content.
func (h *html) text(s string) {
	h.raw(templ.EscapeString(s))
}

// render writes a nested component.
func (h *html) render(ctx context.Context, c templ.Component) {
	if h.err == nil {
		h.err = c.Render(ctx, h.w)
	}
}

// rowPath builds a path under /rows for a row id.
func rowPath(id, action string) string {
	return "/rows/" + url.PathEscape(id) + "/" + action
}

func urlQueryEscape(s string) string {
	return url.QueryEscape(s)
}
