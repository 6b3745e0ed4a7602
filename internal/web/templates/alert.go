package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// AlertKind selects the banner style.
type AlertKind string

const (
	AlertError   AlertKind = "error"
	AlertSuccess AlertKind = "success"
)

// Alert is a notification banner shown above the grid.
type Alert struct {
	Kind    AlertKind
	Message string
	Action  string
	Code    string
}

// AlertBanner renders a.
func AlertBanner(a Alert) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<div class="alert alert-`)
		h.text(string(a.Kind))
		h.raw(`" role="alert"><strong>`)
		h.text(a.Message)
		h.raw(`</strong>`)
		if a.Action != "" {
			h.raw(` <span class="alert-action">`)
			h.text(a.Action)
			h.raw(`</span>`)
		}
		if a.Code != "" {
			h.raw(` <code>`)
			h.text(a.Code)
			h.raw(`</code>`)
		}
		h.raw(`</div>`)
		return h.err
	})
}
