package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/DataTable/internal/core"
)

// withRequestMetadata tags ctx with the client IP and the surface (ui or
// api) for service logs.
func withRequestMetadata(r *http.Request) context.Context {
	source := "ui"
	if isAPI(r) {
		source = "api"
	}
	ctx := core.ContextWithClientIP(r.Context(), clientIP(r))
	return core.ContextWithSource(ctx, source)
}
