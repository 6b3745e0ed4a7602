// Package web provides the HTTP server: the grid UI, the JSON API under
// /api, and a health check.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/DataTable/internal/config"
	"github.com/JonMunkholm/DataTable/internal/core"
	"github.com/JonMunkholm/DataTable/internal/web/middleware"
)

// Server is the HTTP server for the data table.
type Server struct {
	service *core.Service
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server

	limiters []*rateLimiter
}

// NewServer creates a Server with middleware and routes configured.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	s.server = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		s.router.Use(s.newLimiter(s.cfg.Rate.RequestsPerMinute).middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	// Grid UI
	s.router.Get("/", s.handleIndex)
	s.router.Get("/export", s.handleExport)
	s.router.With(s.importRateLimit()).Post("/import", s.handleImportForm)
	s.router.Post("/columns", s.handleColumnsForm)
	s.router.Post("/columns/add", s.handleAddColumnForm)
	s.router.Post("/rows", s.handleAddRowForm)
	s.router.Post("/rows/{id}/edit", s.handleEditRowForm)
	s.router.Post("/rows/{id}/cancel", s.handleCancelRowForm)
	s.router.Post("/rows/{id}/delete", s.handleDeleteRowForm)
	s.router.Post("/theme", s.handleThemeForm)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(&s.cfg.Security))

		r.Get("/state", s.handleAPIState)
		r.Get("/rows", s.handleAPIRows)
		r.Post("/rows", s.handleAPIAddRow)
		r.Delete("/rows/{id}", s.handleAPIDeleteRow)
		r.Patch("/rows/{id}/overlay", s.handleAPIStageEdit)
		r.Post("/rows/{id}/save", s.handleAPISaveRow)
		r.Post("/rows/{id}/cancel", s.handleAPICancelRow)

		r.Get("/overlay", s.handleAPIOverlay)
		r.Post("/overlay/save", s.handleAPISaveEdits)
		r.Post("/overlay/cancel", s.handleAPICancelEdits)

		r.Put("/columns/visible", s.handleAPISetVisible)
		r.Post("/columns", s.handleAPIAddColumn)
		r.Post("/columns/{name}/toggle", s.handleAPIToggleColumn)

		r.With(s.importRateLimit()).Post("/import", s.handleAPIImport)
		r.Get("/export", s.handleExport)

		r.Post("/theme/toggle", s.handleAPIToggleTheme)
		r.Post("/reset", s.handleAPIReset)
	})
}

// importRateLimit applies the stricter import limit when rate limiting is on.
func (s *Server) importRateLimit() func(http.Handler) http.Handler {
	if !s.cfg.Rate.Enabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return s.newLimiter(s.cfg.Rate.ImportLimit).middleware
}

func (s *Server) newLimiter(perMinute int) *rateLimiter {
	rl := newRateLimiter(perMinute, time.Minute)
	s.limiters = append(s.limiters, rl)
	return rl
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	slog.Info("server listening", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server and its background cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, rl := range s.limiters {
		rl.Stop()
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"rows":           len(s.service.State().Table.Data),
		"active_imports": s.service.Limiter().Active(),
	})
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				// Inline styles only; the page has no scripts.
				w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'none'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON encodes v as JSON with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

// isAPI reports whether r targets the JSON API.
func isAPI(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}
