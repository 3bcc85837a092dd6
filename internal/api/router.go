package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-blink/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Route("/patterns", func(r chi.Router) {
				r.With(s.requirePermission(auth.PermPatternRead)).Get("/", s.handleListPatterns)
				r.With(s.requirePermission(auth.PermPatternRead)).Get("/status", s.handleStatus)
				r.With(s.requirePermission(auth.PermPatternManage)).Post("/", s.handleSavePattern)

				r.Group(func(r chi.Router) {
					r.Use(s.requirePermission(auth.PermPatternPlay))
					r.Post("/play", s.handlePlay)
					r.Post("/stop", s.handleStopAll)
				})

				r.Route("/config", func(r chi.Router) {
					r.With(s.requirePermission(auth.PermPatternRead)).Get("/", s.handleGetConfig)
					r.With(s.requirePermission(auth.PermPatternManage)).Put("/", s.handleSetConfig)
				})

				r.Route("/{id}", func(r chi.Router) {
					r.With(s.requirePermission(auth.PermPatternRead)).Get("/", s.handleGetPattern)
					r.With(s.requirePermission(auth.PermPatternManage)).Put("/", s.handleSavePattern)
					r.With(s.requirePermission(auth.PermPatternManage)).Delete("/", s.handleDeletePattern)
					r.With(s.requirePermission(auth.PermPatternPlay)).Post("/stop", s.handleStop)
				})
			})

			r.With(s.requirePermission(auth.PermAuditRead)).Get("/audit", s.handleListAuditLogs)

			// WebSocket
			r.With(s.requirePermission(auth.PermPatternRead)).Get("/ws", s.handleWebSocket)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{
		"status":  "ok",
		"version": s.version,
		"clients": s.hub.ClientCount(),
	}
	if s.sink != nil {
		resp["dropped_fades"] = s.sink.Dropped()
	}
	writeJSON(w, http.StatusOK, resp)
}
