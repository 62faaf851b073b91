// Package api exposes a session over HTTP so host hooks and plugins can feed
// events into a long-running ctxkeeper process.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/HendryAvila/ctxkeeper/internal/session"
)

// NewRouter creates the Chi router with all routes and middleware. A nil
// metrics handler leaves /metrics unmounted.
//
// No CORS headers are sent. Cross-origin pages must not read project memory.
func NewRouter(
	sess *session.Session,
	metrics http.Handler,
	version string,
	apiKey string,
	logger *slog.Logger,
) *chi.Mux {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()

	// Global middleware (runs on ALL routes including /health)
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recovery(logger))

	healthH := NewHealthHandler(sess, version)
	contextH := NewContextHandler(sess)
	memoryH := NewMemoryHandler(sess)
	eventH := NewEventHandler(sess)

	// Unauthenticated routes
	r.Get("/health", healthH.Health)
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(apiKey))

		r.Route("/v1", func(r chi.Router) {
			r.Get("/status", contextH.Status)
			r.Get("/seen", contextH.Seen)
			r.Get("/recent", contextH.Recent)
			r.Get("/important", contextH.Important)
			r.Get("/prompt", contextH.Prompt)

			r.Get("/recall", memoryH.Recall)
			r.Get("/search", memoryH.Search)
			r.Get("/stats", memoryH.Stats)

			r.Route("/events", func(r chi.Router) {
				r.Post("/tool", eventH.Tool)
				r.Post("/session", eventH.Session)
			})
		})
	})

	return r
}
