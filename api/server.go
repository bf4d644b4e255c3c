/*
server.go - HTTP router and middleware configuration

ROUTER: chi

MIDDLEWARE STACK:
  1. RequestID: unique ID per request for tracing
  2. Recoverer: panic recovery (500 instead of crash)
  3. requestLogger: structured slog request logging
  4. CORS: cross-origin requests for frontend clients

ROUTE GROUPS:
  /api/limits/*      policy publish surface (authoring role)
  /api/calendar/*    day-grid generation
  /api/vacation/*    date selection surface (consuming role)
  /api/schedule/*    work-schedule records
  /api/status/*      publish-status readback

SEE ALSO:
  - handlers.go: handler implementations
  - cmd/server/main.go: server startup
*/
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates the router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/limits", func(r chi.Router) {
			r.Get("/", h.ListLimits)
			r.Post("/", h.PublishLimits)
			r.Get("/{month}", h.GetLimits)
			r.Delete("/{month}", h.UnpublishLimits)
		})

		r.Get("/calendar/{month}/grid", h.GetGrid)

		r.Route("/vacation/{month}", func(r chi.Router) {
			r.Get("/", h.GetVacation)
			r.Post("/toggle", h.ToggleVacation)
			r.Post("/submit", h.SubmitVacation)
			r.Delete("/", h.ClearVacation)
			r.Get("/usage", h.GetUsage)
		})

		r.Route("/schedule/{month}", func(r chi.Router) {
			r.Get("/", h.GetSchedule)
			r.Put("/", h.PutSchedule)
		})

		r.Get("/status/{month}", h.GetStatus)
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Info("request handled",
			"status", ww.Status(),
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}
