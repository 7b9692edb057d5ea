/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/residency/*      Stateless rule evaluations
  /api/users/{id}/*     Per-user status, gifts, assets, estate
  /api/scenarios/*      Demo scenarios
  /metrics              Prometheus scrape endpoint
  /healthz              Liveness probe

SECURITY NOTE:
  No authentication middleware. All endpoints are public; an upstream
  gateway is expected to terminate auth.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Stateless residency evaluations
		r.Route("/residency", func(r chi.Router) {
			r.Post("/srt", h.EvaluateSRT)
			r.Post("/sa-presence", h.EvaluateSAPresence)
			r.Post("/tie-break", h.ResolveTieBreak)
			r.Post("/domicile", h.AssessDomicile)
		})

		// Per-user state
		r.Route("/users/{id}", func(r chi.Router) {
			r.Route("/status", func(r chi.Router) {
				r.Post("/", h.CreateStatus)
				r.Get("/current", h.GetCurrentStatus)
				r.Get("/at/{date}", h.GetStatusAtDate)
				r.Get("/history", h.GetStatusHistory)
			})

			r.Route("/gifts", func(r chi.Router) {
				r.Get("/", h.ListGifts)
				r.Post("/", h.RecordGift)
				r.Get("/all", h.ListAllGifts)
				r.Post("/{gid}/correct", h.CorrectGift)
			})

			r.Route("/assets", func(r chi.Router) {
				r.Get("/", h.ListAssets)
				r.Post("/", h.AddAsset)
				r.Delete("/{aid}", h.DeleteAsset)
			})

			r.Route("/liabilities", func(r chi.Router) {
				r.Get("/", h.ListLiabilities)
				r.Post("/", h.AddLiability)
				r.Delete("/{lid}", h.DeleteLiability)
			})

			r.Post("/estate/calculate", h.CalculateEstate)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	// Observability
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
