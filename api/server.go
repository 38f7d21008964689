/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions. This
  is the wiring layer that connects URLs to handlers; the admin frontend is
  an external collaborator and everything it needs goes through these
  routes.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the frontend

ROUTE GROUPS:
  /api/events/*    Event booking, settlement, reassignment
  /api/workers/*   Worker registry, payments, summaries
  /api/stats/*     Read-only aggregations
  /api/admin/*     Global financial reset

SECURITY NOTE:
  No authentication middleware. Auth is explicitly outside this engine.

SEE ALSO:
  - handlers.go: handler implementations
  - cmd/server/main.go: server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
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
		// Event routes
		r.Route("/events", func(r chi.Router) {
			r.Get("/", h.ListEvents)
			r.Post("/", h.CreateEvent)
			r.Get("/{id}", h.GetEvent)
			r.Delete("/{id}", h.DeleteEvent)
			r.Put("/{id}/workers", h.ReassignWorkers)
			r.Post("/{id}/settlements/{workerID}", h.SettleWorkerPayment)
		})

		// Worker routes
		r.Route("/workers", func(r chi.Router) {
			r.Get("/", h.ListWorkers)
			r.Post("/", h.CreateWorker)
			r.Get("/{id}", h.GetWorker)
			r.Delete("/{id}", h.DeleteWorker)
			r.Put("/{id}/availability", h.SetAvailability)
			r.Post("/{id}/payments", h.PayWorker)
			r.Get("/{id}/payments", h.GetPaymentHistory)
			r.Get("/{id}/summary", h.GetWorkerSummary)
		})

		// Stats routes
		r.Route("/stats", func(r chi.Router) {
			r.Get("/", h.GetEventStats)
			r.Get("/monthly", h.GetMonthlyRevenue)
			r.Get("/caterers/{caterer}", h.GetCatererStats)
			r.Get("/requesters", h.GetRequesterStats)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/reset", h.ResetFinancials)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Staffing Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Staffing Engine API</h1>
<ul>
<li><a href="/api/events">/api/events</a> - List events</li>
<li><a href="/api/workers">/api/workers</a> - List workers</li>
<li><a href="/api/stats">/api/stats</a> - Revenue stats</li>
</ul>
</body>
</html>`))
	})

	return r
}
