/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the shop front end

ROUTE GROUPS:
  /api/inventory, /api/sellable, /api/catalog   Stock listings
  /api/intake, /api/remove, /api/sell           Stock transitions
  /api/units/*                                  Unit register + edit
  /api/service/*, /api/finished/*               Repair flow
  /api/sales, /api/export.xlsx                  Sales and export
  /api/scenarios/*                              Demo scenarios
  /health, /metrics                             Operations

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cli/serve.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOptions configures the parts of the router that vary per deployment.
type RouterOptions struct {
	AllowedOrigins []string
	ExposeMetrics  bool
}

// DefaultAllowedOrigins is used when no origins are configured.
var DefaultAllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = DefaultAllowedOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/health", h.Health)
	if opts.ExposeMetrics {
		r.Handle("/metrics", h.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		// Stock
		r.Get("/inventory", h.ListInventory)
		r.Get("/sellable", h.ListSellable)
		r.Get("/catalog", h.GetCatalog)
		r.Post("/intake", h.Intake)
		r.Post("/remove", h.Remove)
		r.Post("/sell", h.Sell)

		// Unit register
		r.Route("/units", func(r chi.Router) {
			r.Get("/", h.ListUnits)
			r.Get("/{serial}", h.GetUnit)
			r.Put("/{serial}", h.EditUnit)
		})

		// Repair flow
		r.Route("/service", func(r chi.Router) {
			r.Get("/", h.ListService)
			r.Post("/", h.WalkIn)
			r.Post("/send", h.SendToService)
			r.Post("/{serial}/finish", h.FinishService)
		})
		r.Route("/finished", func(r chi.Router) {
			r.Get("/", h.ListFinished)
			r.Post("/{serial}/restock", h.Restock)
		})

		// Sales
		r.Get("/sales", h.ListSales)
		r.Get("/export.xlsx", h.Export)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
