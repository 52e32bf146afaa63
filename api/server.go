/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions. This
  is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the frontend
  5. Owner:      Extracts the authenticated owner from X-Owner-ID

OWNER IDENTITY:
  The identity provider in front of this service (reverse proxy, session
  layer) fills the X-Owner-ID header. A missing header is not an error:
  cart paths then operate on an empty, read-only cart, matching how the UI
  calls them speculatively before login.

ROUTE GROUPS:
  /api/cart/*      Shopping cart: reads, reconciliation, edits, deletion
  /api/planner/*   Planned meals
  /api/recipes/*   Minimal recipe CRUD feeding the producers
  /api/demo/*      Demo data loader (dev only)

SEE ALSO:
  - handlers.go: handler implementations
  - cmd/server/main.go: server startup
*/
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/basil/cart-engine/cart"
)

type ctxKey int

const ownerKey ctxKey = iota

// ownerFrom returns the request's owner, possibly empty.
func ownerFrom(r *http.Request) cart.OwnerID {
	owner, _ := r.Context().Value(ownerKey).(cart.OwnerID)
	return owner
}

// withOwner copies the X-Owner-ID header into the request context.
func withOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := cart.OwnerID(r.Header.Get("X-Owner-ID"))
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ownerKey, owner)))
	})
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Owner-ID"},
		AllowCredentials: true,
	}))
	r.Use(withOwner)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Cart routes
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.ListCart)
			r.Delete("/", h.ClearCart)
			r.Get("/report", h.SpendReport)

			r.Post("/items", h.AddItems)
			r.Route("/items/{id}", func(r chi.Router) {
				r.Delete("/", h.DeleteItem)
				r.Put("/checked", h.SetChecked)
				r.Put("/amount", h.SetAmount)
				r.Put("/price", h.SetPrice)
				r.Put("/note", h.SetNote)
			})

			r.Post("/recipes/{id}", h.AddRecipe)

			r.Get("/weeks", h.ListWeeks)
			r.Route("/weeks/{weekId}", func(r chi.Router) {
				r.Delete("/", h.ClearWeek)
				r.Post("/plan", h.AddPlannedWeek)
			})
		})

		// Planner routes
		r.Route("/planner", func(r chi.Router) {
			r.Get("/", h.ListPlannedMeals)
			r.Post("/meals", h.PlanMeal)
			r.Delete("/meals", h.UnplanMeal)
		})

		// Recipe routes
		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", h.ListRecipes)
			r.Post("/", h.CreateRecipe)
			r.Get("/{id}", h.GetRecipe)
		})

		// Demo data (dev only)
		r.Post("/demo/seed", h.SeedDemo)
	})

	return r
}
