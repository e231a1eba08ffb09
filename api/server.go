/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the mobile/web client
  5. Auth:       Bearer token on /api/v1 when a token is configured

ROUTE GROUPS:
  /api/v1/expenses/*    Expense records
  /api/v1/incomes/*     Income records
  /api/v1/budget/*      Monthly plans and their evaluation
  /api/v1/reports/*     Period reports
  /api/v1/periods/*     Period resolution
  /api/v1/scenarios/*   Demo data (RouterOptions.Scenarios only)
  /healthz              Liveness

PATH PARAMETERS:
  Record routes share one parameter, {key}: the granularity on GET and the
  record id on PUT/DELETE. chi requires one name per path position.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pocketledger/budget-engine/budget"
)

// RouterOptions configures the middleware around the handlers.
type RouterOptions struct {
	// AllowedOrigins for CORS. Empty allows the local dev origins.
	AllowedOrigins []string

	// Token, when set, is required as "Authorization: Bearer <token>".
	Token string

	// Scenarios mounts the demo scenario routes. They reset the store.
	Scenarios bool
}

var defaultOrigins = []string{"http://localhost:8081", "http://localhost:19006"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = defaultOrigins
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

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		if opts.Token != "" {
			r.Use(requireToken(opts.Token))
		}

		// Record routes
		for _, kind := range []budget.Kind{budget.Expense, budget.Income} {
			r.Route("/"+kind.Plural(), func(r chi.Router) {
				r.Post("/add", h.CreateRecord(kind))
				r.Get("/{key}", h.ListRecords(kind))
				r.Put("/{key}", h.UpdateRecord(kind))
				r.Delete("/{key}", h.DeleteRecord(kind))
			})
		}

		// Budget routes
		r.Route("/budget", func(r chi.Router) {
			r.Get("/month", h.GetBudget)
			r.Post("/add", h.SaveBudget)
			r.Get("/status", h.GetBudgetStatus)
		})

		r.Get("/reports/{granularity}", h.GetReport)
		r.Get("/periods/{granularity}", h.ResolvePeriod)

		if opts.Scenarios {
			r.Route("/scenarios", func(r chi.Router) {
				r.Get("/", h.ListScenarios)
				r.Get("/current", h.GetCurrentScenario)
				r.Post("/load", h.LoadScenario)
			})
		}
	})

	return r
}

// requireToken rejects requests without the configured bearer token.
func requireToken(token string) func(http.Handler) http.Handler {
	want := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				writeError(w, http.StatusUnauthorized, "Unauthorized", "unauthorized", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
