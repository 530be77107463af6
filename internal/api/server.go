// Package api exposes the catalog and price ledger over HTTP. Handlers only
// parse and validate transport concerns; semantics live in the ledger service
// and the store.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/pricebook/internal/config"
	"github.com/sells-group/pricebook/internal/ledger"
	"github.com/sells-group/pricebook/internal/store"
)

// Handler bundles the dependencies of the HTTP handlers.
type Handler struct {
	store  store.Store
	ledger *ledger.Service
	log    *zap.Logger
}

// NewHandler creates a Handler.
func NewHandler(st store.Store, svc *ledger.Service) *Handler {
	return &Handler{
		store:  st,
		ledger: svc,
		log:    zap.L().With(zap.String("component", "api")),
	}
}

// NewRouter creates the chi router with the full middleware stack and routes.
func NewRouter(cfg config.ServerConfig, h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.log))
	if cfg.RateLimitRPS > 0 {
		r.Use(rateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.listProjects)
			r.Post("/", h.createProject)
			r.Get("/{id}", h.getProject)
			r.Delete("/{id}", h.deleteProject)
			r.Get("/{id}/items", h.listItems)
			r.Post("/{id}/items", h.createItem)
		})

		r.Route("/items", func(r chi.Router) {
			r.Get("/{id}", h.getItem)
			r.Delete("/{id}", h.deleteItem)
			r.Get("/{id}/summary", h.itemSummary)
			r.Get("/{id}/prices", h.listPrices)
			r.Post("/{id}/prices", h.createPrice)
		})

		r.Route("/prices", func(r chi.Router) {
			r.Get("/{id}", h.getPrice)
			r.Patch("/{id}", h.updatePrice)
			r.Delete("/{id}", h.deletePrice)
		})
	})

	return r
}
