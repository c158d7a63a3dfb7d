package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/consignflow/consignflow/internal/documents"
	"github.com/consignflow/consignflow/internal/imports"
	"github.com/consignflow/consignflow/internal/inventory"
	"github.com/consignflow/consignflow/internal/ledger"
	"github.com/consignflow/consignflow/internal/locations"
	"github.com/consignflow/consignflow/internal/tickets"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	InventoryHandler    *inventory.Handler
	TicketsHandler      *tickets.Handler
	DocumentsHandler    *documents.Handler
	ImportsHandler      *imports.Handler
	LocationsHandler    *locations.Handler
	AvailabilityHandler *ledger.Handler
}

// NewRouter constructs the chi.Router with the default middleware chain
// and every API surface mounted under /api.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(api chi.Router) {
		if params.InventoryHandler != nil {
			params.InventoryHandler.MountRoutes(api)
		}
		if params.TicketsHandler != nil {
			params.TicketsHandler.MountRoutes(api)
		}
		if params.DocumentsHandler != nil {
			params.DocumentsHandler.MountRoutes(api)
		}
		if params.ImportsHandler != nil {
			params.ImportsHandler.MountRoutes(api)
		}
		if params.LocationsHandler != nil {
			params.LocationsHandler.MountRoutes(api)
		}
		if params.AvailabilityHandler != nil {
			params.AvailabilityHandler.MountRoutes(api)
		}
	})

	return r
}
