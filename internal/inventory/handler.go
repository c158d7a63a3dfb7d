package inventory

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/singleflight"

	"github.com/consignflow/consignflow/internal/platform/cache"
	"github.com/consignflow/consignflow/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the inventory and outstanding listings.
// Responses are served through the versioned read-cache; concurrent
// identical misses collapse into one computation.
type Handler struct {
	logger  *slog.Logger
	service *Service
	cache   *cache.Versioned
}

// NewHandler constructs the inventory handler.
func NewHandler(logger *slog.Logger, service *Service, cache *cache.Versioned) *Handler {
	return &Handler{logger: logger, service: service, cache: cache}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/inventory", h.handleInventory)
	r.Get("/outstanding", h.handleOutstanding)
}

var listGroup singleflight.Group

func collapse(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	resultChan := listGroup.DoChan(key, func() (any, error) {
		return fn(ctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		return res.Val, res.Err
	}
}

func (h *Handler) handleInventory(w http.ResponseWriter, r *http.Request) {
	searchTerm := r.URL.Query().Get("search")

	key, err := h.cache.BuildKey(r.Context(), "list", searchTerm)
	if err != nil {
		h.logger.Warn("inventory cache key", slog.Any("error", err))
	}

	rows := []Row{}
	err = h.cache.FetchJSON(r.Context(), key, &rows, func(ctx context.Context) (any, error) {
		return collapse(ctx, key, func(ctx context.Context) (any, error) {
			return h.service.Inventory(ctx, searchTerm)
		})
	})
	if err != nil {
		h.logger.Error("inventory listing failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": rows, "count": len(rows)})
}

func (h *Handler) handleOutstanding(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("search")

	key, err := h.cache.BuildKey(r.Context(), "outstanding", filter)
	if err != nil {
		h.logger.Warn("outstanding cache key", slog.Any("error", err))
	}

	rows := []OutstandingRow{}
	err = h.cache.FetchJSON(r.Context(), key, &rows, func(ctx context.Context) (any, error) {
		return collapse(ctx, key, func(ctx context.Context) (any, error) {
			return h.service.Outstanding(ctx, filter)
		})
	})
	if err != nil {
		h.logger.Error("outstanding listing failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": rows, "count": len(rows)})
}
