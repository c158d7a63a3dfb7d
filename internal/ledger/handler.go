package ledger

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/consignflow/consignflow/internal/platform/httpx"
)

// Handler exposes the availability calculator over HTTP.
type Handler struct {
	logger *slog.Logger
	calc   *Calculator
}

// NewHandler constructs the availability handler.
func NewHandler(logger *slog.Logger, calc *Calculator) *Handler {
	return &Handler{logger: logger, calc: calc}
}

// MountRoutes registers availability routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/availability", h.handleAvailability)
}

// handleAvailability answers two shapes of query: with batch ids it
// returns net quantities per batch at the location; without, it lists
// every batch with positive availability there.
func (h *Handler) handleAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	locationID, err := strconv.ParseInt(q.Get("location"), 10, 64)
	if err != nil || locationID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "location must be a positive integer")
		return
	}

	batchParam := q.Get("batch")
	if batchParam == "" {
		items, err := h.calc.AvailableInventory(r.Context(), locationID)
		if err != nil {
			h.logger.Error("availability listing failed", slog.Int64("location_id", locationID), slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		if items == nil {
			items = []AvailableItem{}
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"location_id": locationID, "items": items, "count": len(items)})
		return
	}

	var batchIDs []int64
	for _, part := range strings.Split(batchParam, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "batch must be a comma-separated list of positive integers")
			return
		}
		batchIDs = append(batchIDs, id)
	}
	totals, err := h.calc.AvailableBatch(r.Context(), batchIDs, locationID)
	if err != nil {
		h.logger.Error("availability lookup failed", slog.Int64("location_id", locationID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"location_id": locationID, "totals": totals})
}
