package tickets

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/singleflight"

	"github.com/consignflow/consignflow/internal/platform/cache"
	"github.com/consignflow/consignflow/internal/platform/httpx"
	"github.com/consignflow/consignflow/internal/shared"
)

// Handler wires HTTP endpoints for ticket listings and details.
type Handler struct {
	logger  *slog.Logger
	service *Service
	cache   *cache.Versioned
}

// NewHandler constructs the tickets handler.
func NewHandler(logger *slog.Logger, service *Service, cache *cache.Versioned) *Handler {
	return &Handler{logger: logger, service: service, cache: cache}
}

// MountRoutes registers ticket routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/tickets", h.handleList)
	r.Get("/tickets/{code}", h.handleDetail)
}

var listGroup singleflight.Group

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	searchTerm := q.Get("search")
	activeOnly := q.Get("active") == "true" || q.Get("active") == "1"

	activeKey := "all"
	if activeOnly {
		activeKey = "active"
	}
	key, err := h.cache.BuildKey(r.Context(), "list", activeKey, searchTerm)
	if err != nil {
		h.logger.Warn("ticket cache key", slog.Any("error", err))
	}

	summaries := []Summary{}
	err = h.cache.FetchJSON(r.Context(), key, &summaries, func(ctx context.Context) (any, error) {
		resultChan := listGroup.DoChan(key, func() (any, error) {
			return h.service.List(ctx, searchTerm, activeOnly)
		})
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-resultChan:
			return res.Val, res.Err
		}
	})
	if err != nil {
		h.logger.Error("ticket listing failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	// The full listing is what gets cached; pagination slices per request.
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	p := shared.NewPagination(page, perPage, len(summaries))
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items":      paginate(summaries, p),
		"count":      p.Total,
		"pagination": p,
	})
}

func paginate(summaries []Summary, p shared.Pagination) []Summary {
	start := (p.Page - 1) * p.PerPage
	if start >= len(summaries) {
		return []Summary{}
	}
	end := start + p.PerPage
	if end > len(summaries) {
		end = len(summaries)
	}
	return summaries[start:end]
}

func (h *Handler) handleDetail(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	detail, err := h.service.Detail(r.Context(), code)
	if err != nil {
		h.logger.Error("ticket detail failed", slog.String("ticket_code", code), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if detail == nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no ticket with code "+code)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}
