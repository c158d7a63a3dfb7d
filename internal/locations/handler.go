package locations

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/consignflow/consignflow/internal/ledger"
	"github.com/consignflow/consignflow/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the location registry.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the locations handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers location routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/locations", h.handleList)
	r.Post("/locations", h.handleUpsert)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	locs, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("location listing failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": locs, "count": len(locs)})
}

type upsertRequest struct {
	Name        string `json:"name" validate:"required"`
	Kind        string `json:"kind" validate:"required,oneof=warehouse company partner hospital"`
	Counterpart string `json:"counterpart"`
	GSTIN       string `json:"gstin"`
	Address     string `json:"address"`
	Contact     string `json:"contact"`
}

func (h *Handler) handleUpsert(w http.ResponseWriter, r *http.Request) {
	var req upsertRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	loc, err := h.service.Upsert(r.Context(), ledger.Location{
		Name:        req.Name,
		Kind:        ledger.LocationKind(req.Kind),
		Counterpart: req.Counterpart,
		GSTIN:       req.GSTIN,
		Address:     req.Address,
		Contact:     req.Contact,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidKind) || errors.Is(err, ErrNameRequired) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		h.logger.Error("location upsert failed", slog.String("name", req.Name), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, loc)
}
