package imports

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/consignflow/consignflow/internal/platform/httpx"
)

// Handler wires the challan import endpoint.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the imports handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers import routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/imports/challans", h.handleImport)
}

type rowRequest struct {
	MaterialCode   string  `json:"material_code" validate:"required"`
	Description    string  `json:"description"`
	HSNCode        string  `json:"hsn_code"`
	DeliveryNumber string  `json:"delivery_number" validate:"required"`
	DeliveryDate   string  `json:"delivery_date" validate:"omitempty,datetime=2006-01-02"`
	UnitCost       float64 `json:"unit_cost" validate:"gte=0"`
	Qty            int64   `json:"qty" validate:"required,gt=0"`
}

type importRequest struct {
	SupplierName string       `json:"supplier_name" validate:"required"`
	Rows         []rowRequest `json:"rows" validate:"required,min=1,dive"`
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	rows := make([]Row, 0, len(req.Rows))
	for _, row := range req.Rows {
		var deliveryDate time.Time
		if row.DeliveryDate != "" {
			deliveryDate, _ = time.Parse("2006-01-02", row.DeliveryDate)
		}
		rows = append(rows, Row{
			MaterialCode:   row.MaterialCode,
			Description:    row.Description,
			HSNCode:        row.HSNCode,
			DeliveryNumber: row.DeliveryNumber,
			DeliveryDate:   deliveryDate,
			UnitCost:       row.UnitCost,
			Qty:            row.Qty,
		})
	}

	result, err := h.service.Import(r.Context(), req.SupplierName, rows)
	if err != nil {
		var rowErr *RowError
		if errors.Is(err, ErrSupplierRequired) || errors.Is(err, ErrNoRows) || errors.As(err, &rowErr) {
			httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
			return
		}
		h.logger.Error("challan import failed", slog.String("supplier", req.SupplierName), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}
