package documents

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/consignflow/consignflow/internal/ledger"
	"github.com/consignflow/consignflow/internal/platform/httpx"
)

// Handler wires HTTP endpoints for document creation and retrieval.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the documents handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers document routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/documents", h.handleCreate)
	r.Get("/documents/{id}", h.handleGet)
}

type createLineRequest struct {
	BatchID    int64  `json:"batch_id" validate:"required,gt=0"`
	Qty        int64  `json:"qty" validate:"required,gt=0"`
	TicketCode string `json:"ticket_code"`
}

type createRequest struct {
	DocNo            string              `json:"doc_no" validate:"required"`
	DocDate          string              `json:"doc_date" validate:"required,datetime=2006-01-02"`
	SourceLocationID int64               `json:"source_location_id" validate:"required,gt=0"`
	DestLocationID   int64               `json:"dest_location_id" validate:"required,gt=0"`
	CounterpartyName string              `json:"counterparty_name"`
	Notes            string              `json:"notes"`
	Lines            []createLineRequest `json:"lines" validate:"required,min=1,dive"`
}

type createResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	DocID   int64  `json:"doc_id,omitempty"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	docDate, err := time.Parse("2006-01-02", req.DocDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "doc_date must be YYYY-MM-DD")
		return
	}

	lines := make([]Line, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, Line{BatchID: l.BatchID, Qty: l.Qty, TicketCode: l.TicketCode})
	}
	docID, err := h.service.Create(r.Context(), Header{
		DocNo:            req.DocNo,
		Date:             docDate,
		SourceLocationID: req.SourceLocationID,
		DestLocationID:   req.DestLocationID,
		CounterpartyName: req.CounterpartyName,
		Notes:            req.Notes,
	}, lines)
	if err != nil {
		if IsValidationError(err) ||
			errors.Is(err, ledger.ErrBatchNotFound) ||
			errors.Is(err, ledger.ErrLocationNotFound) {
			httpx.JSON(w, http.StatusUnprocessableEntity, createResponse{Success: false, Message: err.Error()})
			return
		}
		h.logger.Error("document creation failed", slog.String("doc_no", req.DocNo), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, createResponse{Success: true, Message: "document created", DocID: docID})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "document id must be a positive integer")
		return
	}
	view, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}
