// Package imports receives supplier challans: it creates the batch rows
// and the initial inbound movement that seeds every downstream
// computation.
package imports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/consignflow/consignflow/internal/ledger"
	"github.com/consignflow/consignflow/internal/shared"
)

// Row is one challan line to import as a batch.
type Row struct {
	MaterialCode   string
	Description    string
	HSNCode        string
	DeliveryNumber string
	DeliveryDate   time.Time
	UnitCost       float64
	Qty            int64
}

// Result reports what an accepted import created.
type Result struct {
	DocID    int64   `json:"doc_id"`
	BatchIDs []int64 `json:"batch_ids"`
}

// Import validation errors.
var (
	ErrSupplierRequired = errors.New("imports: supplier name required")
	ErrNoRows           = errors.New("imports: at least one row required")
)

// RowError names the offending row and what is wrong with it.
type RowError struct {
	Index  int
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Index+1, e.Reason)
}

// LocationEnsurer resolves the two fixed endpoints of an import.
type LocationEnsurer interface {
	EnsureCompany(ctx context.Context, supplierName string) (ledger.Location, error)
	EnsureWarehouse(ctx context.Context) (ledger.Location, error)
}

// Refresher invalidates cached listings after an accepted write. A nil
// Refresher is a no-op.
type Refresher interface {
	RefreshListings(ctx context.Context) error
}

// Service imports challans.
type Service struct {
	logger    *slog.Logger
	store     ledger.Store
	locations LocationEnsurer
	audit     *shared.AuditLogger
	refresher Refresher
}

// NewService builds Service. audit and refresher may be nil.
func NewService(logger *slog.Logger, store ledger.Store, locations LocationEnsurer, audit *shared.AuditLogger, refresher Refresher) *Service {
	return &Service{logger: logger, store: store, locations: locations, audit: audit, refresher: refresher}
}

// Import validates the rows, creates one batch per row and appends the
// inbound document moving each batch's full received quantity from the
// supplier's company location into the warehouse. Batches and the
// document commit together or not at all.
func (s *Service) Import(ctx context.Context, supplierName string, rows []Row) (Result, error) {
	if supplierName == "" {
		return Result{}, ErrSupplierRequired
	}
	if len(rows) == 0 {
		return Result{}, ErrNoRows
	}
	for i, row := range rows {
		switch {
		case row.MaterialCode == "":
			return Result{}, &RowError{Index: i, Reason: "material code required"}
		case row.DeliveryNumber == "":
			return Result{}, &RowError{Index: i, Reason: "delivery number required"}
		case row.Qty <= 0:
			return Result{}, &RowError{Index: i, Reason: "quantity must be positive"}
		}
	}

	company, err := s.locations.EnsureCompany(ctx, supplierName)
	if err != nil {
		return Result{}, err
	}
	warehouse, err := s.locations.EnsureWarehouse(ctx)
	if err != nil {
		return Result{}, err
	}

	// Sort a copy; the caller's slice stays untouched.
	rows = append([]Row(nil), rows...)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].DeliveryNumber != rows[j].DeliveryNumber {
			return rows[i].DeliveryNumber < rows[j].DeliveryNumber
		}
		return rows[i].MaterialCode < rows[j].MaterialCode
	})

	rawRef := uuid.NewString()
	var result Result
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.TxStore) error {
		batches := make([]ledger.Batch, 0, len(rows))
		for _, row := range rows {
			batches = append(batches, ledger.Batch{
				SupplierName:   supplierName,
				DeliveryNumber: row.DeliveryNumber,
				DeliveryDate:   row.DeliveryDate,
				MaterialCode:   row.MaterialCode,
				Description:    row.Description,
				HSNCode:        row.HSNCode,
				UnitCost:       row.UnitCost,
				QtyReceived:    row.Qty,
			})
		}
		created, err := tx.InsertBatches(ctx, batches, rawRef)
		if err != nil {
			return err
		}

		docID, err := tx.InsertDocument(ctx, ledger.Document{
			DocNo:            importDocNo(rawRef),
			Type:             ledger.DocTypeIn,
			Date:             importDate(rows),
			SourceLocationID: company.ID,
			DestLocationID:   warehouse.ID,
			CounterpartyName: supplierName,
		})
		if err != nil {
			return err
		}

		entries := make([]ledger.Entry, 0, len(created))
		for _, b := range created {
			entries = append(entries, ledger.Entry{
				BatchID:             b.ID,
				Qty:                 b.QtyReceived,
				MaterialCode:        b.MaterialCode,
				MaterialDescription: b.Description,
				DeliveryNumber:      b.DeliveryNumber,
				DeliveryDate:        b.DeliveryDate,
			})
			result.BatchIDs = append(result.BatchIDs, b.ID)
		}
		result.DocID = docID
		return tx.InsertEntries(ctx, docID, entries)
	})
	if err != nil {
		return Result{}, err
	}

	s.logger.Info("challan imported",
		slog.String("supplier", supplierName),
		slog.Int64("doc_id", result.DocID),
		slog.Int("batches", len(result.BatchIDs)),
		slog.String("raw_doc_ref", rawRef))
	s.recordAudit(ctx, supplierName, rawRef, result)
	if s.refresher != nil {
		if err := s.refresher.RefreshListings(ctx); err != nil {
			s.logger.Warn("listing refresh enqueue failed", slog.Any("error", err))
		}
	}
	return result, nil
}

// importDate is the earliest delivery date among the rows, falling back to
// today when the challan carries none.
func importDate(rows []Row) time.Time {
	var earliest time.Time
	for _, row := range rows {
		if row.DeliveryDate.IsZero() {
			continue
		}
		if earliest.IsZero() || row.DeliveryDate.Before(earliest) {
			earliest = row.DeliveryDate
		}
	}
	if earliest.IsZero() {
		return time.Now().UTC().Truncate(24 * time.Hour)
	}
	return earliest
}

func importDocNo(rawRef string) string {
	return "IMP-" + rawRef[:8]
}

func (s *Service) recordAudit(ctx context.Context, supplierName, rawRef string, result Result) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		Action:   "challan.import",
		Entity:   "document",
		EntityID: fmt.Sprintf("%d", result.DocID),
		Meta: map[string]any{
			"supplier":    supplierName,
			"raw_doc_ref": rawRef,
			"batches":     len(result.BatchIDs),
		},
	})
	if err != nil {
		s.logger.Warn("audit record failed", slog.Int64("doc_id", result.DocID), slog.Any("error", err))
	}
}
