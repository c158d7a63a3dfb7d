package inventory

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/consignflow/consignflow/internal/ledger"
	"github.com/consignflow/consignflow/internal/shared"
)

// Store abstracts the ledger reads this service needs.
type Store interface {
	SelectEntries(ctx context.Context, filter ledger.EntryFilter) ([]ledger.Entry, error)
	SelectBatches(ctx context.Context, ids []int64) ([]ledger.Batch, error)
	Warehouse(ctx context.Context) (ledger.Location, error)
}

// Service computes the inventory breakdown and the outstanding view. It
// keeps no state; every call refolds the movement log, so reads are
// idempotent between writes.
type Service struct {
	logger *slog.Logger
	store  Store
	calc   *ledger.Calculator
}

// NewService builds Service.
func NewService(logger *slog.Logger, store Store) *Service {
	return &Service{logger: logger, store: store, calc: ledger.NewCalculator(store)}
}

// Inventory returns the per-batch breakdown, optionally filtered by a
// case-insensitive substring over delivery number, material code and
// description. The filter runs before aggregation so unmatched batches
// never hit the availability queries.
func (s *Service) Inventory(ctx context.Context, searchTerm string) ([]Row, error) {
	warehouse, err := s.store.Warehouse(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrNoWarehouse) {
			s.logger.Warn("inventory requested before any warehouse exists")
			return []Row{}, nil
		}
		return nil, err
	}

	batches, err := s.store.SelectBatches(ctx, nil)
	if err != nil {
		return nil, err
	}

	filtered := batches[:0:0]
	for _, b := range batches {
		if searchTerm == "" ||
			shared.FoldedContains(b.DeliveryNumber, searchTerm) ||
			shared.FoldedContains(b.MaterialCode, searchTerm) ||
			shared.FoldedContains(b.Description, searchTerm) {
			filtered = append(filtered, b)
		}
	}
	if len(filtered) == 0 {
		return []Row{}, nil
	}

	ids := make([]int64, len(filtered))
	for i, b := range filtered {
		ids[i] = b.ID
	}

	atWarehouse, err := s.calc.AvailableBatch(ctx, ids, warehouse.ID)
	if err != nil {
		return nil, err
	}
	returned, err := s.returnedTotals(ctx, ids)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(filtered))
	for _, b := range filtered {
		wh := atWarehouse[b.ID]
		ret := returned[b.ID]
		out := b.QtyReceived - wh - ret
		if out < 0 {
			// Data anomalies must never surface as negative quantities.
			out = 0
		}
		rows = append(rows, Row{
			BatchID:        b.ID,
			DeliveryNumber: b.DeliveryNumber,
			DeliveryDate:   b.DeliveryDate,
			SupplierName:   b.SupplierName,
			MaterialCode:   b.MaterialCode,
			Description:    b.Description,
			HSNCode:        b.HSNCode,
			QtyReceived:    b.QtyReceived,
			QtyAtWarehouse: wh,
			QtyOut:         out,
			QtyReturned:    ret,
			Outstanding:    wh + out,
		})
	}
	return rows, nil
}

// returnedTotals sums quantities that terminated at a company location from
// a non-company origin. The source-kind exclusion keeps the initial
// company→warehouse import out of the return totals.
func (s *Service) returnedTotals(ctx context.Context, batchIDs []int64) (map[int64]int64, error) {
	entries, err := s.store.SelectEntries(ctx, ledger.EntryFilter{BatchIDs: batchIDs})
	if err != nil {
		return nil, err
	}
	totals := make(map[int64]int64)
	for _, e := range entries {
		if e.DestKind == ledger.KindCompany && e.SourceKind != ledger.KindCompany {
			totals[e.BatchID] += e.Qty
		}
	}
	return totals, nil
}

// Outstanding lists batches whose quantity has not fully returned to the
// originating supplier. It is a filter over the same aggregation as
// Inventory, so the two views can never disagree.
func (s *Service) Outstanding(ctx context.Context, deliveryFilter string) ([]OutstandingRow, error) {
	rows, err := s.Inventory(ctx, "")
	if err != nil {
		return nil, err
	}
	out := make([]OutstandingRow, 0, len(rows))
	for _, r := range rows {
		if r.Outstanding <= 0 {
			continue
		}
		if deliveryFilter != "" && !shared.FoldedContains(r.DeliveryNumber, deliveryFilter) {
			continue
		}
		out = append(out, OutstandingRow{
			BatchID:        r.BatchID,
			MaterialCode:   r.MaterialCode,
			Description:    r.Description,
			DeliveryNumber: r.DeliveryNumber,
			SupplierName:   r.SupplierName,
			InitialQty:     r.QtyReceived,
			ReturnedQty:    r.QtyReturned,
			OutstandingQty: r.Outstanding,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DeliveryNumber != out[j].DeliveryNumber {
			return out[i].DeliveryNumber < out[j].DeliveryNumber
		}
		return out[i].MaterialCode < out[j].MaterialCode
	})
	return out, nil
}
