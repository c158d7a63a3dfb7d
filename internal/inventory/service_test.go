package inventory

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/consignflow/consignflow/internal/ledger"
)

var (
	company   = ledger.Location{ID: 1, Name: "Karl Storz", Kind: ledger.KindCompany, Counterpart: "Karl Storz"}
	warehouse = ledger.Location{ID: 2, Name: "Central Store", Kind: ledger.KindWarehouse}
	partner   = ledger.Location{ID: 3, Name: "City Surgicals", Kind: ledger.KindPartner}
)

type memoryStore struct {
	entries []ledger.Entry
	batches []ledger.Batch
}

func (m *memoryStore) SelectEntries(_ context.Context, filter ledger.EntryFilter) ([]ledger.Entry, error) {
	var out []ledger.Entry
	for _, e := range m.entries {
		if len(filter.BatchIDs) > 0 && !hasID(filter.BatchIDs, e.BatchID) {
			continue
		}
		if filter.SourceLocationID != 0 && e.SourceLocationID != filter.SourceLocationID {
			continue
		}
		if filter.DestLocationID != 0 && e.DestLocationID != filter.DestLocationID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *memoryStore) SelectBatches(_ context.Context, ids []int64) ([]ledger.Batch, error) {
	if ids == nil {
		return m.batches, nil
	}
	var out []ledger.Batch
	for _, b := range m.batches {
		if hasID(ids, b.ID) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memoryStore) Warehouse(context.Context) (ledger.Location, error) {
	return warehouse, nil
}

func hasID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func entry(batchID int64, from, to ledger.Location, qty int64, day int) ledger.Entry {
	return ledger.Entry{
		BatchID:          batchID,
		Qty:              qty,
		SourceLocationID: from.ID,
		SourceName:       from.Name,
		SourceKind:       from.Kind,
		DestLocationID:   to.ID,
		DestName:         to.Name,
		DestKind:         to.Kind,
		DocDate:          time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newWorld() *memoryStore {
	return &memoryStore{
		batches: []ledger.Batch{
			{ID: 10, SupplierName: "Karl Storz", DeliveryNumber: "DN-100", MaterialCode: "SCOPE-4K", Description: "Endoscope camera head", QtyReceived: 100},
		},
		entries: []ledger.Entry{
			entry(10, company, warehouse, 100, 1), // initial import
		},
	}
}

func TestInventoryAfterCheckout(t *testing.T) {
	store := newWorld()
	store.entries = append(store.entries, entry(10, warehouse, partner, 30, 2))
	svc := NewService(testLogger(), store)

	rows, err := svc.Inventory(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	require.EqualValues(t, 100, row.QtyReceived)
	require.EqualValues(t, 70, row.QtyAtWarehouse)
	require.EqualValues(t, 30, row.QtyOut)
	require.EqualValues(t, 0, row.QtyReturned)
	require.EqualValues(t, 100, row.Outstanding)
}

func TestInventoryAfterReturnToSupplier(t *testing.T) {
	store := newWorld()
	store.entries = append(store.entries,
		entry(10, warehouse, partner, 30, 2),
		entry(10, partner, company, 30, 3),
	)
	svc := NewService(testLogger(), store)

	rows, err := svc.Inventory(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	require.EqualValues(t, 70, row.QtyAtWarehouse)
	require.EqualValues(t, 0, row.QtyOut)
	require.EqualValues(t, 30, row.QtyReturned)
	require.EqualValues(t, 70, row.Outstanding)
}

func TestInitialImportIsNotCountedAsReturn(t *testing.T) {
	// The company→warehouse import must not appear in qty_returned even
	// though its destination chain involves a company source.
	store := newWorld()
	svc := NewService(testLogger(), store)

	rows, err := svc.Inventory(context.Background(), "")
	require.NoError(t, err)
	require.EqualValues(t, 0, rows[0].QtyReturned)
	require.EqualValues(t, 100, rows[0].QtyAtWarehouse)
}

func TestQtyOutClampedAtZero(t *testing.T) {
	// A data anomaly (more returned than received) must not surface a
	// negative quantity.
	store := newWorld()
	store.entries = append(store.entries,
		entry(10, warehouse, partner, 100, 2),
		entry(10, partner, company, 100, 3),
		entry(10, partner, company, 5, 4), // anomalous extra return
	)
	svc := NewService(testLogger(), store)

	rows, err := svc.Inventory(context.Background(), "")
	require.NoError(t, err)
	require.EqualValues(t, 0, rows[0].QtyOut)
	require.GreaterOrEqual(t, rows[0].Outstanding, int64(0))
}

func TestInventorySearchFiltersBeforeAggregation(t *testing.T) {
	store := newWorld()
	store.batches = append(store.batches,
		ledger.Batch{ID: 11, SupplierName: "Olympus", DeliveryNumber: "DN-200", MaterialCode: "LIGHT-LED", Description: "Light source", QtyReceived: 5},
	)
	store.entries = append(store.entries, entry(11, company, warehouse, 5, 1))
	svc := NewService(testLogger(), store)

	rows, err := svc.Inventory(context.Background(), "scope")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "SCOPE-4K", rows[0].MaterialCode)

	rows, err = svc.Inventory(context.Background(), "dn-200")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "LIGHT-LED", rows[0].MaterialCode)
}

func TestInventoryReadIsIdempotent(t *testing.T) {
	store := newWorld()
	store.entries = append(store.entries, entry(10, warehouse, partner, 30, 2))
	svc := NewService(testLogger(), store)

	first, err := svc.Inventory(context.Background(), "")
	require.NoError(t, err)
	second, err := svc.Inventory(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestOutstandingAgreesWithInventory(t *testing.T) {
	store := newWorld()
	store.batches = append(store.batches,
		ledger.Batch{ID: 11, SupplierName: "Karl Storz", DeliveryNumber: "DN-101", MaterialCode: "FORCEPS", QtyReceived: 40},
	)
	store.entries = append(store.entries,
		entry(11, company, warehouse, 40, 1),
		entry(10, warehouse, partner, 25, 2),
		entry(11, warehouse, partner, 40, 2),
		entry(11, partner, company, 40, 3), // fully returned
	)
	svc := NewService(testLogger(), store)
	ctx := context.Background()

	inv, err := svc.Inventory(ctx, "")
	require.NoError(t, err)
	outstanding, err := svc.Outstanding(ctx, "")
	require.NoError(t, err)

	byBatch := make(map[int64]Row)
	for _, r := range inv {
		byBatch[r.BatchID] = r
	}
	for _, o := range outstanding {
		require.EqualValues(t, byBatch[o.BatchID].Outstanding, o.OutstandingQty)
		require.EqualValues(t, byBatch[o.BatchID].QtyReturned, o.ReturnedQty)
	}

	// Fully returned batches are excluded from the outstanding view.
	for _, o := range outstanding {
		require.NotEqualValues(t, 11, o.BatchID)
	}
	require.Len(t, outstanding, 1)
}
