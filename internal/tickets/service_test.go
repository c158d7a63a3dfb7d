package tickets

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/consignflow/consignflow/internal/ledger"
)

type memorySource struct {
	entries []ledger.Entry
}

func (m *memorySource) SelectEntries(_ context.Context, f ledger.EntryFilter) ([]ledger.Entry, error) {
	out := []ledger.Entry{}
	for _, e := range m.entries {
		if f.TicketedOnly && e.TicketCode == "" {
			continue
		}
		if f.TicketCode != "" && e.TicketCode != f.TicketCode {
			continue
		}
		if len(f.BatchIDs) > 0 {
			found := false
			for _, id := range f.BatchIDs {
				if id == e.BatchID {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		if f.SourceLocationID != 0 && e.SourceLocationID != f.SourceLocationID {
			continue
		}
		if f.DestLocationID != 0 && e.DestLocationID != f.DestLocationID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

var (
	companyLoc   = ledger.Location{ID: 1, Name: "Karl Storz", Kind: ledger.KindCompany}
	warehouseLoc = ledger.Location{ID: 2, Name: "Central Store", Kind: ledger.KindWarehouse}
	partnerLoc   = ledger.Location{ID: 3, Name: "City Surgicals", Kind: ledger.KindPartner}
	hospitalLoc  = ledger.Location{ID: 4, Name: "Apollo OT", Kind: ledger.KindHospital}
)

var nextEntryID int64

func entry(src, dst ledger.Location, qty int64, ticket string, day int) ledger.Entry {
	nextEntryID++
	return ledger.Entry{
		ID:               nextEntryID,
		DocID:            nextEntryID,
		BatchID:          10,
		Qty:              qty,
		TicketCode:       ticket,
		MaterialCode:     "SCOPE-4K",
		DeliveryNumber:   "DN-100",
		DocNo:            "DOC-" + ticket,
		DocType:          ledger.DocTypeFor(dst.Kind),
		DocDate:          time.Date(2026, 3, day, 0, 0, 0, 0, time.UTC),
		SourceLocationID: src.ID,
		DestLocationID:   dst.ID,
		SourceName:       src.Name,
		SourceKind:       src.Kind,
		DestName:         dst.Name,
		DestKind:         dst.Kind,
	}
}

func newService(entries ...ledger.Entry) *Service {
	return NewService(slog.New(slog.DiscardHandler), &memorySource{entries: entries})
}

func TestListActiveWhileInField(t *testing.T) {
	svc := newService(
		entry(warehouseLoc, partnerLoc, 30, "TKT-20260302-0001", 2),
	)

	got, err := svc.List(context.Background(), "", false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, StatusActive, got[0].Status)
	require.Equal(t, partnerLoc.Name, got[0].CurrentLocation)
	require.Equal(t, ledger.KindPartner, got[0].CurrentLocationKind)
	require.Equal(t, int64(30), got[0].QtyAtLocation)
	require.Equal(t, int64(30), got[0].TotalQty)
}

func TestListClosesOnFullReturnToWarehouse(t *testing.T) {
	svc := newService(
		entry(warehouseLoc, partnerLoc, 30, "TKT-20260302-0001", 2),
		entry(partnerLoc, warehouseLoc, 30, "TKT-20260302-0001", 5),
	)

	// The warehouse issued and received the same quantity, so replay nets
	// every location to zero: closed, with no holding location to report.
	got, err := svc.List(context.Background(), "", false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, StatusClosed, got[0].Status)
	require.Empty(t, got[0].CurrentLocation)
	require.Zero(t, got[0].QtyAtLocation)
}

func TestListClosesOnReturnToCompany(t *testing.T) {
	svc := newService(
		entry(warehouseLoc, partnerLoc, 30, "TKT-20260302-0001", 2),
		entry(partnerLoc, companyLoc, 30, "TKT-20260302-0001", 6),
	)

	got, err := svc.List(context.Background(), "", false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, StatusClosed, got[0].Status)
}

func TestListStaysActiveOnPartialReturn(t *testing.T) {
	svc := newService(
		entry(warehouseLoc, partnerLoc, 30, "TKT-20260302-0001", 2),
		entry(partnerLoc, warehouseLoc, 10, "TKT-20260302-0001", 5),
	)

	got, err := svc.List(context.Background(), "", false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, StatusActive, got[0].Status)
	require.Equal(t, int64(20), got[0].QtyAtLocation)
	require.Equal(t, int64(30), got[0].TotalQty)
}

func TestListFollowsOnwardMovement(t *testing.T) {
	svc := newService(
		entry(warehouseLoc, partnerLoc, 30, "TKT-20260302-0001", 2),
		entry(partnerLoc, hospitalLoc, 30, "TKT-20260302-0001", 4),
	)

	got, err := svc.List(context.Background(), "", false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, StatusActive, got[0].Status)
	require.Equal(t, hospitalLoc.Name, got[0].CurrentLocation)
	require.Equal(t, ledger.KindHospital, got[0].CurrentLocationKind)
}

func TestListSortsActiveFirstThenCodeDescending(t *testing.T) {
	svc := newService(
		entry(warehouseLoc, partnerLoc, 10, "TKT-20260301-0001", 1),
		entry(partnerLoc, warehouseLoc, 10, "TKT-20260301-0001", 2),
		entry(warehouseLoc, partnerLoc, 10, "TKT-20260303-0001", 3),
		entry(warehouseLoc, partnerLoc, 10, "TKT-20260304-0001", 4),
	)

	got, err := svc.List(context.Background(), "", false)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "TKT-20260304-0001", got[0].TicketCode)
	require.Equal(t, StatusActive, got[0].Status)
	require.Equal(t, "TKT-20260303-0001", got[1].TicketCode)
	require.Equal(t, StatusActive, got[1].Status)
	require.Equal(t, "TKT-20260301-0001", got[2].TicketCode)
	require.Equal(t, StatusClosed, got[2].Status)
}

func TestListActiveOnlyFilter(t *testing.T) {
	svc := newService(
		entry(warehouseLoc, partnerLoc, 10, "TKT-20260301-0001", 1),
		entry(partnerLoc, warehouseLoc, 10, "TKT-20260301-0001", 2),
		entry(warehouseLoc, partnerLoc, 10, "TKT-20260303-0001", 3),
	)

	got, err := svc.List(context.Background(), "", true)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "TKT-20260303-0001", got[0].TicketCode)
}

func TestListSearchMatchesCodeMaterialAndDelivery(t *testing.T) {
	svc := newService(
		entry(warehouseLoc, partnerLoc, 10, "TKT-20260301-0001", 1),
	)

	for _, term := range []string{"tkt-20260301", "scope", "dn-100"} {
		got, err := svc.List(context.Background(), term, false)
		require.NoError(t, err, term)
		require.Len(t, got, 1, term)
	}

	got, err := svc.List(context.Background(), "no-such-thing", false)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestListIgnoresUnticketedEntries(t *testing.T) {
	svc := newService(
		entry(companyLoc, warehouseLoc, 100, "", 1),
		entry(warehouseLoc, partnerLoc, 30, "TKT-20260302-0001", 2),
	)

	got, err := svc.List(context.Background(), "", false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "TKT-20260302-0001", got[0].TicketCode)
}

func TestListNoPositiveBalanceAnomaly(t *testing.T) {
	// A field-to-field loop with no issuing movement nets every location to
	// zero; replay finds no holder and the ticket is reported closed.
	svc := newService(
		entry(partnerLoc, hospitalLoc, 30, "TKT-20260302-0001", 2),
		entry(hospitalLoc, partnerLoc, 30, "TKT-20260302-0001", 4),
	)

	got, err := svc.List(context.Background(), "", false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, StatusClosed, got[0].Status)
	require.Empty(t, got[0].CurrentLocation)
	require.Zero(t, got[0].QtyAtLocation)
}

func TestListClosedAtWarehouseWhenOnlyReturnRecorded(t *testing.T) {
	// Only the return leg made it into the log: the warehouse holds a
	// strictly positive balance, so it is reported as the closing location.
	svc := newService(
		entry(partnerLoc, warehouseLoc, 30, "TKT-20260302-0001", 2),
	)

	got, err := svc.List(context.Background(), "", false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, StatusClosed, got[0].Status)
	require.Equal(t, warehouseLoc.Name, got[0].CurrentLocation)
	require.Equal(t, int64(30), got[0].QtyAtLocation)
}

func TestDetailOrdersMovementsChronologically(t *testing.T) {
	first := entry(warehouseLoc, partnerLoc, 30, "TKT-20260302-0001", 2)
	second := entry(partnerLoc, hospitalLoc, 30, "TKT-20260302-0001", 4)
	// Feed out of order; the service must sort by document date.
	svc := newService(second, first)

	got, err := svc.Detail(context.Background(), "TKT-20260302-0001")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Movements, 2)
	require.Equal(t, first.ID, got.Movements[0].EntryID)
	require.Equal(t, second.ID, got.Movements[1].EntryID)
	require.Equal(t, first.DocDate, got.CreatedDate)
	require.Equal(t, int64(30), got.TotalQty)
	require.Equal(t, hospitalLoc.Name, got.CurrentLocation)
}

func TestDetailUnknownCode(t *testing.T) {
	svc := newService(
		entry(warehouseLoc, partnerLoc, 30, "TKT-20260302-0001", 2),
	)

	got, err := svc.Detail(context.Background(), "TKT-20990101-0001")
	require.NoError(t, err)
	require.Nil(t, got)
}
