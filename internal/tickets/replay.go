package tickets

import (
	"sort"

	"github.com/consignflow/consignflow/internal/ledger"
)

type locationBalance struct {
	id   int64
	name string
	kind ledger.LocationKind
	qty  int64
}

// replay folds one ticket's entries, ordered by document date, into a
// per-location signed balance and returns the unique location left with a
// strictly positive quantity. Quantity is conserved and movements are
// sequential, so at most one location can qualify; ok is false when none
// does (a data anomaly the caller decides how to report).
func replay(entries []ledger.Entry) (current locationBalance, ok bool) {
	balances := make(map[int64]*locationBalance)
	at := func(id int64, name string, kind ledger.LocationKind) *locationBalance {
		b, exists := balances[id]
		if !exists {
			b = &locationBalance{id: id, name: name, kind: kind}
			balances[id] = b
		}
		return b
	}
	for _, e := range entries {
		at(e.SourceLocationID, e.SourceName, e.SourceKind).qty -= e.Qty
		at(e.DestLocationID, e.DestName, e.DestKind).qty += e.Qty
	}
	for _, b := range balances {
		if b.qty > 0 {
			return *b, true
		}
	}
	return locationBalance{}, false
}

// statusFor maps the holding location's kind to a lifecycle status. A
// ticket without a positive-balance location is treated as closed: all its
// quantity drained back into controlled custody or cancelled out.
func statusFor(current locationBalance, ok bool) Status {
	if !ok {
		return StatusClosed
	}
	switch current.kind {
	case ledger.KindCompany, ledger.KindWarehouse:
		return StatusClosed
	default:
		return StatusActive
	}
}

// Entries usually arrive ordered from the store, but replay correctness
// must not depend on it.
func sortChronological(entries []ledger.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].DocDate.Equal(entries[j].DocDate) {
			return entries[i].DocDate.Before(entries[j].DocDate)
		}
		return entries[i].ID < entries[j].ID
	})
}
