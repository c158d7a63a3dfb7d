package ledger

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

// EntrySource reads movement-log entries.
type EntrySource interface {
	SelectEntries(ctx context.Context, filter EntryFilter) ([]Entry, error)
}

// Source is the read surface the calculator needs.
type Source interface {
	EntrySource
	SelectBatches(ctx context.Context, ids []int64) ([]Batch, error)
}

// Calculator computes net availability per batch and location by folding
// the movement log. It holds no state of its own; every call recomputes
// from the entries the source returns.
type Calculator struct {
	src Source
}

// NewCalculator constructs a Calculator.
func NewCalculator(src Source) *Calculator {
	return &Calculator{src: src}
}

// Available returns the net quantity of one batch at one location.
// Absent data yields zero, never an error.
func (c *Calculator) Available(ctx context.Context, batchID, locationID int64) (int64, error) {
	totals, err := c.AvailableBatch(ctx, []int64{batchID}, locationID)
	if err != nil {
		return 0, err
	}
	return totals[batchID], nil
}

// AvailableBatch returns net quantities for many batches at one location in
// a single pass per direction: one inbound query and one outbound query
// regardless of how many ids are requested.
func (c *Calculator) AvailableBatch(ctx context.Context, batchIDs []int64, locationID int64) (map[int64]int64, error) {
	return AvailableAt(ctx, c.src, batchIDs, locationID)
}

// AvailableAt folds the movement log into net quantities for the given
// batches at one location, against whatever entry source is supplied.
// Running it against a transaction-scoped source gives a revalidation that
// shares the writer's snapshot. The inbound and outbound queries are
// independent and run concurrently.
func AvailableAt(ctx context.Context, src EntrySource, batchIDs []int64, locationID int64) (map[int64]int64, error) {
	totals := make(map[int64]int64, len(batchIDs))
	if len(batchIDs) == 0 {
		return totals, nil
	}

	var inbound, outbound []Entry
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		inbound, err = src.SelectEntries(gctx, EntryFilter{BatchIDs: batchIDs, DestLocationID: locationID})
		return err
	})
	g.Go(func() error {
		var err error
		outbound, err = src.SelectEntries(gctx, EntryFilter{BatchIDs: batchIDs, SourceLocationID: locationID})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, id := range batchIDs {
		totals[id] = 0
	}
	for _, e := range inbound {
		totals[e.BatchID] += e.Qty
	}
	for _, e := range outbound {
		totals[e.BatchID] -= e.Qty
	}
	return totals, nil
}

// AvailableInventory lists every batch with positive availability at a
// location, joined with batch details and sorted by delivery number then
// material code.
func (c *Calculator) AvailableInventory(ctx context.Context, locationID int64) ([]AvailableItem, error) {
	inbound, err := c.src.SelectEntries(ctx, EntryFilter{DestLocationID: locationID})
	if err != nil {
		return nil, err
	}
	if len(inbound) == 0 {
		return nil, nil
	}

	seen := make(map[int64]struct{}, len(inbound))
	ids := make([]int64, 0, len(inbound))
	for _, e := range inbound {
		if _, ok := seen[e.BatchID]; ok {
			continue
		}
		seen[e.BatchID] = struct{}{}
		ids = append(ids, e.BatchID)
	}

	var totals map[int64]int64
	var batches []Batch
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totals, err = c.AvailableBatch(gctx, ids, locationID)
		return err
	})
	g.Go(func() error {
		var err error
		batches, err = c.src.SelectBatches(gctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	items := make([]AvailableItem, 0, len(batches))
	for _, b := range batches {
		available := totals[b.ID]
		if available <= 0 {
			continue
		}
		items = append(items, AvailableItem{
			BatchID:        b.ID,
			SupplierName:   b.SupplierName,
			DeliveryNumber: b.DeliveryNumber,
			DeliveryDate:   b.DeliveryDate,
			MaterialCode:   b.MaterialCode,
			Description:    b.Description,
			HSNCode:        b.HSNCode,
			UnitCost:       b.UnitCost,
			AvailableQty:   available,
		})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].DeliveryNumber != items[j].DeliveryNumber {
			return items[i].DeliveryNumber < items[j].DeliveryNumber
		}
		return items[i].MaterialCode < items[j].MaterialCode
	})
	return items, nil
}
