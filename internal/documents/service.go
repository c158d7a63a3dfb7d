package documents

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/consignflow/consignflow/internal/ledger"
	"github.com/consignflow/consignflow/internal/shared"
)

// Refresher invalidates cached listings after an accepted write. A nil
// Refresher is a no-op.
type Refresher interface {
	RefreshListings(ctx context.Context) error
}

// Service validates and appends movement documents.
type Service struct {
	logger    *slog.Logger
	store     ledger.Store
	audit     *shared.AuditLogger
	refresher Refresher
}

// NewService builds Service. audit and refresher may be nil.
func NewService(logger *slog.Logger, store ledger.Store, audit *shared.AuditLogger, refresher Refresher) *Service {
	return &Service{logger: logger, store: store, audit: audit, refresher: refresher}
}

// Create validates the request and appends the document header and all of
// its movement entries in one transaction. Validation failures name the
// offending material and quantities; no partial writes survive any
// failure. On success the new document id is returned.
func (s *Service) Create(ctx context.Context, header Header, lines []Line) (int64, error) {
	if header.SourceLocationID == header.DestLocationID {
		return 0, ErrSameLocation
	}
	if len(lines) == 0 {
		return 0, ErrEmptyLines
	}
	for _, l := range lines {
		if l.Qty <= 0 {
			return 0, fmt.Errorf("%w: batch %d", errInvalidLine, l.BatchID)
		}
	}

	var source, dest ledger.Location
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		source, err = s.store.GetLocation(gctx, header.SourceLocationID)
		return err
	})
	g.Go(func() error {
		var err error
		dest, err = s.store.GetLocation(gctx, header.DestLocationID)
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, err
	}

	docType := ledger.DocTypeFor(dest.Kind)

	batchIDs := uniqueBatchIDs(lines)
	batches, err := s.store.SelectBatches(ctx, batchIDs)
	if err != nil {
		return 0, err
	}
	byID := make(map[int64]ledger.Batch, len(batches))
	for _, b := range batches {
		byID[b.ID] = b
	}
	for _, id := range batchIDs {
		if _, ok := byID[id]; !ok {
			return 0, fmt.Errorf("%w: id %d", ledger.ErrBatchNotFound, id)
		}
	}

	var docID int64
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.TxStore) error {
		// Row locks serialise concurrent documents against overlapping
		// batches, so the availability fold below cannot go stale between
		// check and insert.
		if err := tx.LockBatches(ctx, batchIDs); err != nil {
			return err
		}
		available, err := ledger.AvailableAt(ctx, tx, batchIDs, source.ID)
		if err != nil {
			return err
		}
		requested := make(map[int64]int64, len(batchIDs))
		for _, l := range lines {
			requested[l.BatchID] += l.Qty
		}
		for _, id := range batchIDs {
			if requested[id] > available[id] {
				return &InsufficientAvailabilityError{
					MaterialCode: byID[id].MaterialCode,
					Available:    available[id],
					Requested:    requested[id],
				}
			}
		}

		if docType == ledger.DocTypeReturn {
			if err := checkReturnSupplier(dest, lines, byID); err != nil {
				return err
			}
		}

		entries, err := s.assignTickets(ctx, tx, header, source, dest, lines, byID)
		if err != nil {
			return err
		}

		docID, err = tx.InsertDocument(ctx, ledger.Document{
			DocNo:            header.DocNo,
			Type:             docType,
			Date:             header.Date,
			SourceLocationID: source.ID,
			DestLocationID:   dest.ID,
			CounterpartyName: header.CounterpartyName,
			Notes:            header.Notes,
		})
		if err != nil {
			return err
		}
		return tx.InsertEntries(ctx, docID, entries)
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("document created",
		slog.Int64("doc_id", docID),
		slog.String("doc_no", header.DocNo),
		slog.String("doc_type", string(docType)),
		slog.String("source", source.Name),
		slog.String("dest", dest.Name),
		slog.Int("lines", len(lines)))
	s.recordAudit(ctx, docID, header, docType, len(lines))
	if s.refresher != nil {
		if err := s.refresher.RefreshListings(ctx); err != nil {
			s.logger.Warn("listing refresh enqueue failed", slog.Any("error", err))
		}
	}
	return docID, nil
}

// Get returns a stored document with its lines, or shared.ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (View, error) {
	doc, entries, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return View{}, err
	}
	view := View{Document: doc, Lines: entries}
	if len(entries) > 0 {
		view.SourceName = entries[0].SourceName
		view.DestName = entries[0].DestName
	}
	return view, nil
}

// checkReturnSupplier verifies every returned batch originates from the
// supplier the destination company represents. All mismatches are
// collected so the caller sees the whole problem at once.
func checkReturnSupplier(dest ledger.Location, lines []Line, byID map[int64]ledger.Batch) error {
	supplier := dest.Counterpart
	if supplier == "" {
		supplier = dest.Name
	}
	var mismatches []SupplierMismatch
	seen := make(map[int64]struct{}, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.BatchID]; ok {
			continue
		}
		seen[l.BatchID] = struct{}{}
		b := byID[l.BatchID]
		if b.SupplierName != supplier {
			mismatches = append(mismatches, SupplierMismatch{
				MaterialCode: b.MaterialCode,
				SupplierName: b.SupplierName,
			})
		}
	}
	if len(mismatches) > 0 {
		return &SupplierMismatchError{Supplier: supplier, Mismatches: mismatches}
	}
	return nil
}

// assignTickets resolves a ticket code per line: an explicit code wins,
// then the most recent code that moved the batch into the source location,
// then a freshly generated code when goods leave the warehouse for the
// field. Any other route gets no code.
func (s *Service) assignTickets(ctx context.Context, tx ledger.TxStore, header Header, source, dest ledger.Location, lines []Line, byID map[int64]ledger.Batch) ([]ledger.Entry, error) {
	var carryIDs []int64
	for _, l := range lines {
		if l.TicketCode == "" {
			carryIDs = append(carryIDs, l.BatchID)
		}
	}
	carried := map[int64]string{}
	if len(carryIDs) > 0 {
		var err error
		carried, err = tx.LatestTicketInto(ctx, carryIDs, source.ID)
		if err != nil {
			return nil, err
		}
	}

	generate := source.Kind == ledger.KindWarehouse &&
		(dest.Kind == ledger.KindPartner || dest.Kind == ledger.KindHospital)
	var nextSeq int64

	entries := make([]ledger.Entry, 0, len(lines))
	for _, l := range lines {
		code := l.TicketCode
		if code == "" {
			code = carried[l.BatchID]
		}
		if code == "" && generate {
			if nextSeq == 0 {
				highest, err := tx.HighestTicketCode(ctx, ticketPrefix(header.Date))
				if err != nil {
					return nil, err
				}
				nextSeq = ticketSequence(highest) + 1
			}
			code = formatTicketCode(header.Date, nextSeq)
			nextSeq++
		}
		b := byID[l.BatchID]
		entries = append(entries, ledger.Entry{
			BatchID:             l.BatchID,
			Qty:                 l.Qty,
			TicketCode:          code,
			MaterialCode:        b.MaterialCode,
			MaterialDescription: b.Description,
			DeliveryNumber:      b.DeliveryNumber,
			DeliveryDate:        b.DeliveryDate,
		})
	}
	return entries, nil
}

func (s *Service) recordAudit(ctx context.Context, docID int64, header Header, docType ledger.DocType, lineCount int) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		Action:   "document.create",
		Entity:   "document",
		EntityID: strconv.FormatInt(docID, 10),
		Meta: map[string]any{
			"doc_no":   header.DocNo,
			"doc_type": string(docType),
			"lines":    lineCount,
		},
	})
	if err != nil {
		s.logger.Warn("audit record failed", slog.Int64("doc_id", docID), slog.Any("error", err))
	}
}

func uniqueBatchIDs(lines []Line) []int64 {
	seen := make(map[int64]struct{}, len(lines))
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.BatchID]; ok {
			continue
		}
		seen[l.BatchID] = struct{}{}
		ids = append(ids, l.BatchID)
	}
	return ids
}
