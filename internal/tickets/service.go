package tickets

import (
	"context"
	"log/slog"
	"sort"

	"github.com/consignflow/consignflow/internal/ledger"
	"github.com/consignflow/consignflow/internal/shared"
)

// Service derives ticket summaries and histories from the movement log.
type Service struct {
	logger *slog.Logger
	store  ledger.EntrySource
}

// NewService builds Service.
func NewService(logger *slog.Logger, store ledger.EntrySource) *Service {
	return &Service{logger: logger, store: store}
}

// List returns every ticket matching the search term, active tickets
// first, newest codes first within each group. Search matches ticket code,
// material code and delivery number.
func (s *Service) List(ctx context.Context, searchTerm string, activeOnly bool) ([]Summary, error) {
	entries, err := s.store.SelectEntries(ctx, ledger.EntryFilter{TicketedOnly: true})
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]ledger.Entry)
	for _, e := range entries {
		if e.TicketCode == "" {
			continue
		}
		if searchTerm != "" &&
			!shared.FoldedContains(e.TicketCode, searchTerm) &&
			!shared.FoldedContains(e.MaterialCode, searchTerm) &&
			!shared.FoldedContains(e.DeliveryNumber, searchTerm) {
			continue
		}
		grouped[e.TicketCode] = append(grouped[e.TicketCode], e)
	}

	summaries := make([]Summary, 0, len(grouped))
	for code, group := range grouped {
		summary := s.summarise(code, group)
		if activeOnly && summary.Status != StatusActive {
			continue
		}
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Status != summaries[j].Status {
			return summaries[i].Status == StatusActive
		}
		return summaries[i].TicketCode > summaries[j].TicketCode
	})
	return summaries, nil
}

// Detail returns the ticket summary plus its full ordered movement
// history, or nil when no entry carries the code. A ticket with zero
// movements cannot exist by construction, so nil unambiguously means
// "no such ticket".
func (s *Service) Detail(ctx context.Context, ticketCode string) (*Detail, error) {
	entries, err := s.store.SelectEntries(ctx, ledger.EntryFilter{TicketCode: ticketCode})
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	sortChronological(entries)
	movements := make([]Movement, 0, len(entries))
	for _, e := range entries {
		movements = append(movements, Movement{
			EntryID:          e.ID,
			DocNo:            e.DocNo,
			DocDate:          e.DocDate,
			DocType:          e.DocType,
			FromLocation:     e.SourceName,
			FromLocationKind: e.SourceKind,
			ToLocation:       e.DestName,
			ToLocationKind:   e.DestKind,
			Qty:              e.Qty,
		})
	}

	return &Detail{
		Summary:   s.summarise(ticketCode, entries),
		Movements: movements,
	}, nil
}

func (s *Service) summarise(code string, entries []ledger.Entry) Summary {
	sortChronological(entries)
	current, ok := replay(entries)
	if !ok {
		s.logger.Warn("ticket has no positive-balance location", slog.String("ticket_code", code))
	}

	first := entries[0]
	summary := Summary{
		TicketCode:          code,
		MaterialCode:        first.MaterialCode,
		MaterialDescription: first.MaterialDescription,
		DeliveryNumber:      first.DeliveryNumber,
		TotalQty:            first.Qty,
		Status:              statusFor(current, ok),
		CreatedDate:         first.DocDate,
	}
	if ok {
		summary.CurrentLocation = current.name
		summary.CurrentLocationKind = current.kind
		summary.QtyAtLocation = current.qty
	}
	return summary
}
