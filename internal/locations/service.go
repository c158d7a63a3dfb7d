package locations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/consignflow/consignflow/internal/ledger"
	"github.com/consignflow/consignflow/internal/shared"
)

// Store is the persistence surface the service needs.
type Store interface {
	List(ctx context.Context) ([]ledger.Location, error)
	Get(ctx context.Context, id int64) (ledger.Location, error)
	Warehouse(ctx context.Context) (ledger.Location, error)
	UpsertByName(ctx context.Context, loc ledger.Location) (ledger.Location, error)
}

// ErrInvalidKind rejects an unsupported location kind.
var ErrInvalidKind = errors.New("locations: invalid kind")

// ErrNameRequired rejects a location without a name.
var ErrNameRequired = errors.New("locations: name required")

// WarehouseName is the name given to the warehouse row created on first
// import when none exists yet.
const WarehouseName = "Warehouse"

// Service manages the location registry.
type Service struct {
	logger *slog.Logger
	store  Store
}

// NewService builds Service.
func NewService(logger *slog.Logger, store Store) *Service {
	return &Service{logger: logger, store: store}
}

// List returns active locations ordered by name.
func (s *Service) List(ctx context.Context) ([]ledger.Location, error) {
	return s.store.List(ctx)
}

// Get fetches one location by id.
func (s *Service) Get(ctx context.Context, id int64) (ledger.Location, error) {
	return s.store.Get(ctx, id)
}

// Upsert creates or refreshes a location by name.
func (s *Service) Upsert(ctx context.Context, loc ledger.Location) (ledger.Location, error) {
	if loc.Name == "" {
		return ledger.Location{}, ErrNameRequired
	}
	if !loc.Kind.Valid() {
		return ledger.Location{}, fmt.Errorf("%w: %q", ErrInvalidKind, loc.Kind)
	}
	out, err := s.store.UpsertByName(ctx, loc)
	if err != nil {
		return ledger.Location{}, err
	}
	s.logger.Info("location upserted", slog.Int64("id", out.ID), slog.String("name", out.Name), slog.String("kind", string(out.Kind)))
	return out, nil
}

// EnsureCompany returns the company-kind location representing a supplier,
// creating it on demand. The counterpart field carries the exact supplier
// name so return validation never parses display names.
func (s *Service) EnsureCompany(ctx context.Context, supplierName string) (ledger.Location, error) {
	if supplierName == "" {
		return ledger.Location{}, ErrNameRequired
	}
	return s.store.UpsertByName(ctx, ledger.Location{
		Name:        supplierName,
		Kind:        ledger.KindCompany,
		Counterpart: supplierName,
	})
}

// EnsureWarehouse returns the canonical warehouse, creating a default one
// on demand when no active warehouse-kind row exists under any name.
func (s *Service) EnsureWarehouse(ctx context.Context) (ledger.Location, error) {
	loc, err := s.store.Warehouse(ctx)
	if err == nil {
		return loc, nil
	}
	if !errors.Is(err, shared.ErrNoWarehouse) {
		return ledger.Location{}, err
	}
	s.logger.Info("creating default warehouse location")
	return s.store.UpsertByName(ctx, ledger.Location{
		Name: WarehouseName,
		Kind: ledger.KindWarehouse,
	})
}
