package locations

import (
	"context"
	"log/slog"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/consignflow/consignflow/internal/ledger"
	"github.com/consignflow/consignflow/internal/shared"
)

type memoryStore struct {
	byName map[string]ledger.Location
	nextID int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{byName: map[string]ledger.Location{}}
}

func (m *memoryStore) List(context.Context) ([]ledger.Location, error) {
	var out []ledger.Location
	for _, loc := range m.byName {
		if loc.Active {
			out = append(out, loc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memoryStore) Get(_ context.Context, id int64) (ledger.Location, error) {
	for _, loc := range m.byName {
		if loc.ID == id {
			return loc, nil
		}
	}
	return ledger.Location{}, ledger.ErrLocationNotFound
}

func (m *memoryStore) Warehouse(context.Context) (ledger.Location, error) {
	var found *ledger.Location
	for _, loc := range m.byName {
		loc := loc
		if loc.Kind == ledger.KindWarehouse && loc.Active && (found == nil || loc.ID < found.ID) {
			found = &loc
		}
	}
	if found == nil {
		return ledger.Location{}, shared.ErrNoWarehouse
	}
	return *found, nil
}

func (m *memoryStore) UpsertByName(_ context.Context, loc ledger.Location) (ledger.Location, error) {
	if existing, ok := m.byName[loc.Name]; ok {
		existing.Active = true
		if loc.Counterpart != "" {
			existing.Counterpart = loc.Counterpart
		}
		if loc.GSTIN != "" {
			existing.GSTIN = loc.GSTIN
		}
		if loc.Address != "" {
			existing.Address = loc.Address
		}
		if loc.Contact != "" {
			existing.Contact = loc.Contact
		}
		m.byName[loc.Name] = existing
		return existing, nil
	}
	m.nextID++
	loc.ID = m.nextID
	loc.Active = true
	m.byName[loc.Name] = loc
	return loc, nil
}

func newTestService(store *memoryStore) *Service {
	return NewService(slog.New(slog.DiscardHandler), store)
}

func TestUpsertCreatesThenUpdates(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)

	created, err := svc.Upsert(context.Background(), ledger.Location{Name: "City Surgicals", Kind: ledger.KindPartner})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	updated, err := svc.Upsert(context.Background(), ledger.Location{Name: "City Surgicals", Kind: ledger.KindPartner, Contact: "98765"})
	require.NoError(t, err)
	require.Equal(t, created.ID, updated.ID)
	require.Equal(t, "98765", updated.Contact)
	require.Len(t, store.byName, 1)
}

func TestUpsertRejectsInvalidInput(t *testing.T) {
	svc := newTestService(newMemoryStore())

	_, err := svc.Upsert(context.Background(), ledger.Location{Kind: ledger.KindPartner})
	require.ErrorIs(t, err, ErrNameRequired)

	_, err = svc.Upsert(context.Background(), ledger.Location{Name: "X", Kind: "depot"})
	require.ErrorIs(t, err, ErrInvalidKind)
}

func TestEnsureCompanySetsCounterpart(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)

	loc, err := svc.EnsureCompany(context.Background(), "Karl Storz")
	require.NoError(t, err)
	require.Equal(t, ledger.KindCompany, loc.Kind)
	require.Equal(t, "Karl Storz", loc.Counterpart)

	again, err := svc.EnsureCompany(context.Background(), "Karl Storz")
	require.NoError(t, err)
	require.Equal(t, loc.ID, again.ID)
	require.Len(t, store.byName, 1)
}

func TestEnsureWarehouseReusesExisting(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)

	// An existing warehouse under a different name is reused, not shadowed.
	existing, err := svc.Upsert(context.Background(), ledger.Location{Name: "Central Store", Kind: ledger.KindWarehouse})
	require.NoError(t, err)

	got, err := svc.EnsureWarehouse(context.Background())
	require.NoError(t, err)
	require.Equal(t, existing.ID, got.ID)
	require.Len(t, store.byName, 1)
}

func TestEnsureWarehouseCreatesDefault(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)

	got, err := svc.EnsureWarehouse(context.Background())
	require.NoError(t, err)
	require.Equal(t, WarehouseName, got.Name)
	require.Equal(t, ledger.KindWarehouse, got.Kind)
}
