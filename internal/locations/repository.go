// Package locations is the registry of places goods move between. Rows are
// created on demand and never duplicated by name.
package locations

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/consignflow/consignflow/internal/ledger"
	"github.com/consignflow/consignflow/internal/shared"
)

// Repository persists locations in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const columns = `id, name, kind, active, COALESCE(counterpart, ''), COALESCE(gstin, ''), COALESCE(address, ''), COALESCE(contact, '')`

func scan(row pgx.Row) (ledger.Location, error) {
	var loc ledger.Location
	err := row.Scan(&loc.ID, &loc.Name, &loc.Kind, &loc.Active, &loc.Counterpart, &loc.GSTIN, &loc.Address, &loc.Contact)
	return loc, err
}

// List returns active locations ordered by name.
func (r *Repository) List(ctx context.Context) ([]ledger.Location, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM locations WHERE active ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ledger.Location
	for rows.Next() {
		loc, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}

// Get fetches one location by id.
func (r *Repository) Get(ctx context.Context, id int64) (ledger.Location, error) {
	loc, err := scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM locations WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Location{}, ledger.ErrLocationNotFound
	}
	return loc, err
}

// Warehouse returns the canonical warehouse location: the oldest active
// warehouse-kind row.
func (r *Repository) Warehouse(ctx context.Context) (ledger.Location, error) {
	loc, err := scan(r.pool.QueryRow(ctx,
		`SELECT `+columns+` FROM locations WHERE kind = $1 AND active ORDER BY id ASC LIMIT 1`, ledger.KindWarehouse))
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Location{}, shared.ErrNoWarehouse
	}
	return loc, err
}

// UpsertByName creates the location or refreshes an existing row of the
// same name. The kind of an existing row is never changed by an upsert;
// optional fields are only overwritten when the new value is non-empty.
func (r *Repository) UpsertByName(ctx context.Context, loc ledger.Location) (ledger.Location, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO locations (name, kind, active, counterpart, gstin, address, contact)
		VALUES ($1, $2, TRUE, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''))
		ON CONFLICT (name) DO UPDATE SET
			active = TRUE,
			counterpart = COALESCE(NULLIF(EXCLUDED.counterpart, ''), locations.counterpart),
			gstin = COALESCE(NULLIF(EXCLUDED.gstin, ''), locations.gstin),
			address = COALESCE(NULLIF(EXCLUDED.address, ''), locations.address),
			contact = COALESCE(NULLIF(EXCLUDED.contact, ''), locations.contact)
		RETURNING `+columns,
		loc.Name, string(loc.Kind), loc.Counterpart, loc.GSTIN, loc.Address, loc.Contact)
	return scan(row)
}
