package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/consignflow/consignflow/internal/platform/db"
	"github.com/consignflow/consignflow/internal/shared"
)

// Store is the full persistence surface of the movement log.
type Store interface {
	SelectEntries(ctx context.Context, filter EntryFilter) ([]Entry, error)
	SelectBatches(ctx context.Context, ids []int64) ([]Batch, error)
	GetLocation(ctx context.Context, id int64) (Location, error)
	Warehouse(ctx context.Context) (Location, error)
	GetDocument(ctx context.Context, id int64) (Document, []Entry, error)
	WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error
}

// TxStore exposes the write operations available inside one transaction.
// Availability revalidation, ticket sequence allocation and both inserts
// share the same snapshot, so a committed document can never over-allocate
// a locked batch.
type TxStore interface {
	LockBatches(ctx context.Context, ids []int64) error
	SelectEntries(ctx context.Context, filter EntryFilter) ([]Entry, error)
	LatestTicketInto(ctx context.Context, batchIDs []int64, locationID int64) (map[int64]string, error)
	HighestTicketCode(ctx context.Context, prefix string) (string, error)
	InsertDocument(ctx context.Context, doc Document) (int64, error)
	InsertEntries(ctx context.Context, docID int64, entries []Entry) error
	InsertBatches(ctx context.Context, batches []Batch, rawDocRef string) ([]Batch, error)
}

// Repository persists the movement log in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const entryColumns = `l.id, l.doc_id, l.batch_id, l.qty, COALESCE(l.ticket_code, ''),
	l.material_code, COALESCE(l.material_description, ''), l.delivery_number, l.delivery_date,
	d.doc_no, d.doc_type, d.doc_date, d.source_location_id, d.dest_location_id,
	src.name, src.kind, dst.name, dst.kind`

const entryFrom = `FROM doc_lines l
	JOIN docs d ON d.id = l.doc_id
	JOIN locations src ON src.id = d.source_location_id
	JOIN locations dst ON dst.id = d.dest_location_id`

func buildEntryQuery(filter EntryFilter) (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(entryColumns)
	sb.WriteString("\n")
	sb.WriteString(entryFrom)
	sb.WriteString("\nWHERE 1=1")

	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if len(filter.BatchIDs) > 0 {
		sb.WriteString(" AND l.batch_id = ANY(" + arg(filter.BatchIDs) + ")")
	}
	if filter.SourceLocationID != 0 {
		sb.WriteString(" AND d.source_location_id = " + arg(filter.SourceLocationID))
	}
	if filter.DestLocationID != 0 {
		sb.WriteString(" AND d.dest_location_id = " + arg(filter.DestLocationID))
	}
	if filter.TicketCode != "" {
		sb.WriteString(" AND l.ticket_code = " + arg(filter.TicketCode))
	}
	if filter.TicketedOnly {
		sb.WriteString(" AND l.ticket_code IS NOT NULL")
	}
	sb.WriteString(" ORDER BY d.doc_date ASC, l.id ASC")
	return sb.String(), args
}

func scanEntries(rows pgx.Rows) ([]Entry, error) {
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.DocID, &e.BatchID, &e.Qty, &e.TicketCode,
			&e.MaterialCode, &e.MaterialDescription, &e.DeliveryNumber, &e.DeliveryDate,
			&e.DocNo, &e.DocType, &e.DocDate, &e.SourceLocationID, &e.DestLocationID,
			&e.SourceName, &e.SourceKind, &e.DestName, &e.DestKind); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// SelectEntries returns movement entries matching the filter in
// document-date order.
func (r *Repository) SelectEntries(ctx context.Context, filter EntryFilter) ([]Entry, error) {
	query, args := buildEntryQuery(filter)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

const batchColumns = `id, supplier_name, delivery_number, COALESCE(delivery_date, 'epoch'::date),
	material_code, COALESCE(description, ''), COALESCE(hsn_code, ''), COALESCE(unit_cost, 0), qty_received`

func scanBatches(rows pgx.Rows) ([]Batch, error) {
	defer rows.Close()
	var batches []Batch
	for rows.Next() {
		var b Batch
		if err := rows.Scan(&b.ID, &b.SupplierName, &b.DeliveryNumber, &b.DeliveryDate,
			&b.MaterialCode, &b.Description, &b.HSNCode, &b.UnitCost, &b.QtyReceived); err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return batches, nil
}

// SelectBatches returns batches by id. Passing nil ids returns every batch
// ordered by delivery number then material code.
func (r *Repository) SelectBatches(ctx context.Context, ids []int64) ([]Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM batches`
	var args []any
	if ids != nil {
		query += ` WHERE id = ANY($1)`
		args = append(args, ids)
	}
	query += ` ORDER BY delivery_number ASC, material_code ASC`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanBatches(rows)
}

const locationColumns = `id, name, kind, active, COALESCE(counterpart, ''), COALESCE(gstin, ''), COALESCE(address, ''), COALESCE(contact, '')`

func scanLocation(row pgx.Row) (Location, error) {
	var loc Location
	err := row.Scan(&loc.ID, &loc.Name, &loc.Kind, &loc.Active, &loc.Counterpart, &loc.GSTIN, &loc.Address, &loc.Contact)
	return loc, err
}

// GetLocation fetches one location by id.
func (r *Repository) GetLocation(ctx context.Context, id int64) (Location, error) {
	loc, err := scanLocation(r.pool.QueryRow(ctx, `SELECT `+locationColumns+` FROM locations WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Location{}, fmt.Errorf("%w: id %d", ErrLocationNotFound, id)
	}
	return loc, err
}

// Warehouse returns the canonical warehouse location: the oldest active
// warehouse-kind row.
func (r *Repository) Warehouse(ctx context.Context) (Location, error) {
	loc, err := scanLocation(r.pool.QueryRow(ctx,
		`SELECT `+locationColumns+` FROM locations WHERE kind = $1 AND active ORDER BY id ASC LIMIT 1`, KindWarehouse))
	if errors.Is(err, pgx.ErrNoRows) {
		return Location{}, shared.ErrNoWarehouse
	}
	return loc, err
}

// GetDocument returns one document header with its movement entries.
func (r *Repository) GetDocument(ctx context.Context, id int64) (Document, []Entry, error) {
	var doc Document
	err := r.pool.QueryRow(ctx,
		`SELECT id, doc_no, doc_type, doc_date, source_location_id, dest_location_id,
			COALESCE(counterparty_name, ''), COALESCE(notes, ''), created_at
		 FROM docs WHERE id = $1`, id).
		Scan(&doc.ID, &doc.DocNo, &doc.Type, &doc.Date, &doc.SourceLocationID, &doc.DestLocationID,
			&doc.CounterpartyName, &doc.Notes, &doc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, nil, shared.ErrNotFound
	}
	if err != nil {
		return Document{}, nil, err
	}

	query, args := buildEntryQuery(EntryFilter{})
	query = strings.Replace(query, "WHERE 1=1", "WHERE 1=1 AND l.doc_id = $1", 1)
	args = append(args, id)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return Document{}, nil, err
	}
	entries, err := scanEntries(rows)
	if err != nil {
		return Document{}, nil, err
	}
	return doc, entries, nil
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txStore{tx: tx})
	})
}

type txStore struct {
	tx pgx.Tx
}

// LockBatches takes row locks on the batches so concurrent document
// creation against overlapping batches serialises at the validation step.
func (s *txStore) LockBatches(ctx context.Context, ids []int64) error {
	rows, err := s.tx.Query(ctx, `SELECT id FROM batches WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	locked := make(map[int64]struct{}, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err
		}
		locked[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := locked[id]; !ok {
			return fmt.Errorf("%w: id %d", ErrBatchNotFound, id)
		}
	}
	return nil
}

func (s *txStore) SelectEntries(ctx context.Context, filter EntryFilter) ([]Entry, error) {
	query, args := buildEntryQuery(filter)
	rows, err := s.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

// LatestTicketInto returns, per batch, the most recent non-null ticket code
// on an entry whose document destination is the given location. Used for
// ticket carry-forward.
func (s *txStore) LatestTicketInto(ctx context.Context, batchIDs []int64, locationID int64) (map[int64]string, error) {
	rows, err := s.tx.Query(ctx, `SELECT DISTINCT ON (l.batch_id) l.batch_id, l.ticket_code
		FROM doc_lines l
		JOIN docs d ON d.id = l.doc_id
		WHERE l.batch_id = ANY($1) AND d.dest_location_id = $2 AND l.ticket_code IS NOT NULL
		ORDER BY l.batch_id, d.doc_date DESC, l.id DESC`, batchIDs, locationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tickets := make(map[int64]string)
	for rows.Next() {
		var batchID int64
		var code string
		if err := rows.Scan(&batchID, &code); err != nil {
			return nil, err
		}
		tickets[batchID] = code
	}
	return tickets, rows.Err()
}

// HighestTicketCode returns the lexicographically highest ticket code with
// the given prefix, or "" when none exists. Sequences are zero-padded, so
// the lexicographic max is the numeric max.
func (s *txStore) HighestTicketCode(ctx context.Context, prefix string) (string, error) {
	var code string
	err := s.tx.QueryRow(ctx,
		`SELECT ticket_code FROM doc_lines WHERE ticket_code LIKE $1 || '%' ORDER BY ticket_code DESC LIMIT 1`,
		prefix).Scan(&code)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return code, err
}

func (s *txStore) InsertDocument(ctx context.Context, doc Document) (int64, error) {
	var id int64
	err := s.tx.QueryRow(ctx, `INSERT INTO docs (doc_no, doc_type, doc_date, source_location_id, dest_location_id, counterparty_name, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW()) RETURNING id`,
		doc.DocNo, string(doc.Type), doc.Date, doc.SourceLocationID, doc.DestLocationID,
		nullIfEmpty(doc.CounterpartyName), nullIfEmpty(doc.Notes)).Scan(&id)
	return id, err
}

// InsertEntries writes all movement entries of a document in a single
// batch write.
func (s *txStore) InsertEntries(ctx context.Context, docID int64, entries []Entry) error {
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []any{
			docID, e.BatchID, e.Qty, nullIfEmpty(e.TicketCode),
			e.MaterialCode, nullIfEmpty(e.MaterialDescription), e.DeliveryNumber, e.DeliveryDate,
		})
	}
	_, err := s.tx.CopyFrom(ctx, pgx.Identifier{"doc_lines"},
		[]string{"doc_id", "batch_id", "qty", "ticket_code", "material_code", "material_description", "delivery_number", "delivery_date"},
		pgx.CopyFromRows(rows))
	return err
}

// InsertBatches creates batch rows during challan import and returns them
// with generated ids.
func (s *txStore) InsertBatches(ctx context.Context, batches []Batch, rawDocRef string) ([]Batch, error) {
	out := make([]Batch, 0, len(batches))
	for _, b := range batches {
		var id int64
		err := s.tx.QueryRow(ctx, `INSERT INTO batches (supplier_name, delivery_number, delivery_date, material_code, description, hsn_code, unit_cost, qty_received, raw_doc_ref, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW()) RETURNING id`,
			b.SupplierName, b.DeliveryNumber, b.DeliveryDate, b.MaterialCode,
			nullIfEmpty(b.Description), nullIfEmpty(b.HSNCode), b.UnitCost, b.QtyReceived,
			nullIfEmpty(rawDocRef)).Scan(&id)
		if err != nil {
			return nil, err
		}
		b.ID = id
		out = append(out, b)
	}
	return out, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
