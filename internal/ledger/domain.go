// Package ledger holds the movement log: the append-only record of
// batch transfers between locations that every derived view (availability,
// inventory breakdown, outstanding, tickets) is recomputed from.
package ledger

import (
	"errors"
	"time"
)

// LocationKind classifies a location in the goods flow.
type LocationKind string

const (
	// KindWarehouse is the controlled holding point. Exactly one active
	// warehouse-kind location is canonical.
	KindWarehouse LocationKind = "warehouse"
	// KindCompany is an originating supplier counterpart.
	KindCompany LocationKind = "company"
	// KindPartner is an external distribution partner.
	KindPartner LocationKind = "partner"
	// KindHospital is an end-customer hospital.
	KindHospital LocationKind = "hospital"
)

// Valid reports whether the kind is one of the four known values.
func (k LocationKind) Valid() bool {
	switch k {
	case KindWarehouse, KindCompany, KindPartner, KindHospital:
		return true
	}
	return false
}

// Location is a node goods move between. Company-kind locations carry the
// supplier name they represent in Counterpart, so return validation never
// has to parse display names.
type Location struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Kind        LocationKind `json:"kind"`
	Active      bool         `json:"active"`
	Counterpart string       `json:"counterpart,omitempty"`
	GSTIN       string       `json:"gstin,omitempty"`
	Address     string       `json:"address,omitempty"`
	Contact     string       `json:"contact,omitempty"`
}

// Batch is one received challan line. QtyReceived is immutable once set;
// all subsequent quantity change lives in the movement log.
type Batch struct {
	ID             int64     `json:"id"`
	SupplierName   string    `json:"supplier_name"`
	DeliveryNumber string    `json:"delivery_number"`
	DeliveryDate   time.Time `json:"delivery_date"`
	MaterialCode   string    `json:"material_code"`
	Description    string    `json:"description,omitempty"`
	HSNCode        string    `json:"hsn_code,omitempty"`
	UnitCost       float64   `json:"unit_cost"`
	QtyReceived    int64     `json:"qty_received"`
}

// DocType is derived from the destination location kind, never user-chosen.
type DocType string

const (
	DocTypeIn     DocType = "in"
	DocTypeOut    DocType = "out"
	DocTypeReturn DocType = "return"
)

// DocTypeFor infers the document type from the destination kind.
func DocTypeFor(dest LocationKind) DocType {
	switch dest {
	case KindWarehouse:
		return DocTypeIn
	case KindCompany:
		return DocTypeReturn
	default:
		return DocTypeOut
	}
}

// Document groups movement entries created atomically.
type Document struct {
	ID               int64     `json:"id"`
	DocNo            string    `json:"doc_no"`
	Type             DocType   `json:"doc_type"`
	Date             time.Time `json:"doc_date"`
	SourceLocationID int64     `json:"source_location_id"`
	DestLocationID   int64     `json:"dest_location_id"`
	CounterpartyName string    `json:"counterparty_name,omitempty"`
	Notes            string    `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Entry is one movement-log line joined with its document context and the
// source/destination location names and kinds. Entries are immutable after
// creation; there is no update or delete path.
type Entry struct {
	ID                  int64        `json:"id"`
	DocID               int64        `json:"doc_id"`
	BatchID             int64        `json:"batch_id"`
	Qty                 int64        `json:"qty"`
	TicketCode          string       `json:"ticket_code,omitempty"`
	MaterialCode        string       `json:"material_code"`
	MaterialDescription string       `json:"material_description,omitempty"`
	DeliveryNumber      string       `json:"delivery_number"`
	DeliveryDate        time.Time    `json:"delivery_date"`
	DocNo               string       `json:"doc_no"`
	DocType             DocType      `json:"doc_type"`
	DocDate             time.Time    `json:"doc_date"`
	SourceLocationID    int64        `json:"source_location_id"`
	DestLocationID      int64        `json:"dest_location_id"`
	SourceName          string       `json:"source_name"`
	SourceKind          LocationKind `json:"source_kind"`
	DestName            string       `json:"dest_name"`
	DestKind            LocationKind `json:"dest_kind"`
}

// EntryFilter restricts a movement-log query. Zero values mean "no filter".
type EntryFilter struct {
	BatchIDs         []int64
	SourceLocationID int64
	DestLocationID   int64
	TicketCode       string
	TicketedOnly     bool
}

// AvailableItem is a batch with positive availability at a location.
type AvailableItem struct {
	BatchID        int64     `json:"batch_id"`
	SupplierName   string    `json:"supplier_name"`
	DeliveryNumber string    `json:"delivery_number"`
	DeliveryDate   time.Time `json:"delivery_date"`
	MaterialCode   string    `json:"material_code"`
	Description    string    `json:"description,omitempty"`
	HSNCode        string    `json:"hsn_code,omitempty"`
	UnitCost       float64   `json:"unit_cost"`
	AvailableQty   int64     `json:"available_qty"`
}

// ErrBatchNotFound indicates a referenced batch id does not exist.
var ErrBatchNotFound = errors.New("ledger: batch not found")

// ErrLocationNotFound indicates a referenced location id does not exist.
var ErrLocationNotFound = errors.New("ledger: location not found")
