// Package tickets derives the lifecycle of sub-batch tracking codes from
// the movement log. A ticket is never stored: it is the group of movement
// entries sharing a code, replayed on every read.
package tickets

import (
	"time"

	"github.com/consignflow/consignflow/internal/ledger"
)

// Status classifies a ticket by where its quantity currently sits.
type Status string

const (
	// StatusActive means the quantity is in the field, with a partner or
	// hospital.
	StatusActive Status = "active"
	// StatusClosed means the quantity re-entered controlled custody
	// (warehouse) or returned to the supplier (company).
	StatusClosed Status = "closed"
)

// Summary describes one ticket for listings.
type Summary struct {
	TicketCode          string              `json:"ticket_code"`
	MaterialCode        string              `json:"material_code"`
	MaterialDescription string              `json:"material_description,omitempty"`
	DeliveryNumber      string              `json:"delivery_number"`
	CurrentLocation     string              `json:"current_location,omitempty"`
	CurrentLocationKind ledger.LocationKind `json:"current_location_kind,omitempty"`
	QtyAtLocation       int64               `json:"qty_at_location"`
	TotalQty            int64               `json:"total_qty"`
	Status              Status              `json:"status"`
	CreatedDate         time.Time           `json:"created_date"`
}

// Movement is one replay step in a ticket's history.
type Movement struct {
	EntryID          int64               `json:"entry_id"`
	DocNo            string              `json:"doc_no"`
	DocDate          time.Time           `json:"doc_date"`
	DocType          ledger.DocType      `json:"doc_type"`
	FromLocation     string              `json:"from_location"`
	FromLocationKind ledger.LocationKind `json:"from_location_kind"`
	ToLocation       string              `json:"to_location"`
	ToLocationKind   ledger.LocationKind `json:"to_location_kind"`
	Qty              int64               `json:"qty"`
}

// Detail is a Summary plus the full ordered movement history.
type Detail struct {
	Summary
	Movements []Movement `json:"movements"`
}
