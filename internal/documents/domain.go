// Package documents appends new movements to the log: it is the only
// write path for transfers and owns every validation that guards the
// log's invariants.
package documents

import (
	"time"

	"github.com/consignflow/consignflow/internal/ledger"
)

// Header is the caller-supplied document header. The document type is
// never part of it: type is inferred from the destination kind.
type Header struct {
	DocNo            string
	Date             time.Time
	SourceLocationID int64
	DestLocationID   int64
	CounterpartyName string
	Notes            string
}

// Line is one requested movement. TicketCode is optional; when empty the
// code is carried forward or generated depending on the route.
type Line struct {
	BatchID    int64
	Qty        int64
	TicketCode string
}

// View is a stored document joined with its movement entries and the
// resolved location names.
type View struct {
	ledger.Document
	SourceName string         `json:"source_name"`
	DestName   string         `json:"dest_name"`
	Lines      []ledger.Entry `json:"lines"`
}
