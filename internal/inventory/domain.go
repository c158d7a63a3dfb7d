// Package inventory derives the per-batch stock breakdown from the
// movement log: how much of each received batch sits at the warehouse, in
// the field, or back with the originating supplier.
package inventory

import "time"

// Row is the inventory breakdown for one batch. Under correct operation
// qty_at_warehouse + qty_out + qty_returned = qty_received.
type Row struct {
	BatchID        int64     `json:"batch_id"`
	DeliveryNumber string    `json:"delivery_number"`
	DeliveryDate   time.Time `json:"delivery_date"`
	SupplierName   string    `json:"supplier_name"`
	MaterialCode   string    `json:"material_code"`
	Description    string    `json:"description,omitempty"`
	HSNCode        string    `json:"hsn_code,omitempty"`
	QtyReceived    int64     `json:"qty_received"`
	QtyAtWarehouse int64     `json:"qty_at_warehouse"`
	QtyOut         int64     `json:"qty_out"`
	QtyReturned    int64     `json:"qty_returned"`
	Outstanding    int64     `json:"outstanding"`
}

// OutstandingRow is a batch with quantity not yet returned to its supplier.
type OutstandingRow struct {
	BatchID        int64  `json:"batch_id"`
	MaterialCode   string `json:"material_code"`
	Description    string `json:"description,omitempty"`
	DeliveryNumber string `json:"delivery_number"`
	SupplierName   string `json:"supplier_name"`
	InitialQty     int64  `json:"initial_qty"`
	ReturnedQty    int64  `json:"returned_qty"`
	OutstandingQty int64  `json:"outstanding_qty"`
}
