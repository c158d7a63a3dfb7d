package shared

import "errors"

var (
	// ErrNotFound indicates a missing resource (ticket code, document id).
	ErrNotFound = errors.New("not found")
	// ErrNoWarehouse indicates no active warehouse-kind location exists.
	ErrNoWarehouse = errors.New("no active warehouse location configured")
)
