package documents

import (
	"errors"
	"fmt"
	"strings"
)

// Validation failures are surfaced with the offending entity named, so the
// caller can render an actionable message.
var (
	ErrSameLocation = errors.New("source and destination locations must differ")
	ErrEmptyLines   = errors.New("at least one line is required")
)

// InsufficientAvailabilityError reports a line requesting more of a batch
// than the source location holds.
type InsufficientAvailabilityError struct {
	MaterialCode string
	Available    int64
	Requested    int64
}

func (e *InsufficientAvailabilityError) Error() string {
	return fmt.Sprintf("insufficient quantity for %s. Available: %d, Requested: %d",
		e.MaterialCode, e.Available, e.Requested)
}

// SupplierMismatch is one return line whose batch originates from a
// different supplier than the destination company represents.
type SupplierMismatch struct {
	MaterialCode string
	SupplierName string
}

// SupplierMismatchError aborts a return document and lists every
// mismatched line, not just the first.
type SupplierMismatchError struct {
	Supplier   string
	Mismatches []SupplierMismatch
}

func (e *SupplierMismatchError) Error() string {
	parts := make([]string, 0, len(e.Mismatches))
	for _, m := range e.Mismatches {
		parts = append(parts, fmt.Sprintf("%s (supplier %s)", m.MaterialCode, m.SupplierName))
	}
	return fmt.Sprintf("cannot return to %s: %s", e.Supplier, strings.Join(parts, ", "))
}

// IsValidationError reports whether the error is a document validation
// failure rather than a collaborator failure.
func IsValidationError(err error) bool {
	var insufficient *InsufficientAvailabilityError
	var mismatch *SupplierMismatchError
	return errors.Is(err, ErrSameLocation) ||
		errors.Is(err, ErrEmptyLines) ||
		errors.Is(err, errInvalidLine) ||
		errors.As(err, &insufficient) ||
		errors.As(err, &mismatch)
}

var errInvalidLine = errors.New("line quantity must be positive")
