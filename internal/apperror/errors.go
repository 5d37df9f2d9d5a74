// Package apperror defines the ledger's error taxonomy. Every failed
// mutation surfaces one of these synchronously, carrying the entity and the
// figures that identify the violated invariant; nothing is retried
// internally.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError signals malformed or missing request fields.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validation builds a ValidationError from a format string.
func Validation(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError signals that a referenced entity does not exist, including
// a second delete of the same dispatch.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// NotFound builds a NotFoundError for the given entity and id.
func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// InsufficientStockError signals a requested quantity exceeding what the
// factory or store pool holds.
type InsufficientStockError struct {
	Entity    string
	ID        string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s %s: requested %d, available %d",
		e.Entity, e.ID, e.Requested, e.Available)
}

// InsufficientStock builds an InsufficientStockError.
func InsufficientStock(entity, id string, requested, available int) error {
	return &InsufficientStockError{Entity: entity, ID: id, Requested: requested, Available: available}
}

// InsufficientMeters reports fabric shortage with fractional quantities.
type InsufficientMetersError struct {
	FabricID  string
	Requested float64
	Available float64
}

func (e *InsufficientMetersError) Error() string {
	return fmt.Sprintf("insufficient fabric %s: requested %.2fm, available %.2fm",
		e.FabricID, e.Requested, e.Available)
}

// InsufficientMeters builds an InsufficientMetersError.
func InsufficientMeters(fabricID string, requested, available float64) error {
	return &InsufficientMetersError{FabricID: fabricID, Requested: requested, Available: available}
}

// OverReturnError signals that cumulative customer returns would exceed the
// quantity sold on the referenced sale line.
type OverReturnError struct {
	SaleID          string
	ProductID       string
	Sold            int
	AlreadyReturned int
	Requested       int
}

func (e *OverReturnError) Error() string {
	return fmt.Sprintf("over-return on sale %s product %s: sold %d, already returned %d, requested %d",
		e.SaleID, e.ProductID, e.Sold, e.AlreadyReturned, e.Requested)
}

// OverReturn builds an OverReturnError.
func OverReturn(saleID, productID string, sold, alreadyReturned, requested int) error {
	return &OverReturnError{SaleID: saleID, ProductID: productID, Sold: sold, AlreadyReturned: alreadyReturned, Requested: requested}
}

// ConflictError signals a rejected state transition or a lost concurrent
// race, e.g. marking an already-RECEIVED dispatch received again.
type ConflictError struct {
	Entity string
	ID     string
	Msg    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s %s: %s", e.Entity, e.ID, e.Msg)
}

// Conflict builds a ConflictError.
func Conflict(entity, id, format string, args ...interface{}) error {
	return &ConflictError{Entity: entity, ID: id, Msg: fmt.Sprintf(format, args...)}
}

// HTTPStatus maps a ledger error (possibly wrapped) to the HTTP status the
// handlers should return. Unknown errors map to 500.
func HTTPStatus(err error) int {
	var (
		validationErr *ValidationError
		notFoundErr   *NotFoundError
		stockErr      *InsufficientStockError
		metersErr     *InsufficientMetersError
		overReturnErr *OverReturnError
		conflictErr   *ConflictError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &stockErr), errors.As(err, &metersErr), errors.As(err, &overReturnErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &conflictErr):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
