package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrEmptyOrder          = errors.New("order has no items")
	ErrDuplicateProduct    = errors.New("duplicate product in order")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrOrderNotFound       = errors.New("order not found")
	ErrConcurrencyConflict = errors.New("concurrent update conflict")
	ErrInvalidID           = errors.New("invalid id")
)

// ProductNotFoundError lists every requested product id the catalog or ledger
// does not know. A partially known batch never proceeds for the found subset.
type ProductNotFoundError struct {
	IDs []string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("products not found: %s", strings.Join(e.IDs, ", "))
}

// Shortfall describes one product whose stock could not cover the request.
type Shortfall struct {
	ProductID string
	Requested int
	Available int
}

// InsufficientStockError lists every product in a batch that fell short.
// Reservation is all-or-nothing, so no stock was changed.
type InsufficientStockError struct {
	Shortfalls []Shortfall
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		parts = append(parts, fmt.Sprintf("%s (requested %d, available %d)", s.ProductID, s.Requested, s.Available))
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}

// ReservationExpiredError lists tokens whose hold lapsed before commit.
// The corresponding stock was already restored by the sweeper.
type ReservationExpiredError struct {
	Tokens []string
}

func (e *ReservationExpiredError) Error() string {
	return "reservations expired: " + strings.Join(e.Tokens, ", ")
}

// PersistenceError wraps a storage failure during order assembly. The caller
// must release the reservations, since no order references them.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return "persist order: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
