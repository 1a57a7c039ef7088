package domain

import "time"

// ReservationRequest asks the ledger to hold a quantity of one product.
// Quantity must be positive; duplicate product ids in one batch are malformed.
type ReservationRequest struct {
	ProductID string
	Quantity  int
}

// Reservation is a tokenized hold on a quantity of a product's stock,
// convertible to a permanent decrement (commit) or reversible (release).
// The token is the only cross-component handle; it carries no lock ownership.
type Reservation struct {
	Token     string
	ProductID string
	Quantity  int
	UnitPrice int64
	ExpiresAt time.Time
}
