package domain

import "time"

// OrderItem records the quantity and the unit price snapshotted when its
// reservation was accepted, immune to later catalog price changes.
type OrderItem struct {
	ProductID string
	UnitPrice int64
	Quantity  int
}

// Order represents a committed purchase. Immutable once persisted.
type Order struct {
	ID         string
	CustomerID string
	CreatedAt  time.Time
	Items      []OrderItem
}
