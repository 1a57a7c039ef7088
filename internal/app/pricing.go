package app

import "github.com/lmoreira/ordercore/internal/domain"

// PricingSnapshotter fixes the unit price a reservation was accepted at. The
// price comes from the catalog read made during the same reservation attempt
// and is never re-read, so later catalog changes cannot leak into an order.
type PricingSnapshotter struct{}

func NewPricingSnapshotter() PricingSnapshotter {
	return PricingSnapshotter{}
}

// Snapshot returns a copy of the reservation carrying the given unit price.
func (PricingSnapshotter) Snapshot(res domain.Reservation, unitPrice int64) domain.Reservation {
	res.UnitPrice = unitPrice
	return res
}
