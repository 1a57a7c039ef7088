package app

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/lmoreira/ordercore/internal/clock"
	"github.com/lmoreira/ordercore/internal/domain"
)

// OrderStore persists assembled orders. Persist must write the order and all
// of its items in one storage transaction.
type OrderStore interface {
	Persist(ctx context.Context, order domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
}

// OrderAssembler builds the immutable order record from priced reservations
// and persists it through the store.
type OrderAssembler struct {
	store OrderStore
	clock clock.Clock
}

func NewOrderAssembler(store OrderStore, clk clock.Clock) *OrderAssembler {
	return &OrderAssembler{
		store: store,
		clock: clk,
	}
}

// Assemble converts the reservations into order items and persists the order.
// On failure the caller must release the reservations, since no order
// references them. Transient serialization conflicts pass through unwrapped so
// the coordinator can retry; everything else surfaces as a PersistenceError.
func (a *OrderAssembler) Assemble(ctx context.Context, customerID string, reservations []domain.Reservation) (domain.Order, error) {
	items := make([]domain.OrderItem, 0, len(reservations))
	for _, res := range reservations {
		items = append(items, domain.OrderItem{
			ProductID: res.ProductID,
			UnitPrice: res.UnitPrice,
			Quantity:  res.Quantity,
		})
	}

	order := domain.Order{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		CreatedAt:  a.clock.Now(),
		Items:      items,
	}

	if err := a.store.Persist(ctx, order); err != nil {
		if errors.Is(err, domain.ErrConcurrencyConflict) {
			return domain.Order{}, err
		}
		return domain.Order{}, &domain.PersistenceError{Err: err}
	}
	return order, nil
}
