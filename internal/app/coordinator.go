package app

import (
	"context"
	"errors"
	"log"

	"github.com/lmoreira/ordercore/internal/domain"
	"github.com/lmoreira/ordercore/internal/inventory"
)

// CustomerDirectory resolves customers. A nil customer with a nil error means
// the customer does not exist.
type CustomerDirectory interface {
	FindByID(ctx context.Context, id string) (*domain.Customer, error)
}

// ProductCatalog returns the subset of the requested products it knows about;
// the caller detects missing ids by comparing against the request.
type ProductCatalog interface {
	FindAllByID(ctx context.Context, ids []string) ([]domain.Product, error)
}

// OrderLine is one requested product/quantity pair in an incoming order.
type OrderLine struct {
	ProductID string
	Quantity  int
}

// maxPersistAttempts bounds retries when the store reports a transient
// serialization conflict.
const maxPersistAttempts = 3

// OrderCoordinator drives an order request through validation, reservation,
// pricing, assembly and commit, releasing reservations on every downstream
// failure so that nothing before commit leaves observable side effects.
type OrderCoordinator struct {
	customers CustomerDirectory
	catalog   ProductCatalog
	ledger    *inventory.Ledger
	pricing   PricingSnapshotter
	assembler *OrderAssembler
	logger    *log.Logger
}

func NewOrderCoordinator(
	customers CustomerDirectory,
	catalog ProductCatalog,
	ledger *inventory.Ledger,
	assembler *OrderAssembler,
	logger *log.Logger,
) *OrderCoordinator {
	if logger == nil {
		logger = log.Default()
	}
	return &OrderCoordinator{
		customers: customers,
		catalog:   catalog,
		ledger:    ledger,
		pricing:   NewPricingSnapshotter(),
		assembler: assembler,
		logger:    logger,
	}
}

// CreateOrder converts the requested lines into a committed order. Stock is
// decremented atomically for the whole batch before the order is created; any
// failure after that point releases the full batch. Only a commit failure
// after the order is persisted is tolerated as a warning, since undoing a
// persisted order is out of scope.
func (c *OrderCoordinator) CreateOrder(ctx context.Context, customerID string, lines []OrderLine) (domain.Order, error) {
	if len(lines) == 0 {
		return domain.Order{}, domain.ErrEmptyOrder
	}

	requests := make([]domain.ReservationRequest, 0, len(lines))
	ids := make([]string, 0, len(lines))
	seen := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return domain.Order{}, domain.ErrInvalidQuantity
		}
		if _, dup := seen[line.ProductID]; dup {
			return domain.Order{}, domain.ErrDuplicateProduct
		}
		seen[line.ProductID] = struct{}{}
		requests = append(requests, domain.ReservationRequest{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
		ids = append(ids, line.ProductID)
	}

	customer, err := c.customers.FindByID(ctx, customerID)
	if err != nil {
		return domain.Order{}, err
	}
	if customer == nil {
		return domain.Order{}, domain.ErrCustomerNotFound
	}

	products, err := c.catalog.FindAllByID(ctx, ids)
	if err != nil {
		return domain.Order{}, err
	}
	prices := make(map[string]int64, len(products))
	for _, p := range products {
		prices[p.ID] = p.UnitPrice
		c.ledger.Ensure(p.ID, p.Quantity)
	}

	var missing []string
	for _, id := range ids {
		if _, ok := prices[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return domain.Order{}, &domain.ProductNotFoundError{IDs: missing}
	}

	reservations, err := c.ledger.Reserve(requests)
	if err != nil {
		// Nothing was reserved; no release needed.
		return domain.Order{}, err
	}

	// Every id passed the wholesale catalog check above, so a price exists
	// for each reservation.
	priced := make([]domain.Reservation, 0, len(reservations))
	for _, res := range reservations {
		priced = append(priced, c.pricing.Snapshot(res, prices[res.ProductID]))
	}

	// A request canceled after reserving must run the same release path as a
	// failed transition.
	if err := ctx.Err(); err != nil {
		c.ledger.Release(reservations)
		return domain.Order{}, err
	}

	order, err := c.assemble(ctx, customer.ID, priced)
	if err != nil {
		c.ledger.Release(reservations)
		return domain.Order{}, err
	}

	if err := c.ledger.Commit(priced); err != nil {
		// The order already exists; surfacing a rollback here would lie to the
		// caller. Log and keep the order.
		c.logger.Printf("WARN: commit reservations for order %s: %v", order.ID, err)
	}
	return order, nil
}

func (c *OrderCoordinator) assemble(ctx context.Context, customerID string, priced []domain.Reservation) (domain.Order, error) {
	var lastErr error
	for attempt := 0; attempt < maxPersistAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return domain.Order{}, err
		}
		order, err := c.assembler.Assemble(ctx, customerID, priced)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, domain.ErrConcurrencyConflict) {
			return domain.Order{}, err
		}
		lastErr = err
	}
	return domain.Order{}, lastErr
}
