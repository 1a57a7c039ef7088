// Package ordercore places customer orders against finite inventory. Stock is
// reserved atomically for the whole batch before an order is created, prices
// are snapshotted at reservation time, and every failure before commit
// releases the reservations, so no partial order is ever observable.
//
// The package is transport-agnostic: whatever API layer sits above it calls
// CreateOrder directly.
package ordercore

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lmoreira/ordercore/internal/app"
	"github.com/lmoreira/ordercore/internal/clock"
	"github.com/lmoreira/ordercore/internal/domain"
	"github.com/lmoreira/ordercore/internal/inventory"
	"github.com/lmoreira/ordercore/internal/storage/postgres"
)

// Order is a committed purchase as returned by CreateOrder.
type Order = domain.Order

// OrderItem is one line of a committed order.
type OrderItem = domain.OrderItem

// Failure taxonomy, re-exported so callers can match without reaching into
// internal packages.
var (
	ErrCustomerNotFound    = domain.ErrCustomerNotFound
	ErrEmptyOrder          = domain.ErrEmptyOrder
	ErrDuplicateProduct    = domain.ErrDuplicateProduct
	ErrInvalidQuantity     = domain.ErrInvalidQuantity
	ErrOrderNotFound       = domain.ErrOrderNotFound
	ErrConcurrencyConflict = domain.ErrConcurrencyConflict
	ErrInvalidID           = domain.ErrInvalidID
)

// Detail-carrying failures, matched with errors.As.
type (
	ProductNotFoundError   = domain.ProductNotFoundError
	InsufficientStockError = domain.InsufficientStockError
	PersistenceError       = domain.PersistenceError
)

// Line is one requested product/quantity pair.
type Line struct {
	ProductID string
	Quantity  int
}

// Config tunes the service. Zero values fall back to defaults (30s reservation
// TTL, 1s sweep interval, the standard logger).
type Config struct {
	ReservationTTL time.Duration
	SweepInterval  time.Duration
	Logger         *log.Logger
}

// Service wires the order-placement core against a Postgres pool: the
// in-memory inventory ledger, the order coordinator and the reservation
// sweeper.
type Service struct {
	coordinator *app.OrderCoordinator
	ledger      *inventory.Ledger
	catalog     *postgres.ProductRepository
	orders      *postgres.OrderRepository
	sweeper     *inventory.Sweeper

	cancel context.CancelFunc
	done   chan struct{}
}

func New(pool *pgxpool.Pool, cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	clk := clock.NewSystem()
	ledger := inventory.NewLedger(clk, inventory.WithReservationTTL(cfg.ReservationTTL))

	customers := postgres.NewCustomerRepository(pool)
	catalog := postgres.NewProductRepository(pool)
	orders := postgres.NewOrderRepository(pool)

	assembler := app.NewOrderAssembler(orders, clk)
	coordinator := app.NewOrderCoordinator(customers, catalog, ledger, assembler, logger)

	return &Service{
		coordinator: coordinator,
		ledger:      ledger,
		catalog:     catalog,
		orders:      orders,
		sweeper:     inventory.NewSweeper(ledger, cfg.SweepInterval, logger),
	}
}

// Seed loads the whole catalog into the ledger. Optional: CreateOrder seeds
// the products it touches on demand.
func (s *Service) Seed(ctx context.Context) error {
	products, err := s.catalog.FindAll(ctx)
	if err != nil {
		return err
	}
	for _, p := range products {
		s.ledger.Ensure(p.ID, p.Quantity)
	}
	return nil
}

// Start launches the reservation sweeper. Stop must be called to shut it down.
func (s *Service) Start() {
	if s.done != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		s.sweeper.Run(ctx)
	}()
}

// Stop shuts the sweeper down and waits for it to exit.
func (s *Service) Stop() {
	if s.done == nil {
		return
	}
	s.cancel()
	<-s.done
	s.done = nil
}

// CreateOrder places an order for the customer. It fails with
// ErrCustomerNotFound, ErrEmptyOrder, ProductNotFoundError,
// InsufficientStockError, ErrConcurrencyConflict, PersistenceError or, for a
// malformed customer or product id, ErrInvalidID; on every failure stock and
// storage are untouched.
func (s *Service) CreateOrder(ctx context.Context, customerID string, lines []Line) (Order, error) {
	converted := make([]app.OrderLine, 0, len(lines))
	for _, line := range lines {
		converted = append(converted, app.OrderLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}
	return s.coordinator.CreateOrder(ctx, customerID, converted)
}

// GetOrder returns a committed order with its items, ErrOrderNotFound when no
// order has that id, or ErrInvalidID when the id is not a UUID.
func (s *Service) GetOrder(ctx context.Context, id string) (*Order, error) {
	return s.orders.GetByID(ctx, id)
}
