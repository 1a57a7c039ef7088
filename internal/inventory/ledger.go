package inventory

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lmoreira/ordercore/internal/clock"
	"github.com/lmoreira/ordercore/internal/domain"
)

type holdState int

const (
	holdHeld holdState = iota
	holdCommitted
	holdReleased
)

type hold struct {
	productID string
	quantity  int
	state     holdState
	expiresAt time.Time
}

const defaultReservationTTL = 30 * time.Second

// Ledger is the sole authority for stock arithmetic. Quantities are seeded from
// the catalog once and mutated only here. A single mutex makes the whole batch
// check-and-decrement one critical section: two batches touching the same
// product are applied in some total order, and the second observes
// post-decrement stock. The lock is held only for the duration of a
// Reserve/Release/Commit call, never across pricing or assembly.
type Ledger struct {
	clock clock.Clock
	ttl   time.Duration

	mu    sync.Mutex
	stock map[string]int
	holds map[string]*hold
}

type LedgerOption func(*Ledger)

// WithReservationTTL overrides how long an uncommitted reservation is held
// before it may be auto-released.
func WithReservationTTL(d time.Duration) LedgerOption {
	return func(l *Ledger) {
		if d > 0 {
			l.ttl = d
		}
	}
}

func NewLedger(clk clock.Clock, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		clock: clk,
		ttl:   defaultReservationTTL,
		stock: make(map[string]int),
		holds: make(map[string]*hold),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Ensure registers a product's quantity unless the ledger already tracks it.
// The ledger is authoritative after the first seed, so a later catalog read
// never overwrites stock that reservations have decremented.
func (l *Ledger) Ensure(productID string, quantity int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.stock[productID]; !ok {
		l.stock[productID] = quantity
	}
}

// Quantity reports the currently available stock for a product.
func (l *Ledger) Quantity(productID string) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	qty, ok := l.stock[productID]
	return qty, ok
}

// Reserve validates the whole batch against current stock before decrementing
// anything. If any id is unknown it fails with ProductNotFoundError; if any
// product falls short it fails with InsufficientStockError carrying per-product
// shortfall detail. Either way no stock is touched. On success every product is
// decremented and one tokenized reservation per request is returned, expiring
// after the configured TTL unless committed.
func (l *Ledger) Reserve(requests []domain.ReservationRequest) ([]domain.Reservation, error) {
	if len(requests) == 0 {
		return nil, domain.ErrEmptyOrder
	}
	seen := make(map[string]struct{}, len(requests))
	for _, req := range requests {
		if req.Quantity <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
		if _, dup := seen[req.ProductID]; dup {
			return nil, domain.ErrDuplicateProduct
		}
		seen[req.ProductID] = struct{}{}
	}

	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	var missing []string
	var shortfalls []domain.Shortfall
	for _, req := range requests {
		available, ok := l.stock[req.ProductID]
		if !ok {
			missing = append(missing, req.ProductID)
			continue
		}
		if req.Quantity > available {
			shortfalls = append(shortfalls, domain.Shortfall{
				ProductID: req.ProductID,
				Requested: req.Quantity,
				Available: available,
			})
		}
	}
	if len(missing) > 0 {
		return nil, &domain.ProductNotFoundError{IDs: missing}
	}
	if len(shortfalls) > 0 {
		return nil, &domain.InsufficientStockError{Shortfalls: shortfalls}
	}

	expiresAt := now.Add(l.ttl)
	reservations := make([]domain.Reservation, 0, len(requests))
	for _, req := range requests {
		l.stock[req.ProductID] -= req.Quantity

		token := uuid.NewString()
		l.holds[token] = &hold{
			productID: req.ProductID,
			quantity:  req.Quantity,
			state:     holdHeld,
			expiresAt: expiresAt,
		}
		reservations = append(reservations, domain.Reservation{
			Token:     token,
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
			ExpiresAt: expiresAt,
		})
	}
	return reservations, nil
}

// Release restores stock for each reservation still held. Idempotent per
// token: a token already released or committed restores nothing further, so a
// duplicate rollback cannot inflate stock.
func (l *Ledger) Release(reservations []domain.Reservation) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, res := range reservations {
		l.releaseLocked(res.Token)
	}
}

func (l *Ledger) releaseLocked(token string) {
	h, ok := l.holds[token]
	if !ok || h.state != holdHeld {
		return
	}
	h.state = holdReleased
	l.stock[h.productID] += h.quantity
}

// Commit finalizes reservations: the decrement applied at reserve time becomes
// permanent and the tokens can no longer restore stock. Already-committed
// tokens are no-ops. Tokens whose hold lapsed and was auto-released are
// reported via ReservationExpiredError; their stock is already back in the
// pool and the caller must re-reserve.
func (l *Ledger) Commit(reservations []domain.Reservation) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var expired []string
	for _, res := range reservations {
		h, ok := l.holds[res.Token]
		if !ok || h.state == holdReleased {
			expired = append(expired, res.Token)
			continue
		}
		h.state = holdCommitted
	}
	if len(expired) > 0 {
		return &domain.ReservationExpiredError{Tokens: expired}
	}
	return nil
}

// ReleaseExpired releases every held reservation whose deadline has passed and
// returns how many were released. Called periodically by the Sweeper so
// abandoned requests cannot starve stock.
func (l *Ledger) ReleaseExpired(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	released := 0
	for token, h := range l.holds {
		if h.state == holdHeld && !h.expiresAt.After(now) {
			l.releaseLocked(token)
			released++
		}
	}
	return released
}
