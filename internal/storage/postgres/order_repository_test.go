package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lmoreira/ordercore/internal/domain"
	"github.com/lmoreira/ordercore/internal/testutil"
)

func TestOrderRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewOrderRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	t.Run("Persist writes order, items and stock write-back in one transaction", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		customerID := testutil.InsertCustomer(t, ctx, pool, "ana")
		p1 := testutil.InsertProduct(t, ctx, pool, domain.Product{Name: "Widget", UnitPrice: 1000, Quantity: 5})
		p2 := testutil.InsertProduct(t, ctx, pool, domain.Product{Name: "Gadget", UnitPrice: 500, Quantity: 4})

		order := domain.Order{
			ID:         uuid.NewString(),
			CustomerID: customerID,
			CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
			Items: []domain.OrderItem{
				{ProductID: p1, UnitPrice: 1000, Quantity: 3},
				{ProductID: p2, UnitPrice: 500, Quantity: 1},
			},
		}
		if err := repo.Persist(ctx, order); err != nil {
			t.Fatalf("persist: %v", err)
		}

		got, err := repo.GetByID(ctx, order.ID)
		if err != nil {
			t.Fatalf("get order: %v", err)
		}
		if got.CustomerID != customerID {
			t.Fatalf("expected customer %s, got %s", customerID, got.CustomerID)
		}
		if len(got.Items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(got.Items))
		}
		if got.Items[0].ProductID != p1 || got.Items[0].UnitPrice != 1000 || got.Items[0].Quantity != 3 {
			t.Fatalf("unexpected first item: %+v", got.Items[0])
		}
		if got.Items[1].ProductID != p2 {
			t.Fatalf("expected line order preserved, got %+v", got.Items)
		}

		if qty := testutil.ProductQuantity(t, ctx, pool, p1); qty != 2 {
			t.Fatalf("expected p1 quantity 2, got %d", qty)
		}
		if qty := testutil.ProductQuantity(t, ctx, pool, p2); qty != 3 {
			t.Fatalf("expected p2 quantity 3, got %d", qty)
		}
	})

	t.Run("Persist rolls back completely when an item write fails", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		customerID := testutil.InsertCustomer(t, ctx, pool, "ana")
		p1 := testutil.InsertProduct(t, ctx, pool, domain.Product{Name: "Widget", UnitPrice: 1000, Quantity: 5})

		order := domain.Order{
			ID:         uuid.NewString(),
			CustomerID: customerID,
			CreatedAt:  time.Now().UTC(),
			Items: []domain.OrderItem{
				{ProductID: p1, UnitPrice: 1000, Quantity: 1},
				// Unknown product violates the FK and must abort the whole write.
				{ProductID: uuid.NewString(), UnitPrice: 500, Quantity: 1},
			},
		}
		if err := repo.Persist(ctx, order); err == nil {
			t.Fatalf("expected persist to fail")
		}

		if _, err := repo.GetByID(ctx, order.ID); err != domain.ErrOrderNotFound {
			t.Fatalf("expected ErrOrderNotFound, got %v", err)
		}
		if qty := testutil.ProductQuantity(t, ctx, pool, p1); qty != 5 {
			t.Fatalf("expected p1 quantity untouched at 5, got %d", qty)
		}
	})

	t.Run("Persist maps an oversold write-back to ErrConcurrencyConflict", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		customerID := testutil.InsertCustomer(t, ctx, pool, "ana")
		p1 := testutil.InsertProduct(t, ctx, pool, domain.Product{Name: "Widget", UnitPrice: 1000, Quantity: 2})

		order := domain.Order{
			ID:         uuid.NewString(),
			CustomerID: customerID,
			CreatedAt:  time.Now().UTC(),
			Items:      []domain.OrderItem{{ProductID: p1, UnitPrice: 1000, Quantity: 3}},
		}
		if err := repo.Persist(ctx, order); err != domain.ErrConcurrencyConflict {
			t.Fatalf("expected ErrConcurrencyConflict, got %v", err)
		}
		if qty := testutil.ProductQuantity(t, ctx, pool, p1); qty != 2 {
			t.Fatalf("expected quantity untouched at 2, got %d", qty)
		}
	})

	t.Run("GetByID distinguishes missing and malformed ids", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		if _, err := repo.GetByID(ctx, uuid.NewString()); err != domain.ErrOrderNotFound {
			t.Fatalf("expected ErrOrderNotFound, got %v", err)
		}
		if _, err := repo.GetByID(ctx, "not-a-uuid"); err != domain.ErrInvalidID {
			t.Fatalf("expected ErrInvalidID, got %v", err)
		}
	})
}
