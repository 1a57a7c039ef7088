package postgres

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lmoreira/ordercore/internal/domain"
	"github.com/lmoreira/ordercore/internal/testutil"
)

func TestCustomerRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewCustomerRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	t.Run("FindByID resolves an existing customer", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		customerID := testutil.InsertCustomer(t, ctx, pool, "ana")

		customer, err := repo.FindByID(ctx, customerID)
		if err != nil {
			t.Fatalf("find customer: %v", err)
		}
		if customer == nil || customer.ID != customerID {
			t.Fatalf("unexpected customer: %+v", customer)
		}
	})

	t.Run("FindByID returns nil for an absent customer", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		customer, err := repo.FindByID(ctx, uuid.NewString())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if customer != nil {
			t.Fatalf("expected nil customer, got %+v", customer)
		}
	})

	t.Run("FindByID rejects malformed ids", func(t *testing.T) {
		ctx := context.Background()

		_, err := repo.FindByID(ctx, "not-a-uuid")
		if err != domain.ErrInvalidID {
			t.Fatalf("expected ErrInvalidID, got %v", err)
		}
	})
}
