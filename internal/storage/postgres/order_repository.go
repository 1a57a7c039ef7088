package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lmoreira/ordercore/internal/domain"
)

// OrderRepository implements app.OrderStore. Persist writes the order, its
// items and the catalog quantity write-back in one transaction, so a committed
// order is always fully queryable or absent.
type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) Persist(ctx context.Context, order domain.Order) error {
	return withTx(ctx, r.pool, func(txCtx context.Context) error {
		const insertOrder = `
INSERT INTO orders (id, customer_id, created_at)
VALUES ($1, $2, $3)`

		if _, err := r.exec(txCtx, insertOrder, order.ID, order.CustomerID, order.CreatedAt); err != nil {
			return mapPersistErr("insert order", err)
		}

		const insertItem = `
INSERT INTO order_items (order_id, line_no, product_id, unit_price, quantity)
VALUES ($1, $2, $3, $4, $5)`

		const decrementStock = `UPDATE products SET quantity = quantity - $2 WHERE id = $1`

		for i, item := range order.Items {
			if _, err := r.exec(txCtx, insertItem, order.ID, i+1, item.ProductID, item.UnitPrice, item.Quantity); err != nil {
				return mapPersistErr("insert order item", err)
			}
			if _, err := r.exec(txCtx, decrementStock, item.ProductID, item.Quantity); err != nil {
				return mapPersistErr("decrement stock", err)
			}
		}
		return nil
	})
}

// mapPersistErr translates transient Postgres failures into
// ErrConcurrencyConflict so the coordinator can retry. A check violation on
// the quantity column means another writer consumed the same stock.
func mapPersistErr(op string, err error) error {
	if isSerializationFailure(err) || isCheckViolation(err) {
		return domain.ErrConcurrencyConflict
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	const orderQuery = `SELECT id, customer_id, created_at FROM orders WHERE id = $1`

	var o domain.Order
	err := r.queryRow(ctx, orderQuery, id).Scan(&o.ID, &o.CustomerID, &o.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	const itemsQuery = `
SELECT product_id, unit_price, quantity
FROM order_items
WHERE order_id = $1
ORDER BY line_no`

	rows, err := r.query(ctx, itemsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ProductID, &item.UnitPrice, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read order items: %w", err)
	}
	return &o, nil
}

func (r *OrderRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *OrderRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *OrderRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
