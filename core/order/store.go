package order

import (
	"context"
	"fmt"

	"github.com/irsalhamdi/civic-events/database"
	"github.com/jmoiron/sqlx"
)

func Create(ctx context.Context, db sqlx.ExtContext, ord Order) error {
	const q = `
	INSERT INTO orders
		(order_id, cart_key, request_id, provider, provider_id, status, total, created_at, updated_at)
	VALUES
		(:order_id, :cart_key, :request_id, :provider, :provider_id, :status, :total, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, ord); err != nil {
		return fmt.Errorf("inserting order: %w", database.Check(err))
	}
	return nil
}

func CreateItem(ctx context.Context, db sqlx.ExtContext, it Item) error {
	const q = `
	INSERT INTO order_items
		(order_id, product_id, kind, quantity, price, registration, created_at)
	VALUES
		(:order_id, :product_id, :kind, :quantity, :price, :registration, :created_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, it); err != nil {
		return fmt.Errorf("inserting order item: %w", database.Check(err))
	}
	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Order, error) {
	const q = `
	SELECT order_id, cart_key, request_id, provider, provider_id, status, total, created_at, updated_at
	FROM orders
	WHERE order_id = $1`

	var ord Order
	if err := sqlx.GetContext(ctx, db, &ord, q, id); err != nil {
		return Order{}, fmt.Errorf("selecting order[%s]: %w", id, database.Check(err))
	}
	return ord, nil
}

func FetchByProviderID(ctx context.Context, db sqlx.ExtContext, providerID string) (Order, error) {
	const q = `
	SELECT order_id, cart_key, request_id, provider, provider_id, status, total, created_at, updated_at
	FROM orders
	WHERE provider_id = $1`

	var ord Order
	if err := sqlx.GetContext(ctx, db, &ord, q, providerID); err != nil {
		return Order{}, fmt.Errorf("selecting order bound to payment[%s]: %w", providerID, database.Check(err))
	}
	return ord, nil
}

func FetchItems(ctx context.Context, db sqlx.ExtContext, orderID string) ([]Item, error) {
	const q = `
	SELECT order_id, product_id, kind, quantity, price, registration, created_at
	FROM order_items
	WHERE order_id = $1
	ORDER BY created_at, product_id`

	items := []Item{}
	if err := sqlx.SelectContext(ctx, db, &items, q, orderID); err != nil {
		return nil, fmt.Errorf("selecting items of order[%s]: %w", orderID, err)
	}
	return items, nil
}

func UpdateStatus(ctx context.Context, db sqlx.ExtContext, up StatusUp) error {
	const q = `
	UPDATE orders SET
		status = :status,
		updated_at = :updated_at
	WHERE order_id = :order_id`

	if _, err := sqlx.NamedExecContext(ctx, db, q, up); err != nil {
		return fmt.Errorf("updating status of order[%s]: %w", up.ID, database.Check(err))
	}
	return nil
}
