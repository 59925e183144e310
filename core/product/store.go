package product

import (
	"context"
	"fmt"

	"github.com/irsalhamdi/civic-events/database"
	"github.com/jmoiron/sqlx"
)

const columns = `product_id, event_id, name, description, kind, price, image_url, created_at, updated_at, version`

func Create(ctx context.Context, db sqlx.ExtContext, p Product) error {
	const q = `
	INSERT INTO products
		(product_id, event_id, name, description, kind, price, image_url, created_at, updated_at)
	VALUES
		(:product_id, :event_id, :name, :description, :kind, :price, :image_url, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, p); err != nil {
		return fmt.Errorf("inserting product: %w", database.Check(err))
	}
	return nil
}

func Update(ctx context.Context, db sqlx.ExtContext, p Product) error {
	const q = `
	UPDATE products SET
		name = :name,
		description = :description,
		price = :price,
		image_url = :image_url,
		updated_at = :updated_at,
		version = version + 1
	WHERE product_id = :product_id AND version = :version`

	res, err := sqlx.NamedExecContext(ctx, db, q, p)
	if err != nil {
		return fmt.Errorf("updating product[%s]: %w", p.ID, database.Check(err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("updating product[%s]: %w", p.ID, database.ErrDBNotFound)
	}
	return nil
}

// Fetch is the catalog lookup the cart snapshots products from.
func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Product, error) {
	q := `SELECT ` + columns + ` FROM products WHERE product_id = $1`

	var p Product
	if err := sqlx.GetContext(ctx, db, &p, q, id); err != nil {
		return Product{}, fmt.Errorf("selecting product[%s]: %w", id, database.Check(err))
	}
	return p, nil
}

func FetchAll(ctx context.Context, db sqlx.ExtContext) ([]Product, error) {
	q := `SELECT ` + columns + ` FROM products ORDER BY created_at`

	ps := []Product{}
	if err := sqlx.SelectContext(ctx, db, &ps, q); err != nil {
		return nil, fmt.Errorf("selecting products: %w", err)
	}
	return ps, nil
}

func FetchByEvent(ctx context.Context, db sqlx.ExtContext, eventID string) ([]Product, error) {
	q := `SELECT ` + columns + ` FROM products WHERE event_id = $1 ORDER BY kind, name`

	ps := []Product{}
	if err := sqlx.SelectContext(ctx, db, &ps, q, eventID); err != nil {
		return nil, fmt.Errorf("selecting products of event[%s]: %w", eventID, err)
	}
	return ps, nil
}

// Catalog is the read-only product lookup handed to the cart.
type Catalog struct {
	db sqlx.ExtContext
}

func NewCatalog(db sqlx.ExtContext) Catalog {
	return Catalog{db: db}
}

func (c Catalog) Product(ctx context.Context, id string) (Product, error) {
	return Fetch(ctx, c.db, id)
}
