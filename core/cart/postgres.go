package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/irsalhamdi/civic-events/database"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
)

type PostgresPersister struct {
	db *sqlx.DB
}

func NewPostgresPersister(db *sqlx.DB) *PostgresPersister {
	return &PostgresPersister{db: db}
}

type row struct {
	CartKey   string         `db:"cart_key"`
	State     types.JSONText `db:"state"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (p *PostgresPersister) Load(ctx context.Context, key string) (State, error) {
	const q = `SELECT cart_key, state, updated_at FROM carts WHERE cart_key = $1`

	var r row
	if err := sqlx.GetContext(ctx, p.db, &r, q, key); err != nil {
		if err := database.Check(err); errors.Is(err, database.ErrDBNotFound) {
			return State{}, ErrNotFound
		}
		return State{}, fmt.Errorf("selecting cart: %w", err)
	}

	var st State
	if err := json.Unmarshal(r.State, &st); err != nil {
		return State{}, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return st, nil
}

func (p *PostgresPersister) Save(ctx context.Context, key string, st State) error {
	const q = `
	INSERT INTO carts (cart_key, state, updated_at)
	VALUES (:cart_key, :state, :updated_at)
	ON CONFLICT (cart_key) DO UPDATE SET
		state = EXCLUDED.state,
		updated_at = EXCLUDED.updated_at`

	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	r := row{CartKey: key, State: types.JSONText(data), UpdatedAt: time.Now().UTC()}
	if _, err := sqlx.NamedExecContext(ctx, p.db, q, r); err != nil {
		return fmt.Errorf("upserting cart: %w", err)
	}
	return nil
}

func (p *PostgresPersister) Delete(ctx context.Context, key string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM carts WHERE cart_key = $1`, key); err != nil {
		return fmt.Errorf("deleting cart: %w", err)
	}
	return nil
}
