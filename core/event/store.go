package event

import (
	"context"
	"fmt"

	"github.com/irsalhamdi/civic-events/database"
	"github.com/jmoiron/sqlx"
)

func Create(ctx context.Context, db sqlx.ExtContext, ev Event) error {
	const q = `
	INSERT INTO events
		(event_id, name, description, location, image_url, starts_at, ends_at, created_at, updated_at)
	VALUES
		(:event_id, :name, :description, :location, :image_url, :starts_at, :ends_at, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, ev); err != nil {
		return fmt.Errorf("inserting event: %w", database.Check(err))
	}
	return nil
}

func Update(ctx context.Context, db sqlx.ExtContext, ev Event) error {
	const q = `
	UPDATE events SET
		name = :name,
		description = :description,
		location = :location,
		image_url = :image_url,
		starts_at = :starts_at,
		ends_at = :ends_at,
		updated_at = :updated_at,
		version = version + 1
	WHERE event_id = :event_id AND version = :version`

	res, err := sqlx.NamedExecContext(ctx, db, q, ev)
	if err != nil {
		return fmt.Errorf("updating event[%s]: %w", ev.ID, database.Check(err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("updating event[%s]: %w", ev.ID, database.ErrDBNotFound)
	}
	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Event, error) {
	const q = `
	SELECT event_id, name, description, location, image_url, starts_at, ends_at, created_at, updated_at, version
	FROM events
	WHERE event_id = $1`

	var ev Event
	if err := sqlx.GetContext(ctx, db, &ev, q, id); err != nil {
		return Event{}, fmt.Errorf("selecting event[%s]: %w", id, database.Check(err))
	}
	return ev, nil
}

// FetchUpcoming lists events that have not ended yet, soonest first.
func FetchUpcoming(ctx context.Context, db sqlx.ExtContext) ([]Event, error) {
	const q = `
	SELECT event_id, name, description, location, image_url, starts_at, ends_at, created_at, updated_at, version
	FROM events
	WHERE ends_at >= now()
	ORDER BY starts_at`

	evs := []Event{}
	if err := sqlx.SelectContext(ctx, db, &evs, q); err != nil {
		return nil, fmt.Errorf("selecting upcoming events: %w", err)
	}
	return evs, nil
}
