package event

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/irsalhamdi/civic-events/api/web"
	"github.com/irsalhamdi/civic-events/api/weberr"
	"github.com/irsalhamdi/civic-events/database"
	"github.com/irsalhamdi/civic-events/validate"
	"github.com/jmoiron/sqlx"
)

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		evs, err := FetchUpcoming(ctx, db)
		if err != nil {
			return fmt.Errorf("listing events: %w", err)
		}
		return web.Respond(ctx, w, evs, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(fmt.Errorf("passed id is not valid: %w", err))
		}

		ev, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, database.ErrDBNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}
		return web.Respond(ctx, w, ev, http.StatusOK)
	}
}

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var en EventNew
		if err := web.Decode(w, r, &en); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(en); err != nil {
			return invalid(err)
		}

		now := time.Now().UTC()
		ev := Event{
			ID:          validate.GenerateID(),
			Name:        en.Name,
			Description: en.Description,
			Location:    en.Location,
			ImageURL:    en.ImageURL,
			StartsAt:    en.StartsAt.UTC(),
			EndsAt:      en.EndsAt.UTC(),
			CreatedAt:   now,
			UpdatedAt:   now,
			Version:     1,
		}

		if err := Create(ctx, db, ev); err != nil {
			return err
		}
		return web.Respond(ctx, w, ev, http.StatusCreated)
	}
}

func HandleUpdate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(fmt.Errorf("passed id is not valid: %w", err))
		}

		var up EventUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		ev, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, database.ErrDBNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		if up.Name != nil {
			ev.Name = *up.Name
		}
		if up.Description != nil {
			ev.Description = *up.Description
		}
		if up.Location != nil {
			ev.Location = *up.Location
		}
		if up.ImageURL != nil {
			ev.ImageURL = *up.ImageURL
		}
		if up.StartsAt != nil {
			ev.StartsAt = up.StartsAt.UTC()
		}
		if up.EndsAt != nil {
			ev.EndsAt = up.EndsAt.UTC()
		}
		if !ev.EndsAt.After(ev.StartsAt) {
			return weberr.InvalidField(errors.New("endsAt must be after startsAt"), "endsAt")
		}
		ev.UpdatedAt = time.Now().UTC()

		if err := Update(ctx, db, ev); err != nil {
			if errors.Is(err, database.ErrDBNotFound) {
				return weberr.NewError(err, "the event was modified concurrently, retry", http.StatusConflict)
			}
			return err
		}
		ev.Version++

		return web.Respond(ctx, w, ev, http.StatusOK)
	}
}

func invalid(err error) error {
	var fe *validate.FieldError
	if errors.As(err, &fe) {
		return weberr.InvalidField(fe, fe.Field)
	}
	return weberr.BadRequest(err)
}
