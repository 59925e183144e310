package product

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/irsalhamdi/civic-events/api/web"
	"github.com/irsalhamdi/civic-events/api/weberr"
	"github.com/irsalhamdi/civic-events/core/event"
	"github.com/irsalhamdi/civic-events/database"
	"github.com/irsalhamdi/civic-events/validate"
	"github.com/jmoiron/sqlx"
)

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		ps, err := FetchAll(ctx, db)
		if err != nil {
			return fmt.Errorf("listing products: %w", err)
		}
		return web.Respond(ctx, w, ps, http.StatusOK)
	}
}

func HandleListByEvent(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		eventID := web.Param(r, "event_id")
		if err := validate.CheckID(eventID); err != nil {
			return weberr.BadRequest(fmt.Errorf("passed id is not valid: %w", err))
		}

		ps, err := FetchByEvent(ctx, db, eventID)
		if err != nil {
			return err
		}
		return web.Respond(ctx, w, ps, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(fmt.Errorf("passed id is not valid: %w", err))
		}

		p, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, database.ErrDBNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}
		return web.Respond(ctx, w, p, http.StatusOK)
	}
}

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var pn ProductNew
		if err := web.Decode(w, r, &pn); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(pn); err != nil {
			var fe *validate.FieldError
			if errors.As(err, &fe) {
				return weberr.InvalidField(fe, fe.Field)
			}
			return weberr.BadRequest(err)
		}

		if pn.EventID != nil {
			if _, err := event.Fetch(ctx, db, *pn.EventID); err != nil {
				if errors.Is(err, database.ErrDBNotFound) {
					return weberr.InvalidField(errors.New("event does not exist"), "eventId")
				}
				return err
			}
		}

		now := time.Now().UTC()
		p := Product{
			ID:          validate.GenerateID(),
			EventID:     pn.EventID,
			Name:        pn.Name,
			Description: pn.Description,
			Kind:        pn.Kind,
			Price:       pn.Price,
			ImageURL:    pn.ImageURL,
			CreatedAt:   now,
			UpdatedAt:   now,
			Version:     1,
		}

		if err := Create(ctx, db, p); err != nil {
			return err
		}
		return web.Respond(ctx, w, p, http.StatusCreated)
	}
}

// HandleUpdate edits the catalog entry. Carts already holding the product keep
// the snapshot taken when the item was added.
func HandleUpdate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(fmt.Errorf("passed id is not valid: %w", err))
		}

		var up ProductUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}
		if err := validate.Check(up); err != nil {
			return weberr.BadRequest(err)
		}

		p, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, database.ErrDBNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		if up.Name != nil {
			p.Name = *up.Name
		}
		if up.Description != nil {
			p.Description = *up.Description
		}
		if up.Price != nil {
			p.Price = *up.Price
		}
		if up.ImageURL != nil {
			p.ImageURL = *up.ImageURL
		}
		p.UpdatedAt = time.Now().UTC()

		if err := Update(ctx, db, p); err != nil {
			if errors.Is(err, database.ErrDBNotFound) {
				return weberr.NewError(err, "the product was modified concurrently, retry", http.StatusConflict)
			}
			return err
		}
		p.Version++

		return web.Respond(ctx, w, p, http.StatusOK)
	}
}
