package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/irsalhamdi/civic-events/api/web"
	"github.com/irsalhamdi/civic-events/api/weberr"
	"github.com/irsalhamdi/civic-events/config"
	"github.com/irsalhamdi/civic-events/core/cart"
	"github.com/irsalhamdi/civic-events/database"
	"github.com/irsalhamdi/civic-events/validate"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"
)

type CheckoutResult struct {
	OrderID     string `json:"orderId"`
	CheckoutURL string `json:"checkoutUrl"`
}

// Recorder persists the pending order of an acknowledged checkout.
type Recorder interface {
	Record(ctx context.Context, provider Provider, rec cart.Receipt) (Order, error)
}

type DBRecorder struct {
	db *sqlx.DB
}

func NewRecorder(db *sqlx.DB) *DBRecorder {
	return &DBRecorder{db: db}
}

func (r *DBRecorder) Record(ctx context.Context, provider Provider, rec cart.Receipt) (Order, error) {
	now := time.Now().UTC()
	ord := Order{
		ID:         validate.GenerateID(),
		CartKey:    rec.Order.CartKey,
		RequestID:  rec.Order.RequestID,
		Provider:   provider,
		ProviderID: rec.Session.ProviderID,
		Status:     Pending,
		Total:      rec.Order.Total(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := database.Transaction(r.db, func(tx sqlx.ExtContext) error {
		if err := Create(ctx, tx, ord); err != nil {
			return fmt.Errorf("creating order: %w", err)
		}

		for _, oi := range rec.Order.Items {
			reg, err := json.Marshal(oi.Registration)
			if err != nil {
				return fmt.Errorf("encoding registration of product[%s]: %w", oi.ProductID, err)
			}

			it := Item{
				OrderID:      ord.ID,
				ProductID:    oi.ProductID,
				Kind:         oi.Kind,
				Quantity:     oi.Quantity,
				Price:        oi.Price,
				Registration: types.JSONText(reg),
				CreatedAt:    now,
			}
			if err := CreateItem(ctx, tx, it); err != nil {
				return fmt.Errorf("creating item: %w", err)
			}
		}

		return nil
	})

	if err != nil {
		return Order{}, fmt.Errorf("creating the order bound to payment[%s] for cart[%s]: %w", ord.ProviderID, ord.CartKey, err)
	}
	return ord, nil
}

// settle moves the order bound to providerID to status and publishes the
// matching event. Provider notifications may be repeated; settling twice is a
// no-op.
func settle(ctx context.Context, db *sqlx.DB, pub Publisher, log logrus.FieldLogger, providerID string, status Status) error {
	ord, err := FetchByProviderID(ctx, db, providerID)
	if err != nil {
		return err
	}
	if ord.Status == status {
		return nil
	}

	up := StatusUp{
		ID:        ord.ID,
		Status:    status,
		UpdatedAt: time.Now().UTC(),
	}
	if err := UpdateStatus(ctx, db, up); err != nil {
		return fmt.Errorf("settling the order[%s] bound to payment[%s]: %w", ord.ID, providerID, err)
	}

	typ := EventCompleted
	if status == Expired {
		typ = EventExpired
	}

	log = log.WithFields(logrus.Fields{"order": ord.ID, "status": status})
	if err := pub.Publish(ctx, NewEvent(typ, ord)); err != nil {
		log.WithError(err).Warn("publishing order event failed")
	}
	log.Info("order settled")
	return nil
}

// HandleCheckout submits the visitor cart to a provider, records the pending
// order and clears the cart once the provider handed back a checkout url. The
// cart stays locked against other checkouts until it is cleared.
func HandleCheckout(provider Provider, sub *cart.Submitter, orders Recorder, carts cart.Persister, log logrus.FieldLogger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		s, err := cart.OpenFromContext(ctx, carts, log)
		if err != nil {
			return err
		}

		rec, err := sub.Submit(ctx, s.Key(), s.State())
		if err != nil {
			return cart.WebError(fmt.Errorf("submitting cart[%s] to %s: %w", s.Key(), provider, err))
		}
		defer rec.Done()

		ord, err := orders.Record(ctx, provider, rec)
		if err != nil {
			return err
		}

		s.Clear(ctx)

		log.WithFields(logrus.Fields{
			"order":    ord.ID,
			"provider": provider,
			"total":    ord.Total,
		}).Info("checkout session created")

		res := CheckoutResult{
			OrderID:     ord.ID,
			CheckoutURL: rec.Session.URL,
		}
		return web.Respond(ctx, w, res, http.StatusOK)
	}
}

func HandlePaypalCapture(db *sqlx.DB, pp *Paypal, pub Publisher, log logrus.FieldLogger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		providerID := web.Param(r, "id")

		if _, err := FetchByProviderID(ctx, db, providerID); err != nil {
			if errors.Is(err, database.ErrDBNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		if err := pp.Capture(ctx, providerID); err != nil {
			return weberr.Unavailable(err)
		}

		if err := settle(ctx, db, pub, log, providerID, Success); err != nil {
			return fmt.Errorf("the order was payed but its fulfillment failed: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleStripeCapture(db *sqlx.DB, pub Publisher, cfg config.Stripe, log logrus.FieldLogger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("cannot read the request body: %w", err))
		}

		sig := r.Header.Get("Stripe-Signature")
		if sig == "" {
			return weberr.BadRequest(errors.New("received stripe event is not signed"))
		}

		event, err := webhook.ConstructEvent(b, sig, cfg.WebhookSecret)
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("cannot construct stripe event: %w", err))
		}

		var status Status
		switch event.Type {
		case "checkout.session.completed":
			status = Success
		case "checkout.session.expired":
			status = Expired
		default:
			return web.Respond(ctx, w, nil, http.StatusNoContent)
		}

		var session stripe.CheckoutSession
		if err = json.Unmarshal(event.Data.Raw, &session); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode stripe event: %w", err))
		}

		if session.Mode != stripe.CheckoutSessionModePayment {
			return web.Respond(ctx, w, nil, http.StatusNoContent)
		}

		if err := settle(ctx, db, pub, log, session.ID, status); err != nil {
			if errors.Is(err, database.ErrDBNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("the order was payed but its fulfillment failed: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.InvalidField(err, "id")
		}

		ord, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, database.ErrDBNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		items, err := FetchItems(ctx, db, id)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, Detail{Order: ord, Items: items}, http.StatusOK)
	}
}
