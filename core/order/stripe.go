package order

import (
	"context"
	"fmt"

	"github.com/irsalhamdi/civic-events/config"
	"github.com/irsalhamdi/civic-events/core/cart"
	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
)

type Stripe struct {
	api *stripecl.API
	cfg config.Stripe
}

func NewStripe(api *stripecl.API, cfg config.Stripe) *Stripe {
	return &Stripe{api: api, cfg: cfg}
}

// Checkout creates a hosted checkout session. The request id is sent as the
// idempotency key, so a resent request never opens a second session.
func (s *Stripe) Checkout(ctx context.Context, o cart.OrderRequest) (cart.Session, error) {
	li := make([]*stripe.CheckoutSessionLineItemParams, 0, len(o.Items))
	for _, it := range o.Items {
		li = append(li, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(int64(it.Quantity)),

			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(s.cfg.Currency),
				TaxBehavior: stripe.String("inclusive"),
				UnitAmount:  stripe.Int64(int64(it.Price)),

				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(it.Name),
					Metadata: map[string]string{
						"product_id": it.ProductID,
						"kind":       string(it.Kind),
					},
				},
			},
		})
	}

	params := &stripe.CheckoutSessionParams{
		SuccessURL:        stripe.String(s.cfg.SuccessURL),
		CancelURL:         stripe.String(s.cfg.CancelURL),
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(o.RequestID),
		LineItems:         li,
	}
	params.Context = ctx
	params.SetIdempotencyKey(o.RequestID)
	params.AddMetadata("request_id", o.RequestID)
	params.AddMetadata("cart_key", o.CartKey)

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return cart.Session{}, fmt.Errorf("creating stripe session: %w", err)
	}

	return cart.Session{ProviderID: sess.ID, URL: sess.URL}, nil
}
