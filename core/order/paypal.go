package order

import (
	"context"
	"fmt"
	"strconv"

	"github.com/irsalhamdi/civic-events/config"
	"github.com/irsalhamdi/civic-events/core/cart"
	"github.com/plutov/paypal/v4"
)

const paypalCompleted = "COMPLETED"

type Paypal struct {
	client *paypal.Client
	cfg    config.Paypal
}

func NewPaypal(client *paypal.Client, cfg config.Paypal) *Paypal {
	return &Paypal{client: client, cfg: cfg}
}

// Checkout creates a paypal order; the visitor is sent to its approve link.
func (p *Paypal) Checkout(ctx context.Context, o cart.OrderRequest) (cart.Session, error) {
	items := make([]paypal.Item, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, paypal.Item{
			Quantity: strconv.Itoa(it.Quantity),
			Name:     it.Name,
			SKU:      it.ProductID,

			UnitAmount: &paypal.Money{
				Currency: p.cfg.Currency,
				Value:    amount(it.Price),
			},
		})
	}

	tot := amount(o.Total())
	units := []paypal.PurchaseUnitRequest{{
		CustomID: o.RequestID,
		Items:    items,

		Amount: &paypal.PurchaseUnitAmount{
			Currency: p.cfg.Currency,
			Value:    tot,

			Breakdown: &paypal.PurchaseUnitAmountBreakdown{ItemTotal: &paypal.Money{
				Currency: p.cfg.Currency,
				Value:    tot,
			}},
		},
	}}

	app := &paypal.ApplicationContext{
		ReturnURL: p.cfg.ReturnURL,
		CancelURL: p.cfg.CancelURL,
	}

	ord, err := p.client.CreateOrder(ctx, "CAPTURE", units, nil, app)
	if err != nil {
		return cart.Session{}, fmt.Errorf("creating paypal order: %w", err)
	}

	sess := cart.Session{ProviderID: ord.ID}
	for _, l := range ord.Links {
		if l.Rel == "approve" || l.Rel == "payer-action" {
			sess.URL = l.Href
			break
		}
	}
	return sess, nil
}

// Capture collects the payment of an approved order.
func (p *Paypal) Capture(ctx context.Context, providerID string) error {
	resp, err := p.client.CaptureOrder(ctx, providerID, paypal.CaptureOrderRequest{})
	if err != nil {
		return fmt.Errorf("capturing paypal order[%s]: %w", providerID, err)
	}

	if resp.Status != paypalCompleted {
		return fmt.Errorf("captured order[%s] with status[%s] different from %q", providerID, resp.Status, paypalCompleted)
	}
	return nil
}

// amount formats cents the way paypal expects them, e.g. 1250 as "12.50".
func amount(cents int) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
