package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/irsalhamdi/civic-events/config"
	"github.com/irsalhamdi/civic-events/core/cart"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
)

// Checkout opens a hosted checkout session on one payment provider.
type Checkout interface {
	Checkout(ctx context.Context, o cart.OrderRequest) (cart.Session, error)
}

// Gateway is the payment collaborator of the cart submitter. Calls go through
// a circuit breaker so a failing provider is refused fast instead of holding
// every checkout until it times out.
type Gateway struct {
	provider Provider
	checkout Checkout
	cb       *gobreaker.CircuitBreaker[cart.Session]
}

func NewGateway(provider Provider, checkout Checkout, cfg config.Breaker, log logrus.FieldLogger) *Gateway {
	st := gobreaker.Settings{
		Name:        string(provider),
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"provider": name,
				"from":     from.String(),
				"to":       to.String(),
			}).Warn("payment circuit breaker changed state")
		},
		// the visitor walking away says nothing about the provider
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}

	return &Gateway{
		provider: provider,
		checkout: checkout,
		cb:       gobreaker.NewCircuitBreaker[cart.Session](st),
	}
}

func (g *Gateway) Provider() Provider { return g.provider }

func (g *Gateway) CreateCheckoutSession(ctx context.Context, o cart.OrderRequest) (cart.Session, error) {
	sess, err := g.cb.Execute(func() (cart.Session, error) {
		return g.checkout.Checkout(ctx, o)
	})
	if err != nil {
		return cart.Session{}, fmt.Errorf("%s checkout for request[%s]: %w", g.provider, o.RequestID, err)
	}
	return sess, nil
}
