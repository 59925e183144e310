package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/irsalhamdi/civic-events/core/product"
	"github.com/irsalhamdi/civic-events/core/registration"
	"github.com/irsalhamdi/civic-events/validate"
)

type OrderItem struct {
	ProductID    string               `json:"productId"`
	Quantity     int                  `json:"quantity"`
	Registration registration.Payload `json:"registrationData"`
	Name         string               `json:"name"`
	Price        int                  `json:"price"`
	Kind         product.Kind         `json:"kind"`
}

// OrderRequest is what the payment provider is asked to charge. RequestID is
// unique per submission and doubles as the provider idempotency key.
type OrderRequest struct {
	RequestID string      `json:"requestId"`
	CartKey   string      `json:"-"`
	Items     []OrderItem `json:"items"`
}

func (o OrderRequest) Total() int {
	var tot int
	for _, it := range o.Items {
		tot += it.Quantity * it.Price
	}
	return tot
}

// Session is the hosted checkout the visitor is redirected to.
type Session struct {
	ProviderID string `json:"-"`
	URL        string `json:"checkoutUrl"`
}

type PaymentCollaborator interface {
	CreateCheckoutSession(ctx context.Context, order OrderRequest) (Session, error)
}

// Receipt is an acknowledged submission. The cart stays locked against other
// submissions until Done is called.
type Receipt struct {
	Order   OrderRequest
	Session Session

	release func()
}

// Done unlocks the cart. Call it once the order is recorded and the cart
// cleared; calling it more than once is harmless.
func (r Receipt) Done() {
	if r.release != nil {
		r.release()
	}
}

// Guard is the set of carts with a submission in progress. Submitters for
// different providers share one Guard so a cart is submitted once at a time,
// whatever the provider.
type Guard struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewGuard() *Guard {
	return &Guard{inFlight: make(map[string]struct{})}
}

func (g *Guard) acquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.inFlight[key]; ok {
		return false
	}
	g.inFlight[key] = struct{}{}
	return true
}

func (g *Guard) release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inFlight, key)
}

// Submitter hands carts to the payment provider. It never mutates the cart:
// whoever called Submit clears it once the session is acknowledged.
type Submitter struct {
	payments PaymentCollaborator
	guard    *Guard
}

// NewSubmitter uses guard to refuse concurrent submissions of a cart. A nil
// guard gives the submitter one of its own.
func NewSubmitter(payments PaymentCollaborator, guard *Guard) *Submitter {
	if guard == nil {
		guard = NewGuard()
	}
	return &Submitter{
		payments: payments,
		guard:    guard,
	}
}

// Submit checks the registration gate again, whatever the entry point that
// led here, and asks the provider for a checkout session. On success the cart
// stays locked until the returned Receipt is Done.
func (s *Submitter) Submit(ctx context.Context, key string, st State) (Receipt, error) {
	if len(st.Items) == 0 {
		return Receipt{}, &ValidationError{Field: "items", Reason: "cart is empty"}
	}
	for _, it := range st.Items {
		if it.Quantity <= 0 {
			return Receipt{}, &ValidationError{Field: "quantity", Reason: "item[" + it.ID + "] has a non positive quantity"}
		}
	}

	if st.AnyPending("") {
		return Receipt{}, &RegistrationRequiredError{Next: NextAction(st, "")}
	}

	if !s.guard.acquire(key) {
		return Receipt{}, ErrCheckoutInFlight
	}
	release := sync.OnceFunc(func() { s.guard.release(key) })

	order := BuildOrder(key, st)

	sess, err := s.payments.CreateCheckoutSession(ctx, order)
	if err != nil {
		release()
		return Receipt{}, &PaymentError{Err: err}
	}
	if sess.URL == "" {
		release()
		return Receipt{}, &PaymentError{Err: errors.New("checkout session has no url")}
	}

	return Receipt{Order: order, Session: sess, release: release}, nil
}

func BuildOrder(key string, st State) OrderRequest {
	items := make([]OrderItem, 0, len(st.Items))
	for _, it := range st.Items {
		items = append(items, OrderItem{
			ProductID:    it.ProductID,
			Quantity:     it.Quantity,
			Registration: it.Registration,
			Name:         it.Product.Name,
			Price:        it.Product.Price,
			Kind:         it.Product.Kind,
		})
	}

	return OrderRequest{
		RequestID: validate.GenerateID(),
		CartKey:   key,
		Items:     items,
	}
}
