package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/irsalhamdi/civic-events/core/product"
)

type fakePayments struct {
	mu     sync.Mutex
	orders []OrderRequest
	sess   Session
	err    error

	// closed by the test to let a blocked call return
	hold    chan struct{}
	entered chan struct{}
}

func (f *fakePayments) CreateCheckoutSession(ctx context.Context, order OrderRequest) (Session, error) {
	f.mu.Lock()
	f.orders = append(f.orders, order)
	f.mu.Unlock()

	if f.hold != nil {
		f.entered <- struct{}{}
		<-f.hold
	}
	return f.sess, f.err
}

func (f *fakePayments) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

func okPayments() *fakePayments {
	return &fakePayments{sess: Session{ProviderID: "cs_test_1", URL: "https://checkout.example.com/cs_test_1"}}
}

func TestSubmit(t *testing.T) {
	s, _ := newStore(t)
	tk := mustAdd(t, s, ticket, 2)
	v := mustAdd(t, s, stall, 1)
	if err := s.SetRegistration(context.Background(), v.ID, vendorForm); err != nil {
		t.Fatal(err)
	}

	pay := okPayments()
	rec, err := NewSubmitter(pay, nil).Submit(context.Background(), s.Key(), s.State())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if rec.Session.URL != pay.sess.URL {
		t.Fatalf("expected checkout url %s, got %s", pay.sess.URL, rec.Session.URL)
	}
	if rec.Order.RequestID == "" || rec.Order.CartKey != s.Key() {
		t.Fatalf("order not identified: %+v", rec.Order)
	}

	exp := []OrderItem{
		{ProductID: tk.ProductID, Quantity: 2, Name: ticket.Name, Price: ticket.Price, Kind: product.Ticket},
		{ProductID: v.ProductID, Quantity: 1, Registration: vendorForm, Name: stall.Name, Price: stall.Price, Kind: product.VendorSpot},
	}
	if diff := cmp.Diff(exp, pay.orders[0].Items); diff != "" {
		t.Fatalf("wrong order items (-want +got):\n%s", diff)
	}
	if got := rec.Order.Total(); got != 2*1200+15000 {
		t.Fatalf("expected total 17400, got %d", got)
	}
	if len(s.State().Items) != 2 {
		t.Fatal("submitting must not clear the cart")
	}
	rec.Done()
}

func TestSubmitBlockedByPendingRegistration(t *testing.T) {
	s, _ := newStore(t)
	mustAdd(t, s, ticket, 1)
	sh := mustAdd(t, s, shift, 1)
	before := s.State()

	pay := okPayments()
	_, err := NewSubmitter(pay, nil).Submit(context.Background(), s.Key(), s.State())

	var rerr *RegistrationRequiredError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected a registration required error, got %v", err)
	}
	exp := Action{Action: ActionRegister, ItemID: sh.ID, Kind: product.VolunteerShift}
	if rerr.Next != exp {
		t.Fatalf("expected next %+v, got %+v", exp, rerr.Next)
	}
	if pay.calls() != 0 {
		t.Fatal("payment provider must not be called")
	}
	if diff := cmp.Diff(before, s.State()); diff != "" {
		t.Fatalf("cart changed (-want +got):\n%s", diff)
	}
}

func TestSubmitRejectsEmptyCart(t *testing.T) {
	pay := okPayments()
	_, err := NewSubmitter(pay, nil).Submit(context.Background(), "cart-1", State{})

	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "items" {
		t.Fatalf("expected a validation error on items, got %v", err)
	}
	if pay.calls() != 0 {
		t.Fatal("payment provider must not be called")
	}
}

func TestSubmitPaymentFailures(t *testing.T) {
	tt := []struct {
		name string
		pay  *fakePayments
	}{
		{"provider error", &fakePayments{err: errors.New("connection reset")}},
		{"missing url", &fakePayments{sess: Session{ProviderID: "cs_test_1"}}},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := newStore(t)
			mustAdd(t, s, shirt, 1)
			before := s.State()

			sub := NewSubmitter(tc.pay, nil)
			_, err := sub.Submit(context.Background(), s.Key(), s.State())

			var perr *PaymentError
			if !errors.As(err, &perr) {
				t.Fatalf("expected a payment error, got %v", err)
			}
			if diff := cmp.Diff(before, s.State()); diff != "" {
				t.Fatalf("cart changed (-want +got):\n%s", diff)
			}

			// the guard is released, a retry reaches the provider again
			sub.Submit(context.Background(), s.Key(), s.State())
			if tc.pay.calls() != 2 {
				t.Fatalf("expected a retry to reach the provider, got %d calls", tc.pay.calls())
			}
		})
	}
}

func TestSubmitInFlightGuard(t *testing.T) {
	s, _ := newStore(t)
	mustAdd(t, s, ticket, 1)

	pay := okPayments()
	pay.hold = make(chan struct{})
	pay.entered = make(chan struct{}, 1)
	sub := NewSubmitter(pay, nil)

	done := make(chan error, 1)
	go func() {
		_, err := sub.Submit(context.Background(), s.Key(), s.State())
		done <- err
	}()
	<-pay.entered

	if _, err := sub.Submit(context.Background(), s.Key(), s.State()); !errors.Is(err, ErrCheckoutInFlight) {
		t.Fatalf("expected the second submit to be refused, got %v", err)
	}

	close(pay.hold)
	if err := <-done; err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if pay.calls() != 1 {
		t.Fatalf("expected exactly one provider call, got %d", pay.calls())
	}
}

func TestSubmitSharedGuardAcrossProviders(t *testing.T) {
	s, _ := newStore(t)
	mustAdd(t, s, ticket, 1)

	card := okPayments()
	card.hold = make(chan struct{})
	card.entered = make(chan struct{}, 1)
	wallet := okPayments()

	guard := NewGuard()
	byCard := NewSubmitter(card, guard)
	byWallet := NewSubmitter(wallet, guard)

	done := make(chan error, 1)
	go func() {
		rec, err := byCard.Submit(context.Background(), s.Key(), s.State())
		rec.Done()
		done <- err
	}()
	<-card.entered

	if _, err := byWallet.Submit(context.Background(), s.Key(), s.State()); !errors.Is(err, ErrCheckoutInFlight) {
		t.Fatalf("expected the other provider to be refused, got %v", err)
	}
	if wallet.calls() != 0 {
		t.Fatalf("expected the other provider not to be called, got %d calls", wallet.calls())
	}

	close(card.hold)
	if err := <-done; err != nil {
		t.Fatalf("first submit failed: %v", err)
	}

	rec, err := byWallet.Submit(context.Background(), s.Key(), s.State())
	if err != nil {
		t.Fatalf("expected the cart to be free once the first receipt is done, got %v", err)
	}
	rec.Done()
}

func TestSubmitHoldsCartUntilDone(t *testing.T) {
	s, _ := newStore(t)
	mustAdd(t, s, ticket, 1)

	pay := okPayments()
	sub := NewSubmitter(pay, nil)

	rec, err := sub.Submit(context.Background(), s.Key(), s.State())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := sub.Submit(context.Background(), s.Key(), s.State()); !errors.Is(err, ErrCheckoutInFlight) {
		t.Fatalf("expected the cart to stay locked until done, got %v", err)
	}

	rec.Done()
	rec.Done()

	again, err := sub.Submit(context.Background(), s.Key(), s.State())
	if err != nil {
		t.Fatalf("expected the cart to be free after done, got %v", err)
	}
	again.Done()

	if pay.calls() != 2 {
		t.Fatalf("expected 2 provider calls, got %d", pay.calls())
	}
}

func TestBuildOrderUsesFreshRequestIDs(t *testing.T) {
	s, _ := newStore(t)
	mustAdd(t, s, ticket, 1)

	a := BuildOrder(s.Key(), s.State())
	b := BuildOrder(s.Key(), s.State())
	if a.RequestID == b.RequestID {
		t.Fatal("expected every order to get its own request id")
	}
}
