package test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gorilla/mux"
	"github.com/irsalhamdi/civic-events/api/web"
	"github.com/plutov/paypal/v4"
	mock "github.com/stripe/stripe-mock/param"
)

var sessionSeq int64

type mockPaypal struct {
	mu            sync.Mutex
	expectedTotal string
}

func (m *mockPaypal) expect(cents int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expectedTotal = fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

func (m *mockPaypal) handle() http.Handler {
	checkout := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var pu struct {
			Units []paypal.PurchaseUnitRequest `json:"purchase_units"`
		}
		if err := json.NewDecoder(r.Body).Decode(&pu); err != nil {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		if len(pu.Units) != 1 {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		m.mu.Lock()
		exp := m.expectedTotal
		m.mu.Unlock()

		if pu.Units[0].Amount.Value != exp {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		id := fmt.Sprintf("PAYPAL-%d", atomic.AddInt64(&sessionSeq, 1))
		ord := map[string]any{
			"id":     id,
			"status": "CREATED",
			"links": []map[string]string{
				{"href": "https://www.paypal.test/checkoutnow/" + id, "rel": "approve"},
			},
		}
		web.Respond(context.Background(), w, ord, 201)
	})

	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ord := paypal.Order{Status: "COMPLETED"}
		web.Respond(context.Background(), w, ord, 201)
	})

	r := mux.NewRouter()
	r.Handle("/v2/checkout/orders", checkout).Methods("POST")
	r.Handle("/v2/checkout/orders/{id}/capture", capture).Methods("POST")
	return r
}

type mockStripe struct {
	mu            sync.Mutex
	expectedTotal int
	fail          bool
}

func (m *mockStripe) expect(cents int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expectedTotal = cents
	m.fail = false
}

func (m *mockStripe) failNext() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = true
}

func (m *mockStripe) handle() http.Handler {
	checkout := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		exp, fail := m.expectedTotal, m.fail
		m.mu.Unlock()

		if fail {
			web.Respond(context.Background(), w, map[string]any{"error": map[string]any{"message": "unavailable"}}, 503)
			return
		}

		params, _ := mock.ParseParams(r)
		lines := params["line_items"].(map[string]any)

		tot := 0
		for _, li := range lines {
			it := li.(map[string]any)

			qty, err := strconv.Atoi(it["quantity"].(string))
			if err != nil {
				web.Respond(context.Background(), w, err, 400)
				return
			}

			pd := it["price_data"].(map[string]any)
			amount, err := strconv.Atoi(pd["unit_amount"].(string))
			if err != nil {
				web.Respond(context.Background(), w, err, 400)
				return
			}

			tot += qty * amount
		}

		if tot != exp {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		id := fmt.Sprintf("cs_test_%d", atomic.AddInt64(&sessionSeq, 1))
		sess := map[string]any{"id": id, "object": "checkout.session", "url": "https://checkout.stripe.test/" + id}
		web.Respond(context.Background(), w, sess, 200)
	})

	r := mux.NewRouter()
	r.Handle("/v1/checkout/sessions", checkout).Methods("POST")
	return r
}
