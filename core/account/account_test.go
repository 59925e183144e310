package account

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/irsalhamdi/civic-events/api/web"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
)

type fakeFetcher struct {
	st  Status
	err error
}

func (f *fakeFetcher) Fetch(context.Context) (Status, error) {
	return f.st, f.err
}

func TestMonitorStaleness(t *testing.T) {
	log, _ := test.NewNullLogger()
	ff := &fakeFetcher{st: Status{AccountID: "acct_1", ChargesEnabled: true, DetailsSubmitted: true}}
	m, err := NewMonitor(ff, 5*time.Minute, log)
	if err != nil {
		t.Fatal(err)
	}

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	if !m.Status().Stale {
		t.Fatal("expected a never refreshed status to be stale")
	}

	if err := m.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	st := m.Status()
	if st.Stale || !st.Connected() || st.AccountID != "acct_1" {
		t.Fatalf("unexpected status %+v", st)
	}

	now = now.Add(6 * time.Minute)
	if !m.Status().Stale {
		t.Fatal("expected the status to go stale past the window")
	}

	ff.err = errors.New("stripe unreachable")
	if err := m.Refresh(context.Background()); err == nil {
		t.Fatal("expected the fetch error")
	}
	if st := m.Status(); st.AccountID != "acct_1" {
		t.Fatalf("expected the previous value to be kept, got %+v", st)
	}
}

func TestNewMonitorStaleness(t *testing.T) {
	log, _ := test.NewNullLogger()

	for _, staleness := range []time.Duration{0, -time.Minute} {
		if _, err := NewMonitor(&fakeFetcher{}, staleness, log); err == nil {
			t.Errorf("expected staleness %s to be rejected", staleness)
		}
	}

	// The shortest window still gets a ticker.
	m, err := NewMonitor(&fakeFetcher{st: Status{AccountID: "acct_1"}}, time.Nanosecond, log)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	if st := m.Status(); st.AccountID != "acct_1" {
		t.Fatalf("expected the first refresh to land, got %+v", st)
	}
}

func TestStripeFetcher(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/v1/accounts/{id}", func(w http.ResponseWriter, r *http.Request) {
		acc := map[string]any{
			"id":                mux.Vars(r)["id"],
			"object":            "account",
			"charges_enabled":   true,
			"payouts_enabled":   false,
			"details_submitted": true,
		}
		web.Respond(context.Background(), w, acc, 200)
	}).Methods("GET")

	srv := httptest.NewServer(r)
	defer srv.Close()

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
	})
	api := &stripecl.API{}
	api.Init("sk_test_123", &stripe.Backends{API: backend, Connect: backend, Uploads: backend})

	st, err := NewStripeFetcher(api, "acct_42").Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if st.AccountID != "acct_42" || !st.ChargesEnabled || st.PayoutsEnabled || !st.DetailsSubmitted {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestHandleShow(t *testing.T) {
	log, _ := test.NewNullLogger()
	m, err := NewMonitor(&fakeFetcher{st: Status{AccountID: "acct_1", ChargesEnabled: true, DetailsSubmitted: true}}, time.Minute, log)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/payments/account", nil)
	if err := HandleShow(m)(context.Background(), w, r); err != nil {
		t.Fatal(err)
	}

	var res struct {
		AccountID string `json:"accountId"`
		Connected bool   `json:"connected"`
		Stale     bool   `json:"stale"`
	}
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.AccountID != "acct_1" || !res.Connected || res.Stale {
		t.Fatalf("unexpected body %+v", res)
	}
}
