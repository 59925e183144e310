// Package account reads the status of the connected payment account, the one
// the admin pages show as a connection badge. Reads are served from the last
// refresh; Stale tells the caller the value is older than the staleness window.
package account

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
)

type Status struct {
	AccountID        string    `json:"accountId"`
	ChargesEnabled   bool      `json:"chargesEnabled"`
	PayoutsEnabled   bool      `json:"payoutsEnabled"`
	DetailsSubmitted bool      `json:"detailsSubmitted"`
	CheckedAt        time.Time `json:"checkedAt"`
	Stale            bool      `json:"stale"`
}

// Connected reports whether the account can take payments.
func (s Status) Connected() bool {
	return s.ChargesEnabled && s.DetailsSubmitted
}

type Fetcher interface {
	Fetch(ctx context.Context) (Status, error)
}

type StripeFetcher struct {
	api       *stripecl.API
	accountID string
}

func NewStripeFetcher(api *stripecl.API, accountID string) *StripeFetcher {
	return &StripeFetcher{api: api, accountID: accountID}
}

func (f *StripeFetcher) Fetch(ctx context.Context) (Status, error) {
	params := &stripe.AccountParams{}
	params.Context = ctx

	acc, err := f.api.Accounts.GetByID(f.accountID, params)
	if err != nil {
		return Status{}, fmt.Errorf("fetching stripe account[%s]: %w", f.accountID, err)
	}

	return Status{
		AccountID:        acc.ID,
		ChargesEnabled:   acc.ChargesEnabled,
		PayoutsEnabled:   acc.PayoutsEnabled,
		DetailsSubmitted: acc.DetailsSubmitted,
	}, nil
}

// Monitor keeps the last known account status and refreshes it periodically.
type Monitor struct {
	fetch     Fetcher
	staleness time.Duration
	log       logrus.FieldLogger
	now       func() time.Time

	mu  sync.RWMutex
	cur Status
}

// NewMonitor fails when staleness is not positive.
func NewMonitor(fetch Fetcher, staleness time.Duration, log logrus.FieldLogger) (*Monitor, error) {
	if staleness <= 0 {
		return nil, fmt.Errorf("account status staleness must be positive, got %s", staleness)
	}

	m := &Monitor{
		fetch:     fetch,
		staleness: staleness,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
	return m, nil
}

// Status never calls the provider.
func (m *Monitor) Status() Status {
	m.mu.RLock()
	st := m.cur
	m.mu.RUnlock()

	st.Stale = st.CheckedAt.IsZero() || m.now().Sub(st.CheckedAt) > m.staleness
	return st
}

// Refresh fetches the status once. On failure the previous value is kept.
func (m *Monitor) Refresh(ctx context.Context) error {
	st, err := m.fetch.Fetch(ctx)
	if err != nil {
		return err
	}
	st.CheckedAt = m.now()

	m.mu.Lock()
	m.cur = st
	m.mu.Unlock()
	return nil
}

// Run refreshes the status at half the staleness window until ctx is done, so
// a single failed refresh does not make the value stale.
func (m *Monitor) Run(ctx context.Context) {
	m.refresh(ctx)

	every := m.staleness / 2
	if every <= 0 {
		every = m.staleness
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.refresh(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (m *Monitor) refresh(ctx context.Context) {
	if err := m.Refresh(ctx); err != nil {
		m.log.WithError(err).Warn("refreshing payment account status failed")
		return
	}
	m.log.Debug("payment account status refreshed")
}
