package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/irsalhamdi/civic-events/core/product"
	"github.com/irsalhamdi/civic-events/core/registration"
	"github.com/irsalhamdi/civic-events/validate"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

var (
	ticket = product.Product{ID: validate.GenerateID(), Name: "Harvest Fair day pass", Kind: product.Ticket, Price: 1200}
	shirt  = product.Product{ID: validate.GenerateID(), Name: "Fair t-shirt", Kind: product.Merchandise, Price: 2000}
	stall  = product.Product{ID: validate.GenerateID(), Name: "Food stall, 3x3m", Kind: product.VendorSpot, Price: 15000}
	shift  = product.Product{ID: validate.GenerateID(), Name: "Saturday gate shift", Kind: product.VolunteerShift, Price: 0}
)

var (
	vendorForm = registration.Vendor{
		BusinessName: "Tacos Lupita",
		ContactName:  "Lupe Ortiz",
		Email:        "lupe@example.com",
		Phone:        "555-0100",
		Description:  "street tacos",
	}
	volunteerForm = registration.Volunteer{
		FullName:          "Sam Reyes",
		Email:             "sam@example.com",
		Skills:            "first aid",
		Experience:        "two seasons at the farmers market",
		AvailabilityNotes: "mornings only",
	}
)

func newStore(t *testing.T) (*Store, *MemoryPersister) {
	t.Helper()
	log, _ := test.NewNullLogger()
	mem := NewMemoryPersister()
	s, err := Open(context.Background(), "cart-1", mem, log)
	if err != nil {
		t.Fatal(err)
	}
	return s, mem
}

func mustAdd(t *testing.T, s *Store, p product.Product, qty int) LineItem {
	t.Helper()
	it, err := s.AddItem(context.Background(), p, qty)
	if err != nil {
		t.Fatalf("adding %s: %v", p.Name, err)
	}
	return it
}

type failingPersister struct {
	loadErr error
	saves   int
}

func (f *failingPersister) Load(context.Context, string) (State, error) {
	if f.loadErr != nil {
		return State{}, f.loadErr
	}
	return State{}, ErrNotFound
}

func (f *failingPersister) Save(context.Context, string, State) error {
	f.saves++
	return errors.New("redis: connection refused")
}

func (f *failingPersister) Delete(context.Context, string) error {
	return errors.New("redis: connection refused")
}

func newFailingStore(t *testing.T) (*Store, *test.Hook) {
	t.Helper()
	log, hook := test.NewNullLogger()
	s, err := Open(context.Background(), "cart-1", &failingPersister{}, log)
	if err != nil {
		t.Fatal(err)
	}
	return s, hook
}

func lastWarning(hook *test.Hook) *logrus.Entry {
	for i := len(hook.AllEntries()) - 1; i >= 0; i-- {
		if e := hook.AllEntries()[i]; e.Level == logrus.WarnLevel {
			return e
		}
	}
	return nil
}

func nullLogger() logrus.FieldLogger {
	log, _ := test.NewNullLogger()
	return log
}
