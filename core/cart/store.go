package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/irsalhamdi/civic-events/core/product"
	"github.com/irsalhamdi/civic-events/core/registration"
	"github.com/irsalhamdi/civic-events/validate"
	"github.com/sirupsen/logrus"
)

// Persister is the durable side-store a cart is mirrored to, keyed by the
// session cart key. Load returns ErrNotFound when nothing was saved yet.
type Persister interface {
	Load(ctx context.Context, key string) (State, error)
	Save(ctx context.Context, key string, st State) error
	Delete(ctx context.Context, key string) error
}

// Store is the cart of one session. It has a single mutator and is not safe
// for concurrent use.
//
// Every mutation is written through to the Persister. A failed write is
// logged and otherwise ignored: the in-memory state stays authoritative.
type Store struct {
	key     string
	state   State
	persist Persister
	log     logrus.FieldLogger
	now     func() time.Time
}

func New(key string, persist Persister, log logrus.FieldLogger) *Store {
	return &Store{
		key:     key,
		persist: persist,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Open loads the cart saved under key, or starts an empty one.
func Open(ctx context.Context, key string, persist Persister, log logrus.FieldLogger) (*Store, error) {
	s := New(key, persist, log)

	st, err := persist.Load(ctx, key)
	switch {
	case err == nil:
		s.state = st
	case errors.Is(err, ErrNotFound):
	default:
		return nil, fmt.Errorf("loading cart[%s]: %w", key, err)
	}
	return s, nil
}

func (s *Store) Key() string { return s.key }

// State returns a copy of the current content.
func (s *Store) State() State {
	return s.state.clone()
}

// AddItem adds quantity units of p. A product already in the cart has its
// quantity increased instead of getting a second line.
func (s *Store) AddItem(ctx context.Context, p product.Product, quantity int) (LineItem, error) {
	if quantity <= 0 {
		return LineItem{}, &ValidationError{Field: "quantity", Reason: "must be a positive integer"}
	}
	if p.ID == "" {
		return LineItem{}, &ValidationError{Field: "productId", Reason: "is required"}
	}
	if !p.Kind.Valid() {
		return LineItem{}, &ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown product kind %q", p.Kind)}
	}

	if i := s.state.indexOfProduct(p.ID); i >= 0 {
		s.state.Items[i].Quantity += quantity
		s.changed(ctx, "item quantity increased")
		return s.state.Items[i], nil
	}

	it := LineItem{
		ID:        validate.GenerateID(),
		ProductID: p.ID,
		Quantity:  quantity,
		Product:   SnapshotOf(p),
	}
	s.state.Items = append(s.state.Items, it)
	s.changed(ctx, "item added")

	return it, nil
}

// UpdateItem replaces the quantity of item id. Unknown ids are ignored.
func (s *Store) UpdateItem(ctx context.Context, id string, quantity int) error {
	if quantity <= 0 {
		return &ValidationError{Field: "quantity", Reason: "must be a positive integer"}
	}

	i := s.state.index(id)
	if i < 0 {
		return nil
	}

	s.state.Items[i].Quantity = quantity
	s.changed(ctx, "item quantity updated")
	return nil
}

// RemoveItem deletes item id. Unknown ids are ignored.
func (s *Store) RemoveItem(ctx context.Context, id string) {
	i := s.state.index(id)
	if i < 0 {
		return
	}

	s.state.Items = append(s.state.Items[:i:i], s.state.Items[i+1:]...)
	s.changed(ctx, "item removed")
}

// Clear empties the cart and erases its durable copy.
func (s *Store) Clear(ctx context.Context) {
	s.state = State{UpdatedAt: s.now()}

	if err := s.persist.Delete(ctx, s.key); err != nil {
		s.log.WithError(err).Warn("erasing stored cart failed, continuing with the in-memory cart")
		return
	}
	s.log.Debug("cart cleared")
}

// SetRegistration records the form of a vendor spot or volunteer shift. A nil
// payload re-opens the item for editing. Unknown ids are ignored.
func (s *Store) SetRegistration(ctx context.Context, id string, p registration.Payload) error {
	i := s.state.index(id)
	if i < 0 {
		return nil
	}

	it := &s.state.Items[i]
	if !it.Product.Kind.Registrable() {
		return &ValidationError{Field: "registrationData", Reason: fmt.Sprintf("%s items take no registration", it.Product.Kind)}
	}

	if p != nil {
		if err := registration.Check(it.Product.Kind, p); err != nil {
			field := "registrationData"
			var fe *validate.FieldError
			if errors.As(err, &fe) {
				field += "." + fe.Field
			}
			return &ValidationError{Field: field, Reason: err.Error()}
		}
	}

	it.Registration = p
	s.changed(ctx, "registration updated")
	return nil
}

// NextAction runs the navigation decision on the current content.
func (s *Store) NextAction(excluding string) Action {
	return NextAction(s.state, excluding)
}

func (s *Store) changed(ctx context.Context, what string) {
	s.state.UpdatedAt = s.now()

	log := s.log.WithFields(logrus.Fields{
		"items": s.state.ItemCount(),
		"total": s.state.Total(),
	})

	if err := s.persist.Save(ctx, s.key, s.state); err != nil {
		log.WithError(err).Warn("persisting cart failed, continuing with the in-memory cart")
		return
	}
	log.Debug(what)
}
