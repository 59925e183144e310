package cart

import "github.com/irsalhamdi/civic-events/core/product"

// Status is the registration status of a line item.
type Status string

const (
	StatusNone     Status = "none"
	StatusPending  Status = "pending"
	StatusComplete Status = "complete"
)

// RegistrationOrder is the order in which pending registrations are handled:
// vendor applications come before volunteer applications.
var RegistrationOrder = []product.Kind{product.VendorSpot, product.VolunteerShift}

func statusOf(it LineItem) Status {
	if !it.Product.Kind.Registrable() {
		return StatusNone
	}
	if it.Registration == nil {
		return StatusPending
	}
	return StatusComplete
}

// StatusFor reports StatusNone for unknown ids and for kinds that never
// need a registration.
func (s State) StatusFor(id string) Status {
	it, ok := s.Item(id)
	if !ok {
		return StatusNone
	}
	return statusOf(it)
}

// Statuses maps every registrable item id to its status.
func (s State) Statuses() map[string]Status {
	m := make(map[string]Status)
	for _, it := range s.Items {
		if st := statusOf(it); st != StatusNone {
			m[it.ID] = st
		}
	}
	return m
}

// PendingOfKind lists, in cart order, the items of kind still waiting for a
// registration, leaving out the item excluding (if not empty).
func (s State) PendingOfKind(kind product.Kind, excluding string) []LineItem {
	var pending []LineItem
	for _, it := range s.Items {
		if it.ID == excluding || it.Product.Kind != kind {
			continue
		}
		if statusOf(it) == StatusPending {
			pending = append(pending, it)
		}
	}
	return pending
}

func (s State) AnyPending(excluding string) bool {
	for _, it := range s.Items {
		if it.ID != excluding && statusOf(it) == StatusPending {
			return true
		}
	}
	return false
}
