package cart

import "github.com/irsalhamdi/civic-events/core/product"

type ActionKind string

const (
	ActionRegister ActionKind = "register"
	ActionCheckout ActionKind = "checkout"
)

// Action is where the visitor goes next: a registration form for one item, or
// the payment page.
type Action struct {
	Action ActionKind   `json:"action"`
	ItemID string       `json:"itemId,omitempty"`
	Kind   product.Kind `json:"kind,omitempty"`
}

// NextAction picks the first pending item of the highest priority kind, or
// checkout when nothing is pending. An empty cart is trivially ready; callers
// check ItemCount before offering checkout.
//
// The item excluding is skipped, which lets a form that just submitted its
// data ask for the following step.
func NextAction(s State, excluding string) Action {
	for _, kind := range RegistrationOrder {
		if pending := s.PendingOfKind(kind, excluding); len(pending) > 0 {
			return Action{Action: ActionRegister, ItemID: pending[0].ID, Kind: kind}
		}
	}
	return Action{Action: ActionCheckout}
}
