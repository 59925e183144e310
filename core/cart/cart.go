// Package cart implements the per-session cart and the registration gate in
// front of checkout: vendor spots and volunteer shifts need their application
// form filled before the cart may be handed to a payment provider.
package cart

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/irsalhamdi/civic-events/core/product"
	"github.com/irsalhamdi/civic-events/core/registration"
)

// Snapshot is the catalog data copied into the cart when an item is added, so
// later catalog edits do not change what the visitor sees or pays.
type Snapshot struct {
	Name     string       `json:"name"`
	Price    int          `json:"price"`
	Kind     product.Kind `json:"kind"`
	ImageURL string       `json:"imageUrl"`
}

func SnapshotOf(p product.Product) Snapshot {
	return Snapshot{
		Name:     p.Name,
		Price:    p.Price,
		Kind:     p.Kind,
		ImageURL: p.ImageURL,
	}
}

// LineItem is one product entry of the cart. A nil Registration means the form
// has not been supplied yet.
type LineItem struct {
	ID           string
	ProductID    string
	Quantity     int
	Product      Snapshot
	Registration registration.Payload
}

func (li LineItem) Subtotal() int {
	return li.Quantity * li.Product.Price
}

type lineItemJSON struct {
	ID           string          `json:"id"`
	ProductID    string          `json:"productId"`
	Quantity     int             `json:"quantity"`
	Product      Snapshot        `json:"product"`
	Registration json.RawMessage `json:"registrationData"`
}

func (li LineItem) MarshalJSON() ([]byte, error) {
	var raw json.RawMessage
	if li.Registration != nil {
		b, err := json.Marshal(li.Registration)
		if err != nil {
			return nil, fmt.Errorf("encoding registration of item[%s]: %w", li.ID, err)
		}
		raw = b
	}

	return json.Marshal(lineItemJSON{
		ID:           li.ID,
		ProductID:    li.ProductID,
		Quantity:     li.Quantity,
		Product:      li.Product,
		Registration: raw,
	})
}

// UnmarshalJSON decodes the registration according to the snapshot kind.
func (li *LineItem) UnmarshalJSON(b []byte) error {
	var v lineItemJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	reg, err := registration.Decode(v.Product.Kind, v.Registration)
	if err != nil {
		return fmt.Errorf("decoding item[%s]: %w", v.ID, err)
	}

	*li = LineItem{
		ID:           v.ID,
		ProductID:    v.ProductID,
		Quantity:     v.Quantity,
		Product:      v.Product,
		Registration: reg,
	}
	return nil
}

// State is the cart content. Item order is display order only.
type State struct {
	Items     []LineItem `json:"items"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (s State) ItemCount() int {
	var n int
	for _, it := range s.Items {
		n += it.Quantity
	}
	return n
}

func (s State) Total() int {
	var tot int
	for _, it := range s.Items {
		tot += it.Subtotal()
	}
	return tot
}

func (s State) Item(id string) (LineItem, bool) {
	if i := s.index(id); i >= 0 {
		return s.Items[i], true
	}
	return LineItem{}, false
}

func (s State) index(id string) int {
	for i := range s.Items {
		if s.Items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s State) indexOfProduct(productID string) int {
	for i := range s.Items {
		if s.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (s State) clone() State {
	items := make([]LineItem, len(s.Items))
	copy(items, s.Items)
	return State{Items: items, UpdatedAt: s.UpdatedAt}
}
