package order

import (
	"time"

	"github.com/irsalhamdi/civic-events/core/product"
	"github.com/jmoiron/sqlx/types"
)

type Status string

const (
	Pending Status = "pending"
	Success Status = "success"
	Expired Status = "expired"
)

type Provider string

const (
	ProviderStripe Provider = "stripe"
	ProviderPaypal Provider = "paypal"
)

// Order is recorded once the provider acknowledged a checkout session.
// Total is in cents, computed from the prices snapshotted in the cart.
type Order struct {
	ID         string    `json:"id" db:"order_id"`
	CartKey    string    `json:"cartKey" db:"cart_key"`
	RequestID  string    `json:"requestId" db:"request_id"`
	Provider   Provider  `json:"provider" db:"provider"`
	ProviderID string    `json:"providerId" db:"provider_id"`
	Status     Status    `json:"status" db:"status"`
	Total      int       `json:"total" db:"total"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}

type StatusUp struct {
	ID        string    `db:"order_id"`
	Status    Status    `db:"status"`
	UpdatedAt time.Time `db:"updated_at"`
}

type Item struct {
	OrderID      string         `json:"orderId" db:"order_id"`
	ProductID    string         `json:"productId" db:"product_id"`
	Kind         product.Kind   `json:"kind" db:"kind"`
	Quantity     int            `json:"quantity" db:"quantity"`
	Price        int            `json:"price" db:"price"`
	Registration types.JSONText `json:"registrationData" db:"registration"`
	CreatedAt    time.Time      `json:"createdAt" db:"created_at"`
}

// Detail is the admin view of an order.
type Detail struct {
	Order
	Items []Item `json:"items"`
}
