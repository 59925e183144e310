package product

import (
	"time"
)

// Kind is the closed set of things the catalog sells.
type Kind string

const (
	Ticket         Kind = "ticket"
	Merchandise    Kind = "merchandise"
	VendorSpot     Kind = "vendor_spot"
	VolunteerShift Kind = "volunteer_shift"
)

func (k Kind) Valid() bool {
	switch k {
	case Ticket, Merchandise, VendorSpot, VolunteerShift:
		return true
	}
	return false
}

// Registrable reports whether items of this kind need a registration form
// filled before checkout.
func (k Kind) Registrable() bool {
	return k == VendorSpot || k == VolunteerShift
}

// Product is a catalog entry. Price is in cents.
type Product struct {
	ID          string    `json:"id" db:"product_id"`
	EventID     *string   `json:"eventId,omitempty" db:"event_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Kind        Kind      `json:"kind" db:"kind"`
	Price       int       `json:"price" db:"price"`
	ImageURL    string    `json:"imageUrl" db:"image_url"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
	Version     int       `json:"-" db:"version"`
}

type ProductNew struct {
	EventID     *string `json:"eventId" validate:"omitempty,uuid"`
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description" validate:"required"`
	Kind        Kind    `json:"kind" validate:"required,oneof=ticket merchandise vendor_spot volunteer_shift"`
	Price       int     `json:"price" validate:"gte=0,lte=10000000"`
	ImageURL    string  `json:"imageUrl" validate:"required"`
}

type ProductUp struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Price       *int    `json:"price" validate:"omitempty,gte=0,lte=10000000"`
	ImageURL    *string `json:"imageUrl"`
}
