// Package registration holds the supplementary forms some products need before
// they can be paid for. A Payload is a closed union: Vendor for vendor spots,
// Volunteer for volunteer shifts.
package registration

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/irsalhamdi/civic-events/core/product"
	"github.com/irsalhamdi/civic-events/validate"
)

var ErrKindMismatch = errors.New("registration does not match the product kind")

type Payload interface {
	Kind() product.Kind
	payload()
}

// Vendor is the application a stall holder submits for a vendor spot.
type Vendor struct {
	BusinessName string `json:"businessName" validate:"required"`
	ContactName  string `json:"contactName" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone" validate:"required"`
	Description  string `json:"description" validate:"required,max=2000"`
	NeedsPower   bool   `json:"needsPower"`
}

func (Vendor) Kind() product.Kind { return product.VendorSpot }
func (Vendor) payload()           {}

// Volunteer is the application for a volunteer shift.
type Volunteer struct {
	FullName          string `json:"fullName" validate:"required"`
	Email             string `json:"email" validate:"required,email"`
	Phone             string `json:"phone"`
	Skills            string `json:"skills" validate:"max=1000"`
	Experience        string `json:"experience" validate:"max=2000"`
	AvailabilityNotes string `json:"availabilityNotes" validate:"max=1000"`
}

func (Volunteer) Kind() product.Kind { return product.VolunteerShift }
func (Volunteer) payload()           {}

// Decode reads the payload of the given kind. An empty or null document decodes
// to a nil Payload, which means "not supplied".
func Decode(kind product.Kind, raw []byte) (Payload, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	switch kind {
	case product.VendorSpot:
		var v Vendor
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decoding vendor registration: %w", err)
		}
		return v, nil

	case product.VolunteerShift:
		var v Volunteer
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decoding volunteer registration: %w", err)
		}
		return v, nil
	}

	return nil, fmt.Errorf("%w: %s takes no registration", ErrKindMismatch, kind)
}

// Check validates p as the registration of an item of the given kind.
func Check(kind product.Kind, p Payload) error {
	if p.Kind() != kind {
		return fmt.Errorf("%w: got %s for %s", ErrKindMismatch, p.Kind(), kind)
	}
	return validate.Check(p)
}
