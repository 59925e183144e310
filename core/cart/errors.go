package cart

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("cart not found")
	ErrCheckoutInFlight = errors.New("a checkout for this cart is already in progress")
)

// ValidationError rejects a malformed mutation or order; the cart is left unchanged.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// RegistrationRequiredError is returned when checkout is attempted while a
// registrable item still lacks its form. Next is where the visitor must go.
type RegistrationRequiredError struct {
	Next Action
}

func (e *RegistrationRequiredError) Error() string {
	return fmt.Sprintf("item[%s] needs a %s registration before checkout", e.Next.ItemID, e.Next.Kind)
}

// PaymentError wraps a failed or malformed answer of the payment provider. The
// cart is never cleared on this path and the caller may retry.
type PaymentError struct {
	Err error
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("payment provider: %v", e.Err)
}

func (e *PaymentError) Unwrap() error { return e.Err }
