package services

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is returned on a bad email/password pair. Login
	// never reveals which half was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailTaken is returned when registering with an existing email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrEmptyCart is returned when checking out with nothing in the cart.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrNotFound is returned when a referenced record does not exist or is
	// not visible to the caller.
	ErrNotFound = errors.New("record not found")

	// ErrNotMpesaOrder is returned when running M-Pesa operations against a
	// cash-on-delivery order.
	ErrNotMpesaOrder = errors.New("order is not an mpesa order")
)

// InsufficientStockError reports the line that sank a checkout. The whole
// transaction rolls back, so no partial order exists.
type InsufficientStockError struct {
	ProductID uint
	Name      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d",
		e.Name, e.Requested, e.Available)
}
