package sale

import (
	"github.com/go-faster/errors"

	"github.com/xenking/bodega-pos/internal/domain/cart"
)

var (
	// ErrEmptyCart is returned when checkout is attempted with no lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrSaleNotFound is returned when a sale ID does not exist.
	ErrSaleNotFound = errors.New("sale not found")
	// ErrNotCredit is returned when marking a non-credit sale as paid.
	ErrNotCredit = errors.New("sale is not a credit sale")
	// ErrAlreadyPaid is returned when a credit sale was already collected.
	ErrAlreadyPaid = errors.New("sale is already paid")
)

// ValidationError is the cart validation error; checkout rule violations use
// the same type so callers handle bad input in one place.
type ValidationError = cart.ValidationError
