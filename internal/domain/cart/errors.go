package cart

import (
	"fmt"

	"github.com/xenking/bodega-pos/internal/domain/product"
)

// ValidationError reports rejected user input: a quantity below one, a negative
// or malformed price, or a checkout request that breaks a payment rule.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ProductNotFoundError indicates the catalog has no product with the given ID.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// Unwrap lets callers match product.ErrNotFound.
func (e *ProductNotFoundError) Unwrap() error {
	return product.ErrNotFound
}

// LineNotFoundError indicates the cart has no line for the given product.
type LineNotFoundError struct {
	ProductID string
}

func (e *LineNotFoundError) Error() string {
	return fmt.Sprintf("product %s is not in the cart", e.ProductID)
}
