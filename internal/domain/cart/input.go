package cart

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xenking/bodega-pos/internal/domain/product"
)

// maxNumberLen bounds cashier-entered numbers before they are parsed.
const maxNumberLen = 32

// ParseQuantity parses a cashier-entered quantity. Fractions are accepted for
// weight and length units, up to the stored precision.
func ParseQuantity(s string) (decimal.Decimal, error) {
	q, err := parse("quantity", s, product.QuantityLimit)
	if err != nil {
		return decimal.Zero, err
	}
	if q.LessThan(one) {
		return decimal.Zero, &ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}
	return q, nil
}

// ParsePrice parses a cashier-entered unit price.
func ParsePrice(s string) (decimal.Decimal, error) {
	return ParseAmount("price", s)
}

// ParseAmount parses a non-negative money amount reported under field.
func ParseAmount(field, s string) (decimal.Decimal, error) {
	v, err := parse(field, s, product.PriceLimit)
	if err != nil {
		return decimal.Zero, err
	}
	if v.IsNegative() {
		return decimal.Zero, &ValidationError{Field: field, Reason: "must not be negative"}
	}
	return v, nil
}

// parse rejects overlong input and values that do not fit l before any
// comparison touches them.
func parse(field, s string, l product.Limit) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, &ValidationError{Field: field, Reason: "is required"}
	}
	if len(s) > maxNumberLen {
		return decimal.Zero, &ValidationError{Field: field, Reason: "is too long"}
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: field, Reason: "must be a number"}
	}
	if reason := l.Check(v); reason != "" {
		return decimal.Zero, &ValidationError{Field: field, Reason: reason}
	}
	return v, nil
}
