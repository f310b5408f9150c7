package product

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Limit is the precision a stored quantity or price may carry: at most Places
// fractional digits and an absolute value below Max.
type Limit struct {
	Places int32
	Max    decimal.Decimal
}

var (
	// QuantityLimit matches the NUMERIC(14, 3) stock and quantity columns.
	QuantityLimit = Limit{Places: 3, Max: decimal.New(1, 11)}
	// PriceLimit matches the NUMERIC(12, 2) price columns.
	PriceLimit = Limit{Places: 2, Max: decimal.New(1, 10)}
)

// Exponents outside this range are rejected before any arithmetic, which
// would otherwise expand them to the full power of ten.
const (
	minExponent = -32
	maxExponent = 11
)

// Check returns why v does not fit l, or "" when it does.
func (l Limit) Check(v decimal.Decimal) string {
	if exp := v.Exponent(); exp < minExponent || exp > maxExponent {
		return "is out of range"
	}
	if !v.Equal(v.Truncate(l.Places)) {
		return fmt.Sprintf("must have at most %d decimal places", l.Places)
	}
	if v.Abs().GreaterThanOrEqual(l.Max) {
		return "must be less than " + l.Max.String()
	}
	return ""
}

// Product is a point-in-time snapshot of a catalog item with its price tiers
// and on-hand stock.
type Product struct {
	ID   string
	Name string
	// Unit is the unit of measure ("pza", "kg", "m"). Stock and quantities
	// may be fractional for weight and length units.
	Unit  string
	Stock decimal.Decimal
	Cost  decimal.Decimal

	PriceRetail    decimal.Decimal
	PriceWholesale decimal.Decimal
	// WholesaleMinQty is the quantity at or above which PriceWholesale applies.
	WholesaleMinQty decimal.Decimal
}

// IsWholesale reports whether qty reaches the wholesale threshold.
func (p Product) IsWholesale(qty decimal.Decimal) bool {
	return qty.GreaterThanOrEqual(p.WholesaleMinQty)
}

// PriceFor returns the tier unit price for qty.
func (p Product) PriceFor(qty decimal.Decimal) decimal.Decimal {
	if p.IsWholesale(qty) {
		return p.PriceWholesale
	}
	return p.PriceRetail
}

// Validate checks the catalog invariants and reports every violation at once.
// Cost above price is allowed.
func (p Product) Validate() error {
	var err error
	if p.ID == "" {
		err = multierr.Append(err, errors.New("id is required"))
	}
	check := func(field string, v decimal.Decimal, l Limit) {
		if reason := l.Check(v); reason != "" {
			err = multierr.Append(err, fmt.Errorf("%s %s", field, reason))
			return
		}
		if v.IsNegative() {
			err = multierr.Append(err, fmt.Errorf("%s must not be negative, got %s", field, v))
		}
	}
	check("stock", p.Stock, QuantityLimit)
	check("cost", p.Cost, PriceLimit)
	check("price_retail", p.PriceRetail, PriceLimit)
	check("price_wholesale", p.PriceWholesale, PriceLimit)
	check("wholesale_min_qty", p.WholesaleMinQty, QuantityLimit)
	return err
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
}
