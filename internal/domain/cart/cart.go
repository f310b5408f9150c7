// Package cart implements the point-of-sale cart: line items priced by
// retail/wholesale tier, manual price overrides and a total that is derived
// from the lines on every read.
//
// A Cart is not safe for concurrent use. One cashier session owns a cart at a
// time; see Registry for sharing carts between HTTP requests.
package cart

import (
	"context"
	"slices"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/bodega-pos/internal/domain/product"
)

var one = decimal.NewFromInt(1)

// Line is a single product in the cart. It keeps a snapshot of the product's
// price tiers taken the last time the line was added or refreshed.
type Line struct {
	ProductID string
	Name      string
	Unit      string
	Cost      decimal.Decimal

	PriceRetail     decimal.Decimal
	PriceWholesale  decimal.Decimal
	WholesaleMinQty decimal.Decimal

	Quantity decimal.Decimal
	// Price is the effective unit price.
	Price decimal.Decimal
	// Wholesale is set when Quantity reached the wholesale threshold on the
	// last tier selection. A manual price does not change it.
	Wholesale bool
	// ManualPrice is set while Price holds a cashier override.
	ManualPrice bool
}

// Subtotal returns Quantity × Price.
func (l Line) Subtotal() decimal.Decimal {
	return l.Quantity.Mul(l.Price)
}

func (l *Line) snapshot(p product.Product) {
	l.ProductID = p.ID
	l.Name = p.Name
	l.Unit = p.Unit
	l.Cost = p.Cost
	l.PriceRetail = p.PriceRetail
	l.PriceWholesale = p.PriceWholesale
	l.WholesaleMinQty = p.WholesaleMinQty
}

// retier applies the tier rule for the current quantity and drops any manual
// override.
func (l *Line) retier() {
	tiers := l.tiers()
	l.Wholesale = tiers.IsWholesale(l.Quantity)
	l.Price = tiers.PriceFor(l.Quantity)
	l.ManualPrice = false
}

// tiers returns the price tier snapshot as a product.
func (l Line) tiers() product.Product {
	return product.Product{
		ID:              l.ProductID,
		PriceRetail:     l.PriceRetail,
		PriceWholesale:  l.PriceWholesale,
		WholesaleMinQty: l.WholesaleMinQty,
	}
}

// Catalog resolves a product identifier to its current snapshot.
// product.Repository satisfies it.
type Catalog interface {
	GetByID(ctx context.Context, id string) (*product.Product, error)
}

// Cart is an ordered collection of lines. The zero value is an empty cart.
type Cart struct {
	lines []Line
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

func (c *Cart) index(productID string) int {
	return slices.IndexFunc(c.lines, func(l Line) bool { return l.ProductID == productID })
}

// Add puts one unit of p in the cart. An existing line is refreshed from the
// snapshot, incremented by one and re-tiered; otherwise a new line with
// quantity one is appended.
func (c *Cart) Add(p product.Product) Line {
	if i := c.index(p.ID); i >= 0 {
		l := &c.lines[i]
		l.snapshot(p)
		l.Quantity = l.Quantity.Add(one)
		l.retier()
		return *l
	}

	l := Line{Quantity: one}
	l.snapshot(p)
	l.retier()
	c.lines = append(c.lines, l)
	return l
}

// AddByID looks the product up in catalog and adds it.
func (c *Cart) AddByID(ctx context.Context, catalog Catalog, productID string) (Line, error) {
	p, err := catalog.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return Line{}, &ProductNotFoundError{ProductID: productID}
		}
		return Line{}, errors.Wrapf(err, "get product %s", productID)
	}
	return c.Add(*p), nil
}

// SetQuantity replaces the line quantity and re-derives its price from the
// tier rule, discarding a manual override. Quantities below one or beyond the
// stored precision are rejected; use Remove to drop a line.
func (c *Cart) SetQuantity(productID string, qty decimal.Decimal) (Line, error) {
	if reason := product.QuantityLimit.Check(qty); reason != "" {
		return Line{}, &ValidationError{Field: "quantity", Reason: reason}
	}
	if qty.LessThan(one) {
		return Line{}, &ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}
	i := c.index(productID)
	if i < 0 {
		return Line{}, &LineNotFoundError{ProductID: productID}
	}

	l := &c.lines[i]
	l.Quantity = qty
	l.retier()
	return *l, nil
}

// SetManualPrice overrides the effective unit price. Quantity and the
// wholesale flag are left untouched; the override lasts until the next
// quantity change.
func (c *Cart) SetManualPrice(productID string, price decimal.Decimal) (Line, error) {
	if reason := product.PriceLimit.Check(price); reason != "" {
		return Line{}, &ValidationError{Field: "price", Reason: reason}
	}
	if price.IsNegative() {
		return Line{}, &ValidationError{Field: "price", Reason: "must not be negative"}
	}
	i := c.index(productID)
	if i < 0 {
		return Line{}, &LineNotFoundError{ProductID: productID}
	}

	l := &c.lines[i]
	l.Price = price
	l.ManualPrice = true
	return *l, nil
}

// Remove deletes the line for productID if present.
func (c *Cart) Remove(productID string) {
	c.lines = slices.DeleteFunc(c.lines, func(l Line) bool { return l.ProductID == productID })
}

// Line returns a copy of the line for productID.
func (c *Cart) Line(productID string) (Line, bool) {
	if i := c.index(productID); i >= 0 {
		return c.lines[i], true
	}
	return Line{}, false
}

// Lines returns a copy of the lines in the order they were added.
func (c *Cart) Lines() []Line {
	return slices.Clone(c.lines)
}

// Len returns the number of lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

// Total sums Quantity × Price over all lines at full precision. It is computed
// on every call; round only when presenting.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}
