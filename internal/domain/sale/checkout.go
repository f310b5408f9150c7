package sale

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/bodega-pos/internal/domain/cart"
	"github.com/xenking/bodega-pos/internal/domain/product"
)

// MaxTotal bounds a sale total to what the NUMERIC(30, 5) sales columns hold.
var MaxTotal = decimal.New(1, 25)

// Request holds the checkout input collected at the terminal.
type Request struct {
	Customer      Customer
	SellerID      string
	Seller        string
	PaymentMethod PaymentMethod
	// AmountTendered is the cash handed over. Nil means exact payment.
	AmountTendered *decimal.Decimal
	Folio          string
}

// Result is a finalized sale plus the stock decrements to apply with it.
type Result struct {
	Sale       *Sale
	Decrements []StockDecrement
}

// Coordinator validates a cart against the payment rules and finalizes it.
// It performs no I/O and never mutates the cart.
type Coordinator struct {
	now   func() time.Time
	newID func() string
}

// NewCoordinator returns a Coordinator stamping sales with the wall clock and
// random UUIDs.
func NewCoordinator() *Coordinator {
	return &Coordinator{
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
}

// Checkout turns the cart into a Sale. On error nothing is produced and the
// cart is untouched; on success the cart is still not cleared, so a failed
// save can be retried.
func (co *Coordinator) Checkout(c *cart.Cart, req Request) (*Result, error) {
	if c.Len() == 0 {
		return nil, ErrEmptyCart
	}

	switch req.PaymentMethod {
	case PaymentCash, PaymentTransfer, PaymentCredit:
	default:
		return nil, &ValidationError{Field: "payment_method", Reason: "must be CASH, TRANSFER or CREDIT"}
	}

	if req.PaymentMethod == PaymentCredit && req.Customer.IsWalkIn() {
		return nil, &ValidationError{Field: "customer.name", Reason: "credit sales require a named customer"}
	}

	if t := req.AmountTendered; t != nil {
		if reason := product.PriceLimit.Check(*t); reason != "" {
			return nil, &ValidationError{Field: "amount_tendered", Reason: reason}
		}
		if t.IsNegative() {
			return nil, &ValidationError{Field: "amount_tendered", Reason: "must not be negative"}
		}
	}

	total := c.Total()
	if total.GreaterThanOrEqual(MaxTotal) {
		return nil, &ValidationError{Field: "total", Reason: "must be less than " + MaxTotal.String()}
	}

	tendered, change := total, decimal.Zero
	if req.PaymentMethod == PaymentCash && req.AmountTendered != nil {
		tendered = *req.AmountTendered
		change = decimal.Max(decimal.Zero, tendered.Sub(total))
	}

	status := StatusPaid
	if req.PaymentMethod == PaymentCredit {
		status = StatusPending
	}

	items := c.Lines()
	decrements := make([]StockDecrement, len(items))
	for i, l := range items {
		decrements[i] = StockDecrement{ProductID: l.ProductID, Quantity: l.Quantity}
	}

	s := &Sale{
		ID:             co.newID(),
		Customer:       req.Customer.withDefaults(),
		SellerID:       req.SellerID,
		Seller:         strings.TrimSpace(req.Seller),
		PaymentMethod:  req.PaymentMethod,
		Items:          items,
		Total:          total,
		AmountTendered: tendered,
		Change:         change,
		Folio:          strings.TrimSpace(req.Folio),
		Status:         status,
		CreatedAt:      co.now(),
	}

	return &Result{Sale: s, Decrements: decrements}, nil
}
