package sale

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/bodega-pos/internal/domain/cart"
)

// Walk-in customer defaults printed on tickets when the cashier leaves the
// customer fields blank.
const (
	WalkInName     = "PÚBLICO EN GENERAL"
	WalkInAddress  = "DOMICILIO CONOCIDO"
	WalkInLocality = "TUXTLA GTZ, CHIAPAS"
)

// PaymentMethod enumerates how a sale is settled.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "CASH"
	PaymentTransfer PaymentMethod = "TRANSFER"
	// PaymentCredit records the sale as owed by a named customer.
	PaymentCredit PaymentMethod = "CREDIT"
)

// ParsePaymentMethod accepts the canonical names and the Spanish labels used
// by the store's terminals (EFECTIVO, TRANSFERENCIA, CREDITO).
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CASH", "EFECTIVO":
		return PaymentCash, true
	case "TRANSFER", "TRANSFERENCIA":
		return PaymentTransfer, true
	case "CREDIT", "CREDITO", "CRÉDITO":
		return PaymentCredit, true
	}
	return "", false
}

// Status is the collection state of a sale.
type Status string

const (
	StatusPaid Status = "PAID"
	// StatusPending is only valid for credit sales.
	StatusPending Status = "PENDING"
)

// Customer identifies who the sale is for. Only Name matters for validation.
type Customer struct {
	Name     string
	Address  string
	Locality string
	Phone    string
}

// IsWalkIn reports whether the customer is the anonymous walk-in default.
func (c Customer) IsWalkIn() bool {
	name := strings.TrimSpace(c.Name)
	return name == "" || strings.EqualFold(name, WalkInName)
}

// withDefaults fills blank fields with the walk-in values.
func (c Customer) withDefaults() Customer {
	c.Name = strings.TrimSpace(c.Name)
	c.Address = strings.TrimSpace(c.Address)
	c.Locality = strings.TrimSpace(c.Locality)
	c.Phone = strings.TrimSpace(c.Phone)
	if c.Name == "" {
		c.Name = WalkInName
	}
	if c.Address == "" {
		c.Address = WalkInAddress
	}
	if c.Locality == "" {
		c.Locality = WalkInLocality
	}
	return c
}

// Sale is the record produced by a checkout. Only Status and PaidAt change
// after creation, and only through the repository.
type Sale struct {
	ID             string
	Customer       Customer
	// SellerID references the seller account; Seller is the name printed on
	// the ticket at the time of sale.
	SellerID       string
	Seller         string
	PaymentMethod  PaymentMethod
	Items          []cart.Line
	Total          decimal.Decimal
	AmountTendered decimal.Decimal
	Change         decimal.Decimal
	// Folio is the optional ticket number typed by the cashier.
	Folio     string
	Status    Status
	CreatedAt time.Time
	PaidAt    *time.Time
}

// FolioLabel returns the ticket number to print: the manual folio when set,
// otherwise "F-" followed by the sale ID.
func (s *Sale) FolioLabel() string {
	if s.Folio != "" {
		return s.Folio
	}
	return "F-" + s.ID
}

// StockDecrement is the quantity to subtract from a product's stock.
type StockDecrement struct {
	ProductID string
	Quantity  decimal.Decimal
}

// Filter narrows sale listings. Zero fields are ignored.
type Filter struct {
	PaymentMethod PaymentMethod
	Since         time.Time
	Limit         int
}

// Repository persists sales.
type Repository interface {
	// Create stores the sale and applies the stock decrements atomically.
	Create(ctx context.Context, s *Sale, decrements []StockDecrement) error
	Get(ctx context.Context, id string) (*Sale, error)
	List(ctx context.Context, f Filter) ([]Sale, error)
	MarkPaid(ctx context.Context, id string, at time.Time) error
}
