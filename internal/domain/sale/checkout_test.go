package sale

import (
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/bodega-pos/internal/domain/cart"
	"github.com/xenking/bodega-pos/internal/domain/product"
)

// --- Helpers ---

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func ptr(v decimal.Decimal) *decimal.Decimal {
	return &v
}

func newTestCoordinator() *Coordinator {
	return &Coordinator{
		now:   func() time.Time { return fixedNow },
		newID: func() string { return "sale-1" },
	}
}

func cement() product.Product {
	return product.Product{
		ID:              "1",
		Name:            "Cemento 50kg",
		Unit:            "pza",
		Cost:            d("190"),
		PriceRetail:     d("230"),
		PriceWholesale:  d("215"),
		WholesaleMinQty: d("10"),
	}
}

func nails() product.Product {
	return product.Product{
		ID:              "7",
		Name:            "Clavo 2in",
		Unit:            "kg",
		Cost:            d("30"),
		PriceRetail:     d("45.50"),
		PriceWholesale:  d("40"),
		WholesaleMinQty: d("5"),
	}
}

func cartWith(products ...product.Product) *cart.Cart {
	c := cart.New()
	for _, p := range products {
		c.Add(p)
	}
	return c
}

// --- Tests ---

func TestCheckout_EmptyCart(t *testing.T) {
	res, err := newTestCoordinator().Checkout(cart.New(), Request{PaymentMethod: PaymentCash})

	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Nil(t, res)
}

func TestCheckout_CreditRequiresNamedCustomer(t *testing.T) {
	for _, name := range []string{"", "  ", WalkInName, "público en general"} {
		t.Run(name, func(t *testing.T) {
			c := cartWith(cement())

			res, err := newTestCoordinator().Checkout(c, Request{
				Customer:      Customer{Name: name},
				PaymentMethod: PaymentCredit,
			})

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, "customer.name", vErr.Field)
			assert.Nil(t, res)
			assert.Equal(t, 1, c.Len(), "cart must be untouched")
		})
	}
}

func TestCheckout_UnknownPaymentMethod(t *testing.T) {
	_, err := newTestCoordinator().Checkout(cartWith(cement()), Request{PaymentMethod: "BARTER"})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "payment_method", vErr.Field)
}

func TestCheckout_InvalidTendered(t *testing.T) {
	tests := []struct {
		tendered string
		reason   string
	}{
		{tendered: "-5", reason: "must not be negative"},
		{tendered: "300.001", reason: "must have at most 2 decimal places"},
		{tendered: "1e2000000000", reason: "is out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.tendered, func(t *testing.T) {
			c := cartWith(cement())
			_, err := newTestCoordinator().Checkout(c, Request{
				PaymentMethod:  PaymentCash,
				AmountTendered: ptr(d(tt.tendered)),
			})

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, "amount_tendered", vErr.Field)
			assert.Equal(t, tt.reason, vErr.Reason)
			assert.Equal(t, 1, c.Len())
		})
	}
}

func TestCheckout_TotalOverflow(t *testing.T) {
	p := cement()
	p.PriceRetail = d("9999999999.99")
	p.WholesaleMinQty = d("99999999999.999")
	c := cartWith(p)
	_, err := c.SetQuantity(p.ID, d("99999999999"))
	require.NoError(t, err)

	res, err := newTestCoordinator().Checkout(c, Request{PaymentMethod: PaymentCash})
	require.NoError(t, err, "a single maximal line fits")
	assert.True(t, res.Sale.Total.LessThan(MaxTotal))

	huge := cart.New()
	for i := range 10001 {
		q := p
		q.ID = "p" + strconv.Itoa(i)
		huge.Add(q)
		_, err := huge.SetQuantity(q.ID, d("99999999999"))
		require.NoError(t, err)
	}
	_, err = newTestCoordinator().Checkout(huge, Request{PaymentMethod: PaymentCash})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "total", vErr.Field)
}

func TestCheckout_CashChange(t *testing.T) {
	tests := []struct {
		name         string
		tendered     *decimal.Decimal
		wantTendered decimal.Decimal
		wantChange   decimal.Decimal
	}{
		{name: "overpaid", tendered: ptr(d("300.00")), wantTendered: d("300"), wantChange: d("70.00")},
		{name: "exact", tendered: ptr(d("230")), wantTendered: d("230"), wantChange: decimal.Zero},
		{name: "omitted defaults to total", tendered: nil, wantTendered: d("230"), wantChange: decimal.Zero},
		{name: "underpaid floors change at zero", tendered: ptr(d("200")), wantTendered: d("200"), wantChange: decimal.Zero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newTestCoordinator().Checkout(cartWith(cement()), Request{
				PaymentMethod:  PaymentCash,
				AmountTendered: tt.tendered,
			})
			require.NoError(t, err)

			s := res.Sale
			assert.True(t, d("230").Equal(s.Total))
			assert.True(t, tt.wantTendered.Equal(s.AmountTendered), "tendered %s", s.AmountTendered)
			assert.True(t, tt.wantChange.Equal(s.Change), "change %s", s.Change)
			assert.Equal(t, StatusPaid, s.Status)
		})
	}
}

func TestCheckout_NonCashIgnoresTendered(t *testing.T) {
	res, err := newTestCoordinator().Checkout(cartWith(cement()), Request{
		PaymentMethod:  PaymentTransfer,
		AmountTendered: ptr(d("1000")),
	})
	require.NoError(t, err)

	assert.True(t, d("230").Equal(res.Sale.AmountTendered))
	assert.True(t, res.Sale.Change.IsZero())
	assert.Equal(t, StatusPaid, res.Sale.Status)
}

func TestCheckout_CreditSaleIsPending(t *testing.T) {
	res, err := newTestCoordinator().Checkout(cartWith(cement()), Request{
		Customer:      Customer{Name: "Ferretería Santis", Phone: " 961 000 0000 "},
		Seller:        "JOSUE SANTIS",
		PaymentMethod: PaymentCredit,
	})
	require.NoError(t, err)

	s := res.Sale
	assert.Equal(t, StatusPending, s.Status)
	assert.Equal(t, "Ferretería Santis", s.Customer.Name)
	assert.Equal(t, WalkInAddress, s.Customer.Address)
	assert.Equal(t, WalkInLocality, s.Customer.Locality)
	assert.Equal(t, "961 000 0000", s.Customer.Phone)
	assert.Nil(t, s.PaidAt)
}

func TestCheckout_BuildsSnapshotAndDecrements(t *testing.T) {
	c := cartWith(cement(), nails())
	_, err := c.SetQuantity("1", d("10"))
	require.NoError(t, err)
	_, err = c.SetQuantity("7", d("2.5"))
	require.NoError(t, err)

	res, err := newTestCoordinator().Checkout(c, Request{
		Seller:        "MARIA PEREZ",
		PaymentMethod: PaymentCash,
		Folio:         " A-77 ",
	})
	require.NoError(t, err)

	s := res.Sale
	assert.Equal(t, "sale-1", s.ID)
	assert.Equal(t, fixedNow, s.CreatedAt)
	assert.Equal(t, "MARIA PEREZ", s.Seller)
	assert.Equal(t, WalkInName, s.Customer.Name)
	assert.Equal(t, "A-77", s.Folio)
	// 10 × 215 + 2.5 × 45.50
	assert.True(t, d("2263.75").Equal(s.Total), "total %s", s.Total)

	require.Len(t, s.Items, 2)
	assert.True(t, s.Items[0].Wholesale)
	assert.True(t, d("215").Equal(s.Items[0].Price))

	require.Len(t, res.Decrements, 2)
	assert.Equal(t, "1", res.Decrements[0].ProductID)
	assert.True(t, d("10").Equal(res.Decrements[0].Quantity))
	assert.Equal(t, "7", res.Decrements[1].ProductID)
	assert.True(t, d("2.5").Equal(res.Decrements[1].Quantity))

	// The cart is not cleared and later edits do not leak into the sale.
	assert.Equal(t, 2, c.Len())
	_, err = c.SetManualPrice("1", d("1"))
	require.NoError(t, err)
	assert.True(t, d("215").Equal(s.Items[0].Price))
}

func TestSale_FolioLabel(t *testing.T) {
	assert.Equal(t, "F-abc", (&Sale{ID: "abc"}).FolioLabel())
	assert.Equal(t, "T-9", (&Sale{ID: "abc", Folio: "T-9"}).FolioLabel())
}

func TestParsePaymentMethod(t *testing.T) {
	tests := []struct {
		in   string
		want PaymentMethod
		ok   bool
	}{
		{in: "CASH", want: PaymentCash, ok: true},
		{in: "efectivo", want: PaymentCash, ok: true},
		{in: "TRANSFERENCIA", want: PaymentTransfer, ok: true},
		{in: " credit ", want: PaymentCredit, ok: true},
		{in: "CREDITO", want: PaymentCredit, ok: true},
		{in: "card", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParsePaymentMethod(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
