// Package handler exposes the POS over a JSON HTTP API.
package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/bodega-pos/internal/domain/cart"
	"github.com/xenking/bodega-pos/internal/domain/product"
	"github.com/xenking/bodega-pos/internal/domain/report"
	"github.com/xenking/bodega-pos/internal/domain/sale"
)

// Config holds non-dependency settings for the Handler.
type Config struct {
	// LowStockThreshold flags products in the inventory report. Zero uses
	// report.DefaultLowStock.
	LowStockThreshold int
}

// Handler serves catalog, terminal cart, sales and report endpoints.
type Handler struct {
	products  product.Repository
	terminals *cart.Registry
	sales     *sale.Service
	lowStock  decimal.Decimal
	now       func() time.Time
}

// New constructs a Handler.
func New(cfg Config, products product.Repository, terminals *cart.Registry, sales *sale.Service) *Handler {
	threshold := cfg.LowStockThreshold
	if threshold <= 0 {
		threshold = report.DefaultLowStock
	}
	return &Handler{
		products:  products,
		terminals: terminals,
		sales:     sales,
		lowStock:  decimal.NewFromInt(int64(threshold)),
		now:       time.Now,
	}
}

// apiFunc is a handler whose error is rendered by writeError.
type apiFunc func(w http.ResponseWriter, r *http.Request) error

func (f apiFunc) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := f(w, r); err != nil {
		writeError(w, r, err)
	}
}

// Register mounts every API route on mux. All routes require a seller key;
// collection and reports additionally require the admin role.
func (h *Handler) Register(mux *http.ServeMux, auth *Authenticator) {
	seller := func(f apiFunc) http.Handler { return auth.Require(f) }
	admin := func(f apiFunc) http.Handler { return auth.Require(RequireAdmin(f)) }

	mux.Handle("GET /api/products", seller(h.listProducts))
	mux.Handle("GET /api/products/{id}", seller(h.getProduct))

	mux.Handle("GET /api/terminals/{terminal}/cart", seller(h.getCart))
	mux.Handle("DELETE /api/terminals/{terminal}/cart", seller(h.clearCart))
	mux.Handle("POST /api/terminals/{terminal}/cart/lines", seller(h.addLine))
	mux.Handle("DELETE /api/terminals/{terminal}/cart/lines/{productId}", seller(h.removeLine))
	mux.Handle("PUT /api/terminals/{terminal}/cart/lines/{productId}/quantity", seller(h.setQuantity))
	mux.Handle("PUT /api/terminals/{terminal}/cart/lines/{productId}/price", seller(h.setPrice))
	mux.Handle("POST /api/terminals/{terminal}/checkout", seller(h.checkout))

	mux.Handle("GET /api/sales", seller(h.listSales))
	mux.Handle("GET /api/sales/debtors", seller(h.listDebtors))
	mux.Handle("GET /api/sales/{id}", seller(h.getSale))
	mux.Handle("POST /api/sales/{id}/paid", admin(h.markPaid))

	mux.Handle("GET /api/reports/summary", admin(h.summary))
	mux.Handle("GET /api/reports/inventory", admin(h.inventory))
}
