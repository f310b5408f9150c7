package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/bodega-pos/internal/domain/cart"
	"github.com/xenking/bodega-pos/internal/domain/product"
	"github.com/xenking/bodega-pos/internal/domain/report"
	"github.com/xenking/bodega-pos/internal/domain/sale"
)

// money rounds to cents for presentation only.
func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func qty(d decimal.Decimal) float64 {
	return d.Round(3).InexactFloat64()
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Requests.

type addLineRequest struct {
	ProductID string `json:"productId" validate:"required,max=64"`
}

type setQuantityRequest struct {
	Quantity json.Number `json:"quantity" validate:"required"`
}

type setPriceRequest struct {
	Price json.Number `json:"price" validate:"required"`
}

type customerRequest struct {
	Name     string `json:"name" validate:"max=120"`
	Address  string `json:"address" validate:"max=200"`
	Locality string `json:"locality" validate:"max=120"`
	Phone    string `json:"phone" validate:"max=40"`
}

type checkoutRequest struct {
	PaymentMethod  string           `json:"paymentMethod" validate:"required"`
	AmountTendered *json.Number     `json:"amountTendered,omitempty"`
	Customer       *customerRequest `json:"customer,omitempty"`
	Folio          string           `json:"folio" validate:"max=32"`
}

// Responses.

type productResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Unit            string  `json:"unit"`
	Stock           float64 `json:"stock"`
	PriceRetail     float64 `json:"priceRetail"`
	PriceWholesale  float64 `json:"priceWholesale"`
	WholesaleMinQty float64 `json:"wholesaleMinQty"`
}

func toProduct(p product.Product) productResponse {
	return productResponse{
		ID:              p.ID,
		Name:            p.Name,
		Unit:            p.Unit,
		Stock:           qty(p.Stock),
		PriceRetail:     money(p.PriceRetail),
		PriceWholesale:  money(p.PriceWholesale),
		WholesaleMinQty: qty(p.WholesaleMinQty),
	}
}

type lineResponse struct {
	ProductID   string  `json:"productId"`
	Name        string  `json:"name"`
	Unit        string  `json:"unit"`
	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
	Subtotal    float64 `json:"subtotal"`
	Wholesale   bool    `json:"wholesale"`
	ManualPrice bool    `json:"manualPrice"`
}

func toLine(l cart.Line) lineResponse {
	return lineResponse{
		ProductID:   l.ProductID,
		Name:        l.Name,
		Unit:        l.Unit,
		Quantity:    qty(l.Quantity),
		Price:       money(l.Price),
		Subtotal:    money(l.Subtotal()),
		Wholesale:   l.Wholesale,
		ManualPrice: l.ManualPrice,
	}
}

func toLines(lines []cart.Line) []lineResponse {
	out := make([]lineResponse, len(lines))
	for i, l := range lines {
		out[i] = toLine(l)
	}
	return out
}

type cartResponse struct {
	Terminal string         `json:"terminal"`
	Lines    []lineResponse `json:"lines"`
	Total    float64        `json:"total"`
}

func toCart(terminal string, c *cart.Cart) cartResponse {
	return cartResponse{
		Terminal: terminal,
		Lines:    toLines(c.Lines()),
		Total:    money(c.Total()),
	}
}

type customerResponse struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	Locality string `json:"locality"`
	Phone    string `json:"phone,omitempty"`
}

type saleResponse struct {
	ID             string           `json:"id"`
	Folio          string           `json:"folio"`
	Customer       customerResponse `json:"customer"`
	SellerID       string           `json:"sellerId"`
	Seller         string           `json:"seller"`
	PaymentMethod  string           `json:"paymentMethod"`
	Status         string           `json:"status"`
	Items          []lineResponse   `json:"items"`
	Total          float64          `json:"total"`
	AmountTendered float64          `json:"amountTendered"`
	Change         float64          `json:"change"`
	CreatedAt      time.Time        `json:"createdAt"`
	PaidAt         *time.Time       `json:"paidAt,omitempty"`
}

func toSale(s *sale.Sale) saleResponse {
	return saleResponse{
		ID:    s.ID,
		Folio: s.FolioLabel(),
		Customer: customerResponse{
			Name:     s.Customer.Name,
			Address:  s.Customer.Address,
			Locality: s.Customer.Locality,
			Phone:    s.Customer.Phone,
		},
		SellerID:       s.SellerID,
		Seller:         s.Seller,
		PaymentMethod:  string(s.PaymentMethod),
		Status:         string(s.Status),
		Items:          toLines(s.Items),
		Total:          money(s.Total),
		AmountTendered: money(s.AmountTendered),
		Change:         money(s.Change),
		CreatedAt:      s.CreatedAt,
		PaidAt:         s.PaidAt,
	}
}

func toSales(sales []sale.Sale) []saleResponse {
	out := make([]saleResponse, len(sales))
	for i := range sales {
		out[i] = toSale(&sales[i])
	}
	return out
}

type dayResponse struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
	Cost    float64 `json:"cost"`
	Profit  float64 `json:"profit"`
}

type summaryResponse struct {
	Revenue    float64       `json:"revenue"`
	Cost       float64       `json:"cost"`
	Profit     float64       `json:"profit"`
	Today      float64       `json:"today"`
	Receivable float64       `json:"receivable"`
	Days       []dayResponse `json:"days"`
}

func toSummary(s report.Summary) summaryResponse {
	days := make([]dayResponse, len(s.Days))
	for i, d := range s.Days {
		days[i] = dayResponse{
			Date:    d.Date.Format(time.DateOnly),
			Revenue: money(d.Revenue),
			Cost:    money(d.Cost),
			Profit:  money(d.Profit),
		}
	}
	return summaryResponse{
		Revenue:    money(s.Revenue),
		Cost:       money(s.Cost),
		Profit:     money(s.Profit),
		Today:      money(s.Today),
		Receivable: money(s.Receivable),
		Days:       days,
	}
}

type lowStockResponse struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Unit  string  `json:"unit"`
	Stock float64 `json:"stock"`
}

type inventoryResponse struct {
	Value    float64            `json:"value"`
	Products int                `json:"products"`
	LowStock []lowStockResponse `json:"lowStock"`
}

func toInventory(st report.Stock, products int) inventoryResponse {
	low := make([]lowStockResponse, len(st.LowStock))
	for i, p := range st.LowStock {
		low[i] = lowStockResponse{ID: p.ID, Name: p.Name, Unit: p.Unit, Stock: qty(p.Stock)}
	}
	return inventoryResponse{Value: money(st.Value), Products: products, LowStock: low}
}
