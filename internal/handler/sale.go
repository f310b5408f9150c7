package handler

import (
	"net/http"
	"strings"

	"github.com/xenking/bodega-pos/internal/domain/cart"
	"github.com/xenking/bodega-pos/internal/domain/report"
	"github.com/xenking/bodega-pos/internal/domain/sale"
	"github.com/xenking/bodega-pos/internal/domain/seller"
)

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) error {
	terminal, err := terminalID(r)
	if err != nil {
		return err
	}
	var body checkoutRequest
	if err := decodeJSON(w, r, &body); err != nil {
		return err
	}
	req, err := toSaleRequest(r, body)
	if err != nil {
		return err
	}

	var completed *sale.Sale
	err = h.terminals.Do(terminal, func(c *cart.Cart) error {
		var err error
		completed, err = h.sales.Complete(r.Context(), c, req)
		return err
	})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, toSale(completed))
	return nil
}

func toSaleRequest(r *http.Request, body checkoutRequest) (sale.Request, error) {
	// Unknown methods pass through so checkout reports them.
	method, ok := sale.ParsePaymentMethod(body.PaymentMethod)
	if !ok {
		method = sale.PaymentMethod(strings.ToUpper(strings.TrimSpace(body.PaymentMethod)))
	}
	req := sale.Request{PaymentMethod: method, Folio: body.Folio}

	if body.AmountTendered != nil {
		amount, err := cart.ParseAmount("amountTendered", body.AmountTendered.String())
		if err != nil {
			return sale.Request{}, err
		}
		req.AmountTendered = &amount
	}
	if c := body.Customer; c != nil {
		req.Customer = sale.Customer{Name: c.Name, Address: c.Address, Locality: c.Locality, Phone: c.Phone}
	}
	if s, ok := seller.FromContext(r.Context()); ok {
		req.SellerID = s.ID
		req.Seller = s.Name
	}
	return req, nil
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) error {
	days, err := queryInt(r, "days", 30, 1, 366)
	if err != nil {
		return err
	}
	limit, err := queryInt(r, "limit", 100, 1, 1000)
	if err != nil {
		return err
	}
	f := sale.Filter{Since: report.WindowStart(h.now(), days), Limit: limit}
	if raw := r.URL.Query().Get("paymentMethod"); raw != "" {
		method, ok := sale.ParsePaymentMethod(raw)
		if !ok {
			return &apiError{Code: http.StatusUnprocessableEntity, Message: "unknown payment method " + raw}
		}
		f.PaymentMethod = method
	}

	sales, err := h.sales.List(r.Context(), f)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, toSales(sales))
	return nil
}

func (h *Handler) listDebtors(w http.ResponseWriter, r *http.Request) error {
	sales, err := h.sales.Debtors(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, toSales(sales))
	return nil
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) error {
	s, err := h.sales.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, toSale(s))
	return nil
}

func (h *Handler) markPaid(w http.ResponseWriter, r *http.Request) error {
	s, err := h.sales.MarkPaid(r.Context(), r.PathValue("id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, toSale(s))
	return nil
}
