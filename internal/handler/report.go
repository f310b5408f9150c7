package handler

import (
	"net/http"

	"github.com/go-faster/errors"

	"github.com/xenking/bodega-pos/internal/domain/report"
	"github.com/xenking/bodega-pos/internal/domain/sale"
)

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) error {
	days, err := queryInt(r, "days", 7, 1, 90)
	if err != nil {
		return err
	}
	now := h.now()
	sales, err := h.sales.List(r.Context(), sale.Filter{Since: report.WindowStart(now, days)})
	if err != nil {
		return err
	}
	debtors, err := h.sales.Debtors(r.Context())
	if err != nil {
		return err
	}

	s := report.Summarize(sales, now, days)
	// Credit owed is not bounded by the window.
	s.Receivable = report.Receivable(debtors)
	writeJSON(w, http.StatusOK, toSummary(s))
	return nil
}

func (h *Handler) inventory(w http.ResponseWriter, r *http.Request) error {
	products, err := h.products.List(r.Context())
	if err != nil {
		return errors.Wrap(err, "list products")
	}
	writeJSON(w, http.StatusOK, toInventory(report.Inventory(products, h.lowStock), len(products)))
	return nil
}
