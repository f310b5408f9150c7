package handler

import (
	"net/http"

	"github.com/go-faster/errors"

	"github.com/xenking/bodega-pos/internal/domain/product"
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) error {
	products, err := h.products.List(r.Context())
	if err != nil {
		return errors.Wrap(err, "list products")
	}
	out := make([]productResponse, len(products))
	for i, p := range products {
		out[i] = toProduct(p)
	}
	writeJSON(w, http.StatusOK, out)
	return nil
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) error {
	p, err := h.products.GetByID(r.Context(), r.PathValue("id"))
	if errors.Is(err, product.ErrNotFound) {
		return &apiError{Code: http.StatusNotFound, Message: "product not found"}
	}
	if err != nil {
		return errors.Wrap(err, "get product")
	}
	writeJSON(w, http.StatusOK, toProduct(*p))
	return nil
}
