package handler

import (
	"net/http"

	"github.com/xenking/bodega-pos/internal/domain/cart"
)

// withCart runs fn on the terminal's cart and replies with the resulting
// cart state.
func (h *Handler) withCart(w http.ResponseWriter, r *http.Request, fn func(c *cart.Cart) error) error {
	terminal, err := terminalID(r)
	if err != nil {
		return err
	}
	var resp cartResponse
	err = h.terminals.Do(terminal, func(c *cart.Cart) error {
		if err := fn(c); err != nil {
			return err
		}
		resp = toCart(terminal, c)
		return nil
	})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, resp)
	return nil
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) error {
	return h.withCart(w, r, func(*cart.Cart) error { return nil })
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) error {
	return h.withCart(w, r, func(c *cart.Cart) error {
		c.Clear()
		return nil
	})
}

func (h *Handler) addLine(w http.ResponseWriter, r *http.Request) error {
	var req addLineRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	// The catalog lookup runs under the terminal lock; it only blocks this
	// terminal.
	return h.withCart(w, r, func(c *cart.Cart) error {
		_, err := c.AddByID(r.Context(), h.products, req.ProductID)
		return err
	})
}

func (h *Handler) removeLine(w http.ResponseWriter, r *http.Request) error {
	return h.withCart(w, r, func(c *cart.Cart) error {
		c.Remove(r.PathValue("productId"))
		return nil
	})
}

func (h *Handler) setQuantity(w http.ResponseWriter, r *http.Request) error {
	var req setQuantityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	q, err := cart.ParseQuantity(req.Quantity.String())
	if err != nil {
		return err
	}
	return h.withCart(w, r, func(c *cart.Cart) error {
		_, err := c.SetQuantity(r.PathValue("productId"), q)
		return err
	})
}

func (h *Handler) setPrice(w http.ResponseWriter, r *http.Request) error {
	var req setPriceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	p, err := cart.ParsePrice(req.Price.String())
	if err != nil {
		return err
	}
	return h.withCart(w, r, func(c *cart.Cart) error {
		_, err := c.SetManualPrice(r.PathValue("productId"), p)
		return err
	})
}
