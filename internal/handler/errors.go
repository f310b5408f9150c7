package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/bodega-pos/internal/domain/cart"
	"github.com/xenking/bodega-pos/internal/domain/product"
	"github.com/xenking/bodega-pos/internal/domain/sale"
)

// apiError is the JSON error body of every failed request.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	return e.Message
}

// toAPIError maps domain errors to HTTP errors. Unknown errors become a
// generic 500 and are logged.
func toAPIError(r *http.Request, err error) *apiError {
	var (
		apiErr  *apiError
		valErr  *cart.ValidationError
		prodErr *cart.ProductNotFoundError
		lineErr *cart.LineNotFoundError
	)
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, sale.ErrEmptyCart):
		return &apiError{Code: http.StatusBadRequest, Message: err.Error()}
	case errors.As(err, &valErr):
		return &apiError{Code: http.StatusUnprocessableEntity, Message: valErr.Error()}
	case errors.As(err, &prodErr):
		return &apiError{Code: http.StatusUnprocessableEntity, Message: prodErr.Error()}
	case errors.Is(err, product.ErrNotFound):
		// Stock decrement hit a product deleted after it entered the cart.
		return &apiError{Code: http.StatusUnprocessableEntity, Message: "product no longer exists"}
	case errors.As(err, &lineErr):
		return &apiError{Code: http.StatusNotFound, Message: lineErr.Error()}
	case errors.Is(err, sale.ErrSaleNotFound):
		return &apiError{Code: http.StatusNotFound, Message: err.Error()}
	case errors.Is(err, sale.ErrNotCredit), errors.Is(err, sale.ErrAlreadyPaid):
		return &apiError{Code: http.StatusConflict, Message: err.Error()}
	case errors.Is(err, cart.ErrTooManyTerminals):
		return &apiError{Code: http.StatusServiceUnavailable, Message: err.Error()}
	}

	zctx.From(r.Context()).Error("Request failed", zap.Error(err))
	return &apiError{Code: http.StatusInternalServerError, Message: "internal server error"}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := toAPIError(r, err)
	writeJSON(w, e.Code, e)
}
