package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// decodeJSON strictly decodes the request body into dst and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() { _, _ = io.Copy(io.Discard, body) }()

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return &apiError{Code: http.StatusBadRequest, Message: "request body is required"}
		}
		return &apiError{Code: http.StatusBadRequest, Message: "invalid request body: " + err.Error()}
	}
	if dec.More() {
		return &apiError{Code: http.StatusBadRequest, Message: "invalid request body: trailing data"}
	}
	return validationError(validate.Struct(dst))
}

// validationError renders validator failures as a single 422 message.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &apiError{Code: http.StatusUnprocessableEntity, Message: err.Error()}
	}
	msgs := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		msgs[i] = fieldPath(fe) + " " + validationMessage(fe)
	}
	return &apiError{Code: http.StatusUnprocessableEntity, Message: "invalid request: " + strings.Join(msgs, "; ")}
}

// fieldPath strips the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of " + fe.Param()
	case "printascii":
		return "must be printable ASCII"
	}
	return "is invalid"
}

// terminalID validates the {terminal} path segment.
func terminalID(r *http.Request) (string, error) {
	id := r.PathValue("terminal")
	if err := validate.Var(id, "required,max=64,printascii"); err != nil {
		return "", &apiError{Code: http.StatusUnprocessableEntity, Message: "invalid terminal id"}
	}
	return id, nil
}

// queryInt parses an optional integer query parameter within [lo, hi].
func queryInt(r *http.Request, key string, def, lo, hi int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &apiError{Code: http.StatusUnprocessableEntity, Message: "query parameter " + key + " must be numeric"}
	}
	if v < lo || v > hi {
		return 0, &apiError{
			Code:    http.StatusUnprocessableEntity,
			Message: "query parameter " + key + " must be between " + strconv.Itoa(lo) + " and " + strconv.Itoa(hi),
		}
	}
	return v, nil
}
