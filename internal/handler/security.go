package handler

import (
	"crypto/subtle"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/bodega-pos/internal/domain/seller"
)

// APIKeyHeader carries the seller's API key.
const APIKeyHeader = "api_key"

// Authenticator resolves the seller behind an API key. Keys are stored as
// HMAC-SHA256 hashes under a server-side pepper.
type Authenticator struct {
	sellers seller.Repository
	pepper  []byte
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(sellers seller.Repository, pepper []byte) *Authenticator {
	return &Authenticator{sellers: sellers, pepper: pepper}
}

var errUnauthorized = &apiError{Code: http.StatusUnauthorized, Message: "unauthorized"}

// Require rejects requests without a valid key and stores the seller in the
// request context.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(APIKeyHeader)
		if key == "" {
			writeError(w, r, errUnauthorized)
			return
		}

		hash := seller.HashKey(a.pepper, key)
		s, err := a.sellers.FindByHash(r.Context(), hash)
		switch {
		case errors.Is(err, seller.ErrNotFound):
			writeError(w, r, errUnauthorized)
			return
		case err != nil:
			writeError(w, r, errors.Wrap(err, "find seller"))
			return
		}

		// The lookup matched on the hash already; compare again in constant
		// time so a misbehaving store cannot authenticate a different key.
		if subtle.ConstantTimeCompare([]byte(hash), []byte(s.KeyHash)) != 1 {
			writeError(w, r, errUnauthorized)
			return
		}

		ctx := seller.WithSeller(r.Context(), s)
		ctx = zctx.With(ctx, zap.String("seller_id", s.ID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin allows only admin sellers through. It must run after
// Authenticator.Require.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := seller.FromContext(r.Context())
		if !ok {
			writeError(w, r, errUnauthorized)
			return
		}
		if !s.IsAdmin() {
			writeError(w, r, &apiError{Code: http.StatusForbidden, Message: "admin role required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
