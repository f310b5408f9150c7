package seller

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when no active seller owns the key hash.
var ErrNotFound = errors.New("seller not found")

// Role grants access to operations.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

// Seller is an authenticated cashier. Name is what tickets print as the
// seller.
type Seller struct {
	ID      string
	Name    string
	Role    Role
	KeyHash string
}

// IsAdmin reports whether the seller may run admin-only operations.
func (s *Seller) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// HashKey returns the hex HMAC-SHA256 of key under pepper, the form stored in
// the sellers table.
func HashKey(pepper []byte, key string) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

// Repository provides lookup of sellers by their API key hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*Seller, error)
}

type ctxKey struct{}

// WithSeller returns a context carrying s.
func WithSeller(ctx context.Context, s *Seller) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the seller stored by WithSeller.
func FromContext(ctx context.Context) (*Seller, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Seller)
	return s, ok
}
