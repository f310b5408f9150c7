package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/bodega-pos/internal/domain/seller"
)

const (
	getSellerByHashSQL = `SELECT id, name, role, key_hash
		FROM sellers WHERE key_hash = $1 AND active = TRUE`

	upsertSellerSQL = `INSERT INTO sellers (id, name, role, key_hash, active)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			role = EXCLUDED.role,
			key_hash = EXCLUDED.key_hash,
			active = TRUE`
)

var _ seller.Repository = (*SellerRepository)(nil)

// SellerRepository provides seller lookups backed by PostgreSQL.
type SellerRepository struct {
	pool *pgxpool.Pool
}

// NewSellerRepository returns a SellerRepository that uses the given pool.
func NewSellerRepository(pool *pgxpool.Pool) *SellerRepository {
	return &SellerRepository{pool: pool}
}

// FindByHash looks up an active seller by the HMAC-SHA256 hash of their key.
func (r *SellerRepository) FindByHash(ctx context.Context, hash string) (*seller.Seller, error) {
	var (
		s    seller.Seller
		role string
	)
	err := r.pool.QueryRow(ctx, getSellerByHashSQL, hash).Scan(&s.ID, &s.Name, &role, &s.KeyHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, seller.ErrNotFound
		}
		return nil, fmt.Errorf("finding seller by hash: %w", err)
	}
	s.Role = seller.Role(role)
	return &s, nil
}

// Upsert stores the seller and marks it active.
func (r *SellerRepository) Upsert(ctx context.Context, s seller.Seller) error {
	if !s.Role.Valid() {
		return fmt.Errorf("seller %q has unknown role %q", s.ID, s.Role)
	}
	if _, err := r.pool.Exec(ctx, upsertSellerSQL, s.ID, s.Name, string(s.Role), s.KeyHash); err != nil {
		return fmt.Errorf("upserting seller %q: %w", s.ID, err)
	}
	return nil
}
