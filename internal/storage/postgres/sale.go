package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/bodega-pos/internal/domain/cart"
	"github.com/xenking/bodega-pos/internal/domain/product"
	"github.com/xenking/bodega-pos/internal/domain/sale"
)

const (
	saleColumns = `id, customer_name, customer_address, customer_locality, customer_phone,
		seller_id, seller, payment_method, total, amount_tendered, change_due, folio, status, created_at, paid_at`

	insertSaleSQL = `INSERT INTO sales (` + saleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	itemColumns = `sale_id, position, product_id, name, unit, quantity, price, cost,
		price_retail, price_wholesale, wholesale_min_qty, wholesale, manual_price`

	insertItemSQL = `INSERT INTO sale_items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	decrementStockSQL = `UPDATE products SET stock = stock - $2, updated_at = now() WHERE id = $1`

	getSaleSQL = `SELECT ` + saleColumns + ` FROM sales WHERE id = $1`

	listItemsSQL = `SELECT ` + itemColumns + ` FROM sale_items
		WHERE sale_id = ANY($1) ORDER BY sale_id, position`

	markPaidSQL = `UPDATE sales SET status = 'PAID', paid_at = $2
		WHERE id = $1 AND payment_method = 'CREDIT' AND status = 'PENDING'`
)

var _ sale.Repository = (*SaleRepository)(nil)

// SaleRepository implements sale.Repository backed by PostgreSQL.
type SaleRepository struct {
	pool *pgxpool.Pool
}

// NewSaleRepository returns a SaleRepository that uses the given pool.
func NewSaleRepository(pool *pgxpool.Pool) *SaleRepository {
	return &SaleRepository{pool: pool}
}

// Create inserts the sale with its items and subtracts the sold quantities
// from product stock in a single transaction. A decrement for a product that
// no longer exists aborts the whole sale.
func (r *SaleRepository) Create(ctx context.Context, s *sale.Sale, decrements []sale.StockDecrement) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		c := s.Customer
		_, err := tx.Exec(ctx, insertSaleSQL,
			s.ID, c.Name, c.Address, c.Locality, c.Phone,
			s.SellerID, s.Seller, string(s.PaymentMethod), s.Total, s.AmountTendered, s.Change,
			s.Folio, string(s.Status), s.CreatedAt, s.PaidAt,
		)
		if err != nil {
			return fmt.Errorf("inserting sale: %w", err)
		}

		b := &pgx.Batch{}
		for i, it := range s.Items {
			b.Queue(insertItemSQL,
				s.ID, i, it.ProductID, it.Name, it.Unit, it.Quantity, it.Price, it.Cost,
				it.PriceRetail, it.PriceWholesale, it.WholesaleMinQty, it.Wholesale, it.ManualPrice,
			)
		}
		for _, dec := range decrements {
			b.Queue(decrementStockSQL, dec.ProductID, dec.Quantity)
		}

		br := tx.SendBatch(ctx, b)
		if err := execBatch(br, len(s.Items), decrements); err != nil {
			_ = br.Close()
			return err
		}
		return br.Close()
	})
	if err != nil {
		return fmt.Errorf("creating sale %q: %w", s.ID, err)
	}
	return nil
}

func execBatch(br pgx.BatchResults, items int, decrements []sale.StockDecrement) error {
	for i := range items {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("inserting item %d: %w", i, err)
		}
	}
	for _, dec := range decrements {
		tag, err := br.Exec()
		if err != nil {
			return fmt.Errorf("decrementing stock of %q: %w", dec.ProductID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("decrementing stock of %q: %w", dec.ProductID, product.ErrNotFound)
		}
	}
	return nil
}

// Get returns a sale with its items.
func (r *SaleRepository) Get(ctx context.Context, id string) (*sale.Sale, error) {
	rows, err := r.pool.Query(ctx, getSaleSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting sale %q: %w", id, err)
	}
	s, err := pgx.CollectExactlyOneRow(rows, scanSale)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sale.ErrSaleNotFound
		}
		return nil, fmt.Errorf("getting sale %q: %w", id, err)
	}

	sales := []sale.Sale{s}
	if err := r.loadItems(ctx, sales); err != nil {
		return nil, err
	}
	return &sales[0], nil
}

// List returns sales matching f, newest first.
func (r *SaleRepository) List(ctx context.Context, f sale.Filter) ([]sale.Sale, error) {
	query, args := listSalesQuery(f)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing sales: %w", err)
	}
	sales, err := pgx.CollectRows(rows, scanSale)
	if err != nil {
		return nil, fmt.Errorf("listing sales: %w", err)
	}
	if err := r.loadItems(ctx, sales); err != nil {
		return nil, err
	}
	return sales, nil
}

// MarkPaid flips a pending credit sale to paid.
func (r *SaleRepository) MarkPaid(ctx context.Context, id string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, markPaidSQL, id, at)
	if err != nil {
		return fmt.Errorf("marking sale %q paid: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return sale.ErrAlreadyPaid
	}
	return nil
}

func listSalesQuery(f sale.Filter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if f.PaymentMethod != "" {
		args = append(args, string(f.PaymentMethod))
		where = append(where, "payment_method = $"+strconv.Itoa(len(args)))
	}
	if !f.Since.IsZero() {
		args = append(args, f.Since)
		where = append(where, "created_at >= $"+strconv.Itoa(len(args)))
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + saleColumns + " FROM sales")
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY created_at DESC, id")
	if f.Limit > 0 {
		args = append(args, f.Limit)
		sb.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	}
	return sb.String(), args
}

// loadItems fills Items for every sale with one query.
func (r *SaleRepository) loadItems(ctx context.Context, sales []sale.Sale) error {
	if len(sales) == 0 {
		return nil
	}
	ids := make([]string, len(sales))
	index := make(map[string]int, len(sales))
	for i, s := range sales {
		ids[i] = s.ID
		index[s.ID] = i
	}

	rows, err := r.pool.Query(ctx, listItemsSQL, ids)
	if err != nil {
		return fmt.Errorf("listing sale items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			saleID   string
			position int32
			l        cart.Line
		)
		if err := rows.Scan(
			&saleID, &position, &l.ProductID, &l.Name, &l.Unit, &l.Quantity, &l.Price, &l.Cost,
			&l.PriceRetail, &l.PriceWholesale, &l.WholesaleMinQty, &l.Wholesale, &l.ManualPrice,
		); err != nil {
			return fmt.Errorf("scanning sale item: %w", err)
		}
		i := index[saleID]
		sales[i].Items = append(sales[i].Items, l)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("listing sale items: %w", err)
	}
	return nil
}

func scanSale(row pgx.CollectableRow) (sale.Sale, error) {
	var (
		s       sale.Sale
		method  string
		status  string
		created time.Time
	)
	err := row.Scan(
		&s.ID, &s.Customer.Name, &s.Customer.Address, &s.Customer.Locality, &s.Customer.Phone,
		&s.SellerID, &s.Seller, &method, &s.Total, &s.AmountTendered, &s.Change, &s.Folio, &status,
		&created, &s.PaidAt,
	)
	s.PaymentMethod = sale.PaymentMethod(method)
	s.Status = sale.Status(status)
	s.CreatedAt = created
	return s, err
}
