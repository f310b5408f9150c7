package sale

import (
	"context"
	"slices"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/xenking/bodega-pos/internal/domain/cart"
)

// Service completes checkouts against the sales store and manages credit
// collection.
type Service struct {
	coordinator *Coordinator
	sales       Repository
	now         func() time.Time

	completed metric.Int64Counter
	revenue   metric.Float64Counter
}

// NewService creates a sale Service. Metrics are registered on mp.
func NewService(sales Repository, mp metric.MeterProvider) (*Service, error) {
	meter := mp.Meter("github.com/xenking/bodega-pos/internal/domain/sale")

	completed, err := meter.Int64Counter("pos.sales.completed",
		metric.WithDescription("Number of persisted sales"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create sales counter")
	}
	revenue, err := meter.Float64Counter("pos.sales.revenue",
		metric.WithDescription("Sum of persisted sale totals"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create revenue counter")
	}

	return &Service{
		coordinator: NewCoordinator(),
		sales:       sales,
		now:         time.Now,
		completed:   completed,
		revenue:     revenue,
	}, nil
}

// Complete checks the cart out, persists the sale together with its stock
// decrements and clears the cart. When persistence fails the cart is left as
// it was so the cashier can retry.
func (s *Service) Complete(ctx context.Context, c *cart.Cart, req Request) (*Sale, error) {
	res, err := s.coordinator.Checkout(c, req)
	if err != nil {
		return nil, err
	}

	if err := s.sales.Create(ctx, res.Sale, res.Decrements); err != nil {
		return nil, errors.Wrap(err, "create sale")
	}
	c.Clear()

	attrs := metric.WithAttributes(attribute.String("payment_method", string(res.Sale.PaymentMethod)))
	s.completed.Add(ctx, 1, attrs)
	s.revenue.Add(ctx, res.Sale.Total.InexactFloat64(), attrs)

	zctx.From(ctx).Info("Sale completed",
		zap.String("sale_id", res.Sale.ID),
		zap.String("payment_method", string(res.Sale.PaymentMethod)),
		zap.String("total", res.Sale.Total.StringFixed(2)),
		zap.Int("items", len(res.Sale.Items)),
	)

	return res.Sale, nil
}

// Get returns a single sale.
func (s *Service) Get(ctx context.Context, id string) (*Sale, error) {
	return s.sales.Get(ctx, id)
}

// MarkPaid records collection of a pending credit sale.
func (s *Service) MarkPaid(ctx context.Context, id string) (*Sale, error) {
	sl, err := s.sales.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sl.PaymentMethod != PaymentCredit {
		return nil, ErrNotCredit
	}
	if sl.Status == StatusPaid {
		return nil, ErrAlreadyPaid
	}

	at := s.now()
	if err := s.sales.MarkPaid(ctx, id, at); err != nil {
		return nil, errors.Wrapf(err, "mark sale %s paid", id)
	}
	sl.Status = StatusPaid
	sl.PaidAt = &at
	return sl, nil
}

// List returns sales matching f, newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]Sale, error) {
	sales, err := s.sales.List(ctx, f)
	if err != nil {
		return nil, errors.Wrap(err, "list sales")
	}
	slices.SortStableFunc(sales, func(a, b Sale) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return sales, nil
}

// Debtors returns every credit sale, pending and collected, newest first.
func (s *Service) Debtors(ctx context.Context) ([]Sale, error) {
	return s.List(ctx, Filter{PaymentMethod: PaymentCredit})
}
