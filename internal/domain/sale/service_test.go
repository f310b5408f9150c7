package sale

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

// --- Mock implementations ---

type mockSaleRepo struct {
	created    *Sale
	decrements []StockDecrement
	createErr  error

	byID    map[string]*Sale
	list    []Sale
	listErr error
	filter  Filter
	paidID  string
	paidAt  time.Time
	markErr error
}

func (m *mockSaleRepo) Create(_ context.Context, s *Sale, decrements []StockDecrement) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = s
	m.decrements = decrements
	return nil
}

func (m *mockSaleRepo) Get(_ context.Context, id string) (*Sale, error) {
	s, ok := m.byID[id]
	if !ok {
		return nil, ErrSaleNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockSaleRepo) List(_ context.Context, f Filter) ([]Sale, error) {
	m.filter = f
	return m.list, m.listErr
}

func (m *mockSaleRepo) MarkPaid(_ context.Context, id string, at time.Time) error {
	m.paidID = id
	m.paidAt = at
	return m.markErr
}

// --- Helpers ---

func newTestService(t *testing.T, repo *mockSaleRepo) *Service {
	t.Helper()
	svc, err := NewService(repo, noop.NewMeterProvider())
	require.NoError(t, err)
	svc.coordinator = newTestCoordinator()
	svc.now = func() time.Time { return fixedNow }
	return svc
}

// --- Tests ---

func TestService_Complete(t *testing.T) {
	repo := &mockSaleRepo{}
	svc := newTestService(t, repo)
	c := cartWith(cement(), cement())

	s, err := svc.Complete(context.Background(), c, Request{
		PaymentMethod:  PaymentCash,
		AmountTendered: ptr(d("500")),
	})
	require.NoError(t, err)

	assert.Same(t, s, repo.created)
	assert.True(t, d("40").Equal(s.Change))
	require.Len(t, repo.decrements, 1)
	assert.True(t, d("2").Equal(repo.decrements[0].Quantity))
	assert.Equal(t, 0, c.Len(), "cart is cleared after a successful save")
}

func TestService_CompletePersistenceFailureKeepsCart(t *testing.T) {
	repo := &mockSaleRepo{createErr: errors.New("connection reset")}
	svc := newTestService(t, repo)
	c := cartWith(cement(), nails())

	s, err := svc.Complete(context.Background(), c, Request{PaymentMethod: PaymentTransfer})

	require.Error(t, err)
	assert.Nil(t, s)
	assert.Contains(t, err.Error(), "create sale")
	assert.Equal(t, 2, c.Len())
	assert.True(t, d("275.50").Equal(c.Total()))
}

func TestService_CompleteValidationFailureSkipsRepository(t *testing.T) {
	repo := &mockSaleRepo{}
	svc := newTestService(t, repo)

	_, err := svc.Complete(context.Background(), cartWith(cement()), Request{PaymentMethod: PaymentCredit})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Nil(t, repo.created)
	assert.Nil(t, repo.decrements)
}

func TestService_MarkPaid(t *testing.T) {
	repo := &mockSaleRepo{byID: map[string]*Sale{
		"credit": {ID: "credit", PaymentMethod: PaymentCredit, Status: StatusPending},
		"paid":   {ID: "paid", PaymentMethod: PaymentCredit, Status: StatusPaid},
		"cash":   {ID: "cash", PaymentMethod: PaymentCash, Status: StatusPaid},
	}}
	svc := newTestService(t, repo)

	tests := []struct {
		name    string
		id      string
		wantErr error
	}{
		{name: "pending credit sale", id: "credit"},
		{name: "already paid", id: "paid", wantErr: ErrAlreadyPaid},
		{name: "cash sale", id: "cash", wantErr: ErrNotCredit},
		{name: "unknown sale", id: "nope", wantErr: ErrSaleNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.MarkPaid(context.Background(), tt.id)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, StatusPaid, got.Status)
			require.NotNil(t, got.PaidAt)
			assert.Equal(t, fixedNow, *got.PaidAt)
			assert.Equal(t, tt.id, repo.paidID)
		})
	}
}

func TestService_MarkPaidRepositoryError(t *testing.T) {
	repo := &mockSaleRepo{
		byID:    map[string]*Sale{"credit": {ID: "credit", PaymentMethod: PaymentCredit, Status: StatusPending}},
		markErr: errors.New("db error"),
	}
	svc := newTestService(t, repo)

	_, err := svc.MarkPaid(context.Background(), "credit")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mark sale credit paid")
}

func TestService_Debtors(t *testing.T) {
	older := fixedNow.Add(-48 * time.Hour)
	newer := fixedNow.Add(-time.Hour)
	repo := &mockSaleRepo{list: []Sale{
		{ID: "old", PaymentMethod: PaymentCredit, CreatedAt: older},
		{ID: "new", PaymentMethod: PaymentCredit, CreatedAt: newer},
	}}
	svc := newTestService(t, repo)

	got, err := svc.Debtors(context.Background())
	require.NoError(t, err)

	assert.Equal(t, PaymentCredit, repo.filter.PaymentMethod)
	require.Len(t, got, 2)
	assert.Equal(t, "new", got[0].ID)
	assert.Equal(t, "old", got[1].ID)
}

func TestService_ListError(t *testing.T) {
	svc := newTestService(t, &mockSaleRepo{listErr: errors.New("timeout")})

	_, err := svc.List(context.Background(), Filter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list sales")
}

func TestService_Get(t *testing.T) {
	repo := &mockSaleRepo{byID: map[string]*Sale{"s1": {ID: "s1"}}}
	svc := newTestService(t, repo)

	got, err := svc.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)

	_, err = svc.Get(context.Background(), "s2")
	require.ErrorIs(t, err, ErrSaleNotFound)
}
