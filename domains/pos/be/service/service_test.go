package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/paroquiaemdia/parish-api/domains/pos/be/repo"
	"github.com/paroquiaemdia/parish-api/platform/go/parish"
	"github.com/paroquiaemdia/parish-api/platform/go/persistence"
)

// mockRepository embeds the interface so tests only configure the calls they
// exercise; anything else nil-panics loudly.
type mockRepository struct {
	repo.Repository
	listOrdersFn func(ctx context.Context, salesPointID uuid.UUID, status string) ([]persistence.Order, error)
	payOrderFn   func(ctx context.Context, id uuid.UUID, paymentMethod string) (persistence.Order, error)
}

func (m *mockRepository) ListOrders(ctx context.Context, salesPointID uuid.UUID, status string) ([]persistence.Order, error) {
	if m.listOrdersFn == nil {
		panic("listOrdersFn not configured")
	}
	return m.listOrdersFn(ctx, salesPointID, status)
}

func (m *mockRepository) PayOrder(ctx context.Context, id uuid.UUID, paymentMethod string) (persistence.Order, error) {
	if m.payOrderFn == nil {
		panic("payOrderFn not configured")
	}
	return m.payOrderFn(ctx, id, paymentMethod)
}

func scopedContext(role parish.Role, userID string) context.Context {
	return parish.WithScope(context.Background(), parish.Scope{
		Parish: parish.Info{ID: uuid.New(), Slug: "sao-joao", Status: "active"},
		Role:   role,
		UserID: userID,
	})
}

func TestSummarizeEmpty(t *testing.T) {
	t.Parallel()

	summary := Summarize(nil)
	require.Equal(t, 0, summary.OrderCount)
	require.True(t, summary.TotalRevenue.IsZero())
	require.True(t, summary.AverageOrderValue.IsZero())
	require.Empty(t, summary.ByMethod)
}

func TestSummarizePaidAndOpen(t *testing.T) {
	t.Parallel()

	orders := []Order{
		{Status: persistence.OrderStatusPaid, PaymentMethod: "pix", Total: decimal.RequireFromString("50.00")},
		{Status: persistence.OrderStatusOpen, Total: decimal.RequireFromString("30.00")},
	}

	summary := Summarize(orders)
	require.Equal(t, 2, summary.OrderCount)
	require.Equal(t, 1, summary.PaidCount)
	require.Equal(t, 1, summary.OpenCount)
	require.True(t, summary.TotalRevenue.Equal(decimal.RequireFromString("50.00")))
	require.True(t, summary.AverageOrderValue.Equal(decimal.RequireFromString("25.00")))
	require.True(t, summary.ByMethod["pix"].Equal(decimal.RequireFromString("50.00")))
}

func TestSummarizeBucketsAndCancelled(t *testing.T) {
	t.Parallel()

	orders := []Order{
		{Status: persistence.OrderStatusPaid, PaymentMethod: "cash", Total: decimal.RequireFromString("10.00")},
		{Status: persistence.OrderStatusDelivered, PaymentMethod: "cash", Total: decimal.RequireFromString("20.00")},
		{Status: persistence.OrderStatusDelivered, Total: decimal.RequireFromString("5.00")},
		{Status: persistence.OrderStatusCancelled, Total: decimal.RequireFromString("99.00")},
	}

	summary := Summarize(orders)
	require.Equal(t, 4, summary.OrderCount)
	require.Equal(t, 1, summary.CancelledCount)
	require.True(t, summary.TotalRevenue.Equal(decimal.RequireFromString("35.00")))
	require.True(t, summary.ByMethod["cash"].Equal(decimal.RequireFromString("30.00")))
	require.True(t, summary.ByMethod["unspecified"].Equal(decimal.RequireFromString("5.00")))
}

func TestSummarizeCountsCancelledOrders(t *testing.T) {
	t.Parallel()

	orders := []Order{
		{Status: persistence.OrderStatusPaid, PaymentMethod: "card", Total: decimal.RequireFromString("50.00")},
		{Status: persistence.OrderStatusOpen, Total: decimal.RequireFromString("30.00")},
		{Status: persistence.OrderStatusCancelled, Total: decimal.RequireFromString("20.00")},
	}

	// Every order counts; only the paid one contributes revenue.
	summary := Summarize(orders)
	require.Equal(t, 3, summary.OrderCount)
	require.Equal(t, 1, summary.PaidCount)
	require.Equal(t, 1, summary.OpenCount)
	require.Equal(t, 1, summary.CancelledCount)
	require.True(t, summary.TotalRevenue.Equal(decimal.RequireFromString("50.00")))
	require.True(t, summary.AverageOrderValue.Equal(decimal.RequireFromString("16.67")))
}

func TestCartMergesLines(t *testing.T) {
	t.Parallel()

	productA := uuid.New()
	productB := uuid.New()

	var cart Cart
	cart.Add(productA, 1)
	cart.Add(productB, 2)
	cart.Add(productA, 1)

	lines := cart.Lines()
	require.Len(t, lines, 2)
	require.Equal(t, productA, lines[0].ProductID)
	require.Equal(t, 2, lines[0].Quantity)
	require.Equal(t, 2, lines[1].Quantity)

	cart.Remove(productB)
	require.Len(t, cart.Lines(), 1)

	cart.Add(productA, 0)
	require.Equal(t, 2, cart.Lines()[0].Quantity)
}

func TestCartDecrement(t *testing.T) {
	t.Parallel()

	productA := uuid.New()
	productB := uuid.New()

	var cart Cart
	cart.Add(productA, 3)
	cart.Add(productB, 1)

	cart.Decrement(productA)
	require.Equal(t, 2, cart.Lines()[0].Quantity)

	cart.Decrement(productB)
	lines := cart.Lines()
	require.Len(t, lines, 1)
	require.Equal(t, productA, lines[0].ProductID)

	cart.Decrement(uuid.New())
	require.Len(t, cart.Lines(), 1)
}

func TestPayOrderValidatesMethod(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{})
	ctx := scopedContext(parish.RolePosOperator, "op-1")

	_, err := svc.PayOrder(ctx, uuid.New(), "check")
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "paymentMethod")
}

func TestCreateOrderForbiddenForMembers(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{})
	ctx := scopedContext(parish.RoleMember, "member-1")

	_, _, err := svc.CreateOrder(ctx, CreateOrderInput{
		SalesPointID: uuid.New(),
		Lines:        []persistence.OrderLine{{ProductID: uuid.New(), Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestSummarizeSalesPointUsesAllOrders(t *testing.T) {
	t.Parallel()

	repository := &mockRepository{
		listOrdersFn: func(ctx context.Context, salesPointID uuid.UUID, status string) ([]persistence.Order, error) {
			require.Empty(t, status)
			return []persistence.Order{
				{Status: persistence.OrderStatusPaid, PaymentMethod: "pix", Total: decimal.RequireFromString("50.00")},
				{Status: persistence.OrderStatusOpen, Total: decimal.RequireFromString("30.00")},
			}, nil
		},
	}

	svc := New(repository)
	ctx := scopedContext(parish.RolePosOperator, "op-1")

	summary, err := svc.SummarizeSalesPoint(ctx, uuid.New())
	require.NoError(t, err)
	require.Equal(t, 2, summary.OrderCount)
	require.True(t, summary.AverageOrderValue.Equal(decimal.RequireFromString("25.00")))
}
