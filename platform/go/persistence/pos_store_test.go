package persistence

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func seedSalesPoint(t *testing.T, events *EventStore, parish Parish) SalesPoint {
	t.Helper()
	ctx := context.Background()
	event, err := events.CreateEvent(ctx, CreateEventParams{
		ParishID: parish.ID,
		Title:    "Quermesse",
		StartsAt: parish.CreatedAt,
		HasSales: true,
	})
	require.NoError(t, err)
	sp, err := events.CreateSalesPoint(ctx, event.ID, parish.ID, "Barraca 1")
	require.NoError(t, err)
	return sp
}

func TestPosStoreOrderLifecycle(t *testing.T) {
	pool, cleanup := mustTestPool(t)
	defer cleanup()
	ctx := context.Background()

	parishStore, err := NewParishStore(pool)
	require.NoError(t, err)
	events, err := NewEventStore(pool)
	require.NoError(t, err)
	store, err := NewPosStore(pool)
	require.NoError(t, err)

	parish := seedParish(t, parishStore)
	sp := seedSalesPoint(t, events, parish)

	stock := 10
	pastel, err := events.CreateProduct(ctx, CreateProductParams{
		SalesPointID: sp.ID, ParishID: parish.ID, Name: "Pastel",
		UnitPrice: decimal.RequireFromString("8.00"), Stock: &stock,
	})
	require.NoError(t, err)
	refri, err := events.CreateProduct(ctx, CreateProductParams{
		SalesPointID: sp.ID, ParishID: parish.ID, Name: "Refrigerante",
		UnitPrice: decimal.RequireFromString("5.00"),
	})
	require.NoError(t, err)

	order, items, err := store.CreateOrder(ctx, sp.ID, parish.ID, "operator-1", "João", []OrderLine{
		{ProductID: pastel.ID, Quantity: 2},
		{ProductID: refri.ID, Quantity: 1},
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, OrderStatusOpen, order.Status)
	require.True(t, order.Total.Equal(decimal.RequireFromString("21.00")))

	// Tracked stock went down, untracked stayed NULL.
	p, err := events.GetProduct(ctx, pastel.ID)
	require.NoError(t, err)
	require.NotNil(t, p.Stock)
	require.Equal(t, 8, *p.Stock)
	r, err := events.GetProduct(ctx, refri.ID)
	require.NoError(t, err)
	require.Nil(t, r.Stock)

	paid, err := store.PayOrder(ctx, order.ID, "pix")
	require.NoError(t, err)
	require.Equal(t, OrderStatusPaid, paid.Status)
	require.Equal(t, "pix", paid.PaymentMethod)
	require.NotNil(t, paid.PaidAt)

	// Paying twice fails against the status gate.
	_, err = store.PayOrder(ctx, order.ID, "cash")
	require.ErrorIs(t, err, ErrOrderNotFound)

	delivered, err := store.DeliverOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, OrderStatusDelivered, delivered.Status)
}

func TestPosStoreOutOfStockRollsBack(t *testing.T) {
	pool, cleanup := mustTestPool(t)
	defer cleanup()
	ctx := context.Background()

	parishStore, err := NewParishStore(pool)
	require.NoError(t, err)
	events, err := NewEventStore(pool)
	require.NoError(t, err)
	store, err := NewPosStore(pool)
	require.NoError(t, err)

	parish := seedParish(t, parishStore)
	sp := seedSalesPoint(t, events, parish)

	plenty := 100
	scarce := 1
	cake, err := events.CreateProduct(ctx, CreateProductParams{
		SalesPointID: sp.ID, ParishID: parish.ID, Name: "Bolo",
		UnitPrice: decimal.RequireFromString("15.00"), Stock: &plenty,
	})
	require.NoError(t, err)
	pie, err := events.CreateProduct(ctx, CreateProductParams{
		SalesPointID: sp.ID, ParishID: parish.ID, Name: "Torta",
		UnitPrice: decimal.RequireFromString("20.00"), Stock: &scarce,
	})
	require.NoError(t, err)

	_, _, err = store.CreateOrder(ctx, sp.ID, parish.ID, "operator-1", "", []OrderLine{
		{ProductID: cake.ID, Quantity: 3},
		{ProductID: pie.ID, Quantity: 2},
	})
	require.ErrorIs(t, err, ErrOutOfStock)

	// The first line's decrement rolled back with the order.
	c, err := events.GetProduct(ctx, cake.ID)
	require.NoError(t, err)
	require.Equal(t, 100, *c.Stock)

	orders, err := store.ListOrders(ctx, sp.ID, "")
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestPosStoreCancelRestoresStock(t *testing.T) {
	pool, cleanup := mustTestPool(t)
	defer cleanup()
	ctx := context.Background()

	parishStore, err := NewParishStore(pool)
	require.NoError(t, err)
	events, err := NewEventStore(pool)
	require.NoError(t, err)
	store, err := NewPosStore(pool)
	require.NoError(t, err)

	parish := seedParish(t, parishStore)
	sp := seedSalesPoint(t, events, parish)

	stock := 5
	coffee, err := events.CreateProduct(ctx, CreateProductParams{
		SalesPointID: sp.ID, ParishID: parish.ID, Name: "Café",
		UnitPrice: decimal.RequireFromString("3.00"), Stock: &stock,
	})
	require.NoError(t, err)

	order, _, err := store.CreateOrder(ctx, sp.ID, parish.ID, "operator-2", "", []OrderLine{
		{ProductID: coffee.ID, Quantity: 2},
	})
	require.NoError(t, err)

	cancelled, err := store.CancelOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, OrderStatusCancelled, cancelled.Status)

	c, err := events.GetProduct(ctx, coffee.ID)
	require.NoError(t, err)
	require.Equal(t, 5, *c.Stock)
}
