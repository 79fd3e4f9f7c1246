package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func seedParish(t *testing.T, store *ParishStore) Parish {
	t.Helper()
	parish, err := store.CreateParish(context.Background(), CreateParishParams{
		ParishID:  uuid.New(),
		Slug:      "test-" + uuid.NewString()[:8],
		Name:      "Paróquia de Teste",
		CreatedBy: "user-" + uuid.NewString(),
	}, "parish_admin")
	require.NoError(t, err)
	return parish
}

func monthlySchedule(start time.Time, months int, dueDay int, amount decimal.Decimal) []Installment {
	anchor := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	out := make([]Installment, 0, months)
	for i := 0; i < months; i++ {
		competency := anchor.AddDate(0, i, 0)
		out = append(out, Installment{
			ID:         uuid.New(),
			Competency: competency,
			DueDate:    time.Date(competency.Year(), competency.Month(), dueDay, 0, 0, 0, 0, time.UTC),
			Amount:     amount,
		})
	}
	return out
}

func TestTitheStoreUpsertPledgerByUser(t *testing.T) {
	pool, cleanup := mustTestPool(t)
	defer cleanup()
	ctx := context.Background()

	parishStore, err := NewParishStore(pool)
	require.NoError(t, err)
	store, err := NewTitheStore(pool)
	require.NoError(t, err)

	parish := seedParish(t, parishStore)
	userID := "user-" + uuid.NewString()

	first, err := store.CreatePledger(ctx, parish.ID, &userID, "Maria Silva", "", "")
	require.NoError(t, err)

	// Registering the same user again refreshes the row instead of failing.
	second, err := store.CreatePledger(ctx, parish.ID, &userID, "Maria S. Silva", "11 99999-0000", "")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "Maria S. Silva", second.Name)
	require.Equal(t, "11 99999-0000", second.Phone)

	// Blank fields keep the stored values.
	third, err := store.CreatePledger(ctx, parish.ID, &userID, "", "", "")
	require.NoError(t, err)
	require.Equal(t, first.ID, third.ID)
	require.Equal(t, "Maria S. Silva", third.Name)
}

func TestTitheStorePledgeAtomicity(t *testing.T) {
	pool, cleanup := mustTestPool(t)
	defer cleanup()
	ctx := context.Background()

	parishStore, err := NewParishStore(pool)
	require.NoError(t, err)
	store, err := NewTitheStore(pool)
	require.NoError(t, err)

	parish := seedParish(t, parishStore)

	pledger, err := store.CreatePledger(ctx, parish.ID, nil, "Maria Silva", "", "")
	require.NoError(t, err)

	amount := decimal.RequireFromString("150.00")
	start := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	pledge := Pledge{
		ID:            uuid.New(),
		PledgerID:     pledger.ID,
		ParishID:      parish.ID,
		StartsOn:      start,
		MonthlyAmount: amount,
		DueDay:        10,
	}

	created, saved, err := store.CreatePledge(ctx, pledge, monthlySchedule(start, 12, 10, amount))
	require.NoError(t, err)
	require.Len(t, saved, 12)
	require.True(t, created.MonthlyAmount.Equal(amount))

	// A batch with a duplicated competency month violates the per-pledge
	// uniqueness constraint. The whole insert rolls back, leaving no
	// orphan pledge behind.
	broken := monthlySchedule(start, 12, 10, amount)
	broken[5].Competency = broken[4].Competency
	bad := pledge
	bad.ID = uuid.New()
	_, _, err = store.CreatePledge(ctx, bad, broken)
	require.Error(t, err)
	_, err = store.GetPledge(ctx, bad.ID)
	require.ErrorIs(t, err, ErrPledgeNotFound)

	listed, err := store.ListInstallments(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, listed, 12)
	for i, inst := range listed {
		require.Equal(t, start.AddDate(0, i, 0), inst.Competency.UTC())
		require.Equal(t, InstallmentStatusOpen, inst.Status)
	}
}

func TestTitheStoreMarkPaidIdempotent(t *testing.T) {
	pool, cleanup := mustTestPool(t)
	defer cleanup()
	ctx := context.Background()

	parishStore, err := NewParishStore(pool)
	require.NoError(t, err)
	store, err := NewTitheStore(pool)
	require.NoError(t, err)

	parish := seedParish(t, parishStore)
	pledger, err := store.CreatePledger(ctx, parish.ID, nil, "José Souza", "", "")
	require.NoError(t, err)

	amount := decimal.RequireFromString("80.00")
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	pledge := Pledge{
		ID: uuid.New(), PledgerID: pledger.ID, ParishID: parish.ID,
		StartsOn: start, MonthlyAmount: amount, DueDay: 5,
	}
	_, saved, err := store.CreatePledge(ctx, pledge, monthlySchedule(start, 1, 5, amount))
	require.NoError(t, err)

	first := time.Date(2026, 1, 3, 12, 0, 0, 0, time.UTC)
	paid, err := store.MarkInstallmentPaid(ctx, saved[0].ID, first)
	require.NoError(t, err)
	require.Equal(t, InstallmentStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	// Paying again keeps the original timestamp.
	again, err := store.MarkInstallmentPaid(ctx, saved[0].ID, first.Add(48*time.Hour))
	require.NoError(t, err)
	require.Equal(t, InstallmentStatusPaid, again.Status)
	require.True(t, again.PaidAt.Equal(*paid.PaidAt))
}

func TestTitheStoreMarkOverdue(t *testing.T) {
	pool, cleanup := mustTestPool(t)
	defer cleanup()
	ctx := context.Background()

	parishStore, err := NewParishStore(pool)
	require.NoError(t, err)
	store, err := NewTitheStore(pool)
	require.NoError(t, err)

	parish := seedParish(t, parishStore)
	pledger, err := store.CreatePledger(ctx, parish.ID, nil, "Ana Lima", "", "")
	require.NoError(t, err)

	amount := decimal.RequireFromString("50.00")
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	pledge := Pledge{
		ID: uuid.New(), PledgerID: pledger.ID, ParishID: parish.ID,
		StartsOn: start, MonthlyAmount: amount, DueDay: 1,
	}
	created, _, err := store.CreatePledge(ctx, pledge, monthlySchedule(start, 2, 1, amount))
	require.NoError(t, err)

	changed, err := store.MarkOverdue(ctx, parish.ID, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.EqualValues(t, 1, changed)

	listed, err := store.ListInstallments(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, InstallmentStatusOverdue, listed[0].Status)
	require.Equal(t, InstallmentStatusOpen, listed[1].Status)
}
