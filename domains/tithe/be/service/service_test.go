package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/paroquiaemdia/parish-api/platform/go/parish"
	"github.com/paroquiaemdia/parish-api/platform/go/persistence"
)

type mockRepository struct {
	createPledgerFn    func(ctx context.Context, userID *string, name, phone, email string) (persistence.Pledger, error)
	getPledgerFn       func(ctx context.Context, id uuid.UUID) (persistence.Pledger, error)
	getPledgerByUserFn func(ctx context.Context, userID string) (persistence.Pledger, error)
	listPledgersFn     func(ctx context.Context) ([]persistence.Pledger, error)
	createPledgeFn     func(ctx context.Context, pledge persistence.Pledge, installments []persistence.Installment) (persistence.Pledge, []persistence.Installment, error)
	getPledgeFn        func(ctx context.Context, id uuid.UUID) (persistence.Pledge, error)
	listPledgesFn      func(ctx context.Context, pledgerID uuid.UUID) ([]persistence.Pledge, error)
	listInstallmentsFn func(ctx context.Context, pledgeID uuid.UUID) ([]persistence.Installment, error)
	getInstallmentFn   func(ctx context.Context, id uuid.UUID) (persistence.Installment, error)
	markPaidFn         func(ctx context.Context, id uuid.UUID, paidAt time.Time) (persistence.Installment, error)
	markOverdueFn      func(ctx context.Context, asOf time.Time) (int64, error)
	summarizeFn        func(ctx context.Context, year int) (persistence.TitheSummary, error)
}

func (m *mockRepository) CreatePledger(ctx context.Context, userID *string, name, phone, email string) (persistence.Pledger, error) {
	if m.createPledgerFn == nil {
		panic("createPledgerFn not configured")
	}
	return m.createPledgerFn(ctx, userID, name, phone, email)
}

func (m *mockRepository) GetPledger(ctx context.Context, id uuid.UUID) (persistence.Pledger, error) {
	if m.getPledgerFn == nil {
		panic("getPledgerFn not configured")
	}
	return m.getPledgerFn(ctx, id)
}

func (m *mockRepository) GetPledgerByUser(ctx context.Context, userID string) (persistence.Pledger, error) {
	if m.getPledgerByUserFn == nil {
		panic("getPledgerByUserFn not configured")
	}
	return m.getPledgerByUserFn(ctx, userID)
}

func (m *mockRepository) ListPledgers(ctx context.Context) ([]persistence.Pledger, error) {
	if m.listPledgersFn == nil {
		panic("listPledgersFn not configured")
	}
	return m.listPledgersFn(ctx)
}

func (m *mockRepository) CreatePledge(ctx context.Context, pledge persistence.Pledge, installments []persistence.Installment) (persistence.Pledge, []persistence.Installment, error) {
	if m.createPledgeFn == nil {
		panic("createPledgeFn not configured")
	}
	return m.createPledgeFn(ctx, pledge, installments)
}

func (m *mockRepository) GetPledge(ctx context.Context, id uuid.UUID) (persistence.Pledge, error) {
	if m.getPledgeFn == nil {
		panic("getPledgeFn not configured")
	}
	return m.getPledgeFn(ctx, id)
}

func (m *mockRepository) ListPledges(ctx context.Context, pledgerID uuid.UUID) ([]persistence.Pledge, error) {
	if m.listPledgesFn == nil {
		panic("listPledgesFn not configured")
	}
	return m.listPledgesFn(ctx, pledgerID)
}

func (m *mockRepository) ListInstallments(ctx context.Context, pledgeID uuid.UUID) ([]persistence.Installment, error) {
	if m.listInstallmentsFn == nil {
		panic("listInstallmentsFn not configured")
	}
	return m.listInstallmentsFn(ctx, pledgeID)
}

func (m *mockRepository) GetInstallment(ctx context.Context, id uuid.UUID) (persistence.Installment, error) {
	if m.getInstallmentFn == nil {
		panic("getInstallmentFn not configured")
	}
	return m.getInstallmentFn(ctx, id)
}

func (m *mockRepository) MarkInstallmentPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) (persistence.Installment, error) {
	if m.markPaidFn == nil {
		panic("markPaidFn not configured")
	}
	return m.markPaidFn(ctx, id, paidAt)
}

func (m *mockRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	if m.markOverdueFn == nil {
		panic("markOverdueFn not configured")
	}
	return m.markOverdueFn(ctx, asOf)
}

func (m *mockRepository) SummarizeYear(ctx context.Context, year int) (persistence.TitheSummary, error) {
	if m.summarizeFn == nil {
		panic("summarizeFn not configured")
	}
	return m.summarizeFn(ctx, year)
}

func scopedContext(role parish.Role, userID string) context.Context {
	return parish.WithScope(context.Background(), parish.Scope{
		Parish: parish.Info{ID: uuid.New(), Slug: "sao-joao", Status: "active"},
		Role:   role,
		UserID: userID,
	})
}

func TestGenerateScheduleStartsAtCurrentMonth(t *testing.T) {
	t.Parallel()

	amount := decimal.RequireFromString("150.00")
	start := time.Date(2026, time.August, 30, 15, 4, 0, 0, time.UTC)
	installments := GenerateSchedule(start, amount, 10)
	require.Len(t, installments, 12)

	// First competency is the month the plan was created in, then one
	// calendar month at a time across the year boundary.
	require.Equal(t, time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC), installments[0].Competency)
	require.Equal(t, time.Date(2027, time.July, 1, 0, 0, 0, 0, time.UTC), installments[11].Competency)
	for i, inst := range installments {
		require.Equal(t, installments[0].Competency.AddDate(0, i, 0), inst.Competency)
		require.True(t, inst.Amount.Equal(amount))
		require.Equal(t, 10, inst.DueDate.Day())
		require.Equal(t, inst.Competency.Month(), inst.DueDate.Month())
		require.Equal(t, inst.Competency.Year(), inst.DueDate.Year())
	}
}

func TestGenerateScheduleClampsDueDay(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC)
	installments := GenerateSchedule(start, decimal.RequireFromString("50.00"), 31)

	// 2026 is not a leap year: February ends on the 28th.
	require.Equal(t, 28, installments[1].DueDate.Day())
	require.Equal(t, 30, installments[3].DueDate.Day())
	require.Equal(t, 31, installments[0].DueDate.Day())
	require.Equal(t, 31, installments[11].DueDate.Day())

	// Starting in December 2027 crosses into leap-year February.
	leap := GenerateSchedule(time.Date(2027, time.December, 25, 0, 0, 0, 0, time.UTC),
		decimal.RequireFromString("50.00"), 31)
	require.Equal(t, time.Date(2028, time.February, 1, 0, 0, 0, 0, time.UTC), leap[2].Competency)
	require.Equal(t, 29, leap[2].DueDate.Day())
}

func TestCreatePledgeValidation(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{})
	ctx := scopedContext(parish.RoleStaff, "staff-1")

	_, _, err := svc.CreatePledge(ctx, CreatePledgeInput{})
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Contains(t, validationErr.Fields, "monthlyAmount")
	require.Contains(t, validationErr.Fields, "dueDay")
}

func TestCreatePledgePassesScheduleToRepo(t *testing.T) {
	t.Parallel()

	pledgerID := uuid.New()
	amount := decimal.RequireFromString("120.00")
	now := time.Date(2026, time.August, 30, 10, 0, 0, 0, time.UTC)
	repository := &mockRepository{
		getPledgerFn: func(ctx context.Context, id uuid.UUID) (persistence.Pledger, error) {
			return persistence.Pledger{ID: id, Name: "Maria"}, nil
		},
		createPledgeFn: func(ctx context.Context, pledge persistence.Pledge, installments []persistence.Installment) (persistence.Pledge, []persistence.Installment, error) {
			require.Len(t, installments, 12)
			require.Equal(t, time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC), pledge.StartsOn)
			require.Equal(t, pledge.StartsOn, installments[0].Competency)
			require.True(t, pledge.MonthlyAmount.Equal(amount))
			for _, inst := range installments {
				require.True(t, inst.Amount.Equal(amount))
			}
			return pledge, installments, nil
		},
	}

	svc := New(repository).(*service)
	svc.now = func() time.Time { return now }
	ctx := scopedContext(parish.RoleStaff, "staff-1")

	pledge, installments, err := svc.CreatePledge(ctx, CreatePledgeInput{
		PledgerID:     pledgerID,
		MonthlyAmount: amount,
		DueDay:        5,
	})
	require.NoError(t, err)
	require.Equal(t, pledgerID, pledge.PledgerID)
	require.Len(t, installments, 12)
}

func TestCreatePledgeRegistersCallerAsPledger(t *testing.T) {
	t.Parallel()

	amount := decimal.RequireFromString("75.00")
	pledgerID := uuid.New()
	repository := &mockRepository{
		createPledgerFn: func(ctx context.Context, userID *string, name, phone, email string) (persistence.Pledger, error) {
			require.NotNil(t, userID)
			require.Equal(t, "member-1", *userID)
			return persistence.Pledger{ID: pledgerID, UserID: userID, Name: name}, nil
		},
		createPledgeFn: func(ctx context.Context, pledge persistence.Pledge, installments []persistence.Installment) (persistence.Pledge, []persistence.Installment, error) {
			require.Equal(t, pledgerID, pledge.PledgerID)
			return pledge, installments, nil
		},
	}

	svc := New(repository)
	ctx := scopedContext(parish.RoleMember, "member-1")

	pledge, _, err := svc.CreatePledge(ctx, CreatePledgeInput{
		MonthlyAmount: amount,
		DueDay:        10,
	})
	require.NoError(t, err)
	require.Equal(t, pledgerID, pledge.PledgerID)
}

func TestCreatePledgeMemberCannotActForOthers(t *testing.T) {
	t.Parallel()

	other := "someone-else"
	repository := &mockRepository{
		getPledgerFn: func(ctx context.Context, id uuid.UUID) (persistence.Pledger, error) {
			return persistence.Pledger{ID: id, UserID: &other, Name: "Outro"}, nil
		},
	}

	svc := New(repository)
	ctx := scopedContext(parish.RoleMember, "member-1")

	_, _, err := svc.CreatePledge(ctx, CreatePledgeInput{
		PledgerID:     uuid.New(),
		MonthlyAmount: decimal.RequireFromString("10.00"),
		DueDay:        1,
	})
	require.ErrorIs(t, err, ErrForbidden)
}

func markPaidRepository(ownerID string) *mockRepository {
	pledgeID := uuid.New()
	pledgerID := uuid.New()
	return &mockRepository{
		getInstallmentFn: func(ctx context.Context, id uuid.UUID) (persistence.Installment, error) {
			return persistence.Installment{ID: id, PledgeID: pledgeID}, nil
		},
		getPledgeFn: func(ctx context.Context, id uuid.UUID) (persistence.Pledge, error) {
			return persistence.Pledge{ID: id, PledgerID: pledgerID}, nil
		},
		getPledgerFn: func(ctx context.Context, id uuid.UUID) (persistence.Pledger, error) {
			return persistence.Pledger{ID: id, UserID: &ownerID}, nil
		},
		markPaidFn: func(ctx context.Context, id uuid.UUID, paidAt time.Time) (persistence.Installment, error) {
			return persistence.Installment{ID: id, Status: persistence.InstallmentStatusPaid, PaidAt: &paidAt}, nil
		},
	}
}

func TestMarkPaidAllowsPledgeOwner(t *testing.T) {
	t.Parallel()

	svc := New(markPaidRepository("member-1"))
	ctx := scopedContext(parish.RoleMember, "member-1")

	inst, err := svc.MarkPaid(ctx, uuid.New())
	require.NoError(t, err)
	require.Equal(t, persistence.InstallmentStatusPaid, inst.Status)
}

func TestMarkPaidForbidsOtherMembers(t *testing.T) {
	t.Parallel()

	svc := New(markPaidRepository("someone-else"))
	ctx := scopedContext(parish.RoleMember, "member-1")

	_, err := svc.MarkPaid(ctx, uuid.New())
	require.ErrorIs(t, err, ErrForbidden)
}

func TestMarkPaidStaffOverride(t *testing.T) {
	t.Parallel()

	svc := New(markPaidRepository("someone-else"))
	ctx := scopedContext(parish.RoleStaff, "staff-1")

	_, err := svc.MarkPaid(ctx, uuid.New())
	require.NoError(t, err)
}

func TestSummaryMapsAggregates(t *testing.T) {
	t.Parallel()

	repository := &mockRepository{
		summarizeFn: func(ctx context.Context, year int) (persistence.TitheSummary, error) {
			require.Equal(t, 2026, year)
			return persistence.TitheSummary{
				PledgerCount:   4,
				ActivePledges:  3,
				PaidCount:      10,
				OpenCount:      22,
				OverdueCount:   4,
				CollectedTotal: decimal.RequireFromString("1500.00"),
			}, nil
		},
	}

	svc := New(repository)
	ctx := scopedContext(parish.RoleParishAdmin, "admin-1")

	summary, err := svc.Summary(ctx, 2026)
	require.NoError(t, err)
	require.Equal(t, 4, summary.PledgerCount)
	require.Equal(t, 3, summary.ActivePledges)
	require.True(t, summary.CollectedTotal.Equal(decimal.RequireFromString("1500.00")))
}

func TestSummaryForbiddenForMembers(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{})
	_, err := svc.Summary(scopedContext(parish.RoleMember, "member-1"), 2026)
	require.ErrorIs(t, err, ErrForbidden)
}
