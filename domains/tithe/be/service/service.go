package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/paroquiaemdia/parish-api/domains/tithe/be/repo"
	platformauth "github.com/paroquiaemdia/parish-api/platform/go/auth"
	"github.com/paroquiaemdia/parish-api/platform/go/parish"
	"github.com/paroquiaemdia/parish-api/platform/go/persistence"
)

// FieldErrors maps request fields to validation issues.
type FieldErrors map[string][]string

// ValidationError is returned when the input payload is invalid.
type ValidationError struct {
	Fields FieldErrors
}

func (v *ValidationError) Error() string {
	return "validation error"
}

// Domain sentinel errors.
var (
	ErrNotFound  = errors.New("tithe record not found")
	ErrForbidden = errors.New("operation not allowed for role")
)

// Pledger is the domain view of a registered tither.
type Pledger struct {
	ID        uuid.UUID
	UserID    *string
	Name      string
	Phone     string
	Email     string
	CreatedAt time.Time
}

// Pledge is a twelve-month commitment starting at the competency month the
// plan was created in.
type Pledge struct {
	ID            uuid.UUID
	PledgerID     uuid.UUID
	StartsOn      time.Time
	MonthlyAmount decimal.Decimal
	DueDay        int
	CreatedAt     time.Time
}

// Installment is one competency month of a pledge.
type Installment struct {
	ID         uuid.UUID
	Competency time.Time
	DueDate    time.Time
	Amount     decimal.Decimal
	Status     string
	PaidAt     *time.Time
}

// Summary carries parish-wide aggregates only. Individual amounts never
// appear in the admin dashboard view.
type Summary struct {
	Year           int
	PledgerCount   int
	ActivePledges  int
	PaidCount      int
	OpenCount      int
	OverdueCount   int
	CollectedTotal decimal.Decimal
}

// CreatePledgerInput registers a tither.
type CreatePledgerInput struct {
	UserID *string
	Name   string
	Phone  string
	Email  string
}

// CreatePledgeInput starts a twelve-month plan. PledgerID may be left zero
// when a member starts a plan for themselves; the pledger record is then
// created (or refreshed) from the caller's identity.
type CreatePledgeInput struct {
	PledgerID     uuid.UUID
	MonthlyAmount decimal.Decimal
	DueDay        int
}

// Service defines the business operations for the tithe domain.
type Service interface {
	CreatePledger(ctx context.Context, input CreatePledgerInput) (Pledger, error)
	ListPledgers(ctx context.Context) ([]Pledger, error)
	CreatePledge(ctx context.Context, input CreatePledgeInput) (Pledge, []Installment, error)
	ListInstallments(ctx context.Context, pledgeID uuid.UUID) ([]Installment, error)
	MyPledges(ctx context.Context) ([]Pledge, error)
	MarkPaid(ctx context.Context, installmentID uuid.UUID) (Installment, error)
	RefreshOverdue(ctx context.Context) (int64, error)
	Summary(ctx context.Context, year int) (Summary, error)
}

type service struct {
	repo repo.Repository
	now  func() time.Time
}

// New constructs a tithe Service backed by the provided repository.
func New(r repo.Repository) Service {
	if r == nil {
		panic("tithe repository is required")
	}
	return &service{repo: r, now: time.Now}
}

// GenerateSchedule produces the twelve monthly installments for a plan,
// anchored at start's month and rolling across the year boundary. The amount
// is snapshotted per installment, and a due day past a month's end lands on
// that month's last day.
func GenerateSchedule(start time.Time, monthlyAmount decimal.Decimal, dueDay int) []persistence.Installment {
	anchor := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)

	installments := make([]persistence.Installment, 0, 12)
	for i := 0; i < 12; i++ {
		competency := anchor.AddDate(0, i, 0)
		day := dueDay
		if last := lastDayOfMonth(competency.Year(), competency.Month()); day > last {
			day = last
		}
		installments = append(installments, persistence.Installment{
			ID:         uuid.New(),
			Competency: competency,
			DueDate:    time.Date(competency.Year(), competency.Month(), day, 0, 0, 0, 0, time.UTC),
			Amount:     monthlyAmount,
		})
	}
	return installments
}

func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (s *service) CreatePledger(ctx context.Context, input CreatePledgerInput) (Pledger, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return Pledger{}, err
	}

	fieldErrors := FieldErrors{}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		fieldErrors.add("name", "name is required")
	}

	// Members may register themselves; staff registers anyone.
	userID := input.UserID
	if !parish.CanManage(scope.Role) {
		if scope.UserID == "" {
			return Pledger{}, ErrForbidden
		}
		userID = &scope.UserID
	}

	if len(fieldErrors) > 0 {
		return Pledger{}, &ValidationError{Fields: fieldErrors}
	}

	record, err := s.repo.CreatePledger(ctx, userID, name, strings.TrimSpace(input.Phone), strings.TrimSpace(input.Email))
	if err != nil {
		return Pledger{}, mapPersistenceError(err)
	}
	return mapPledger(record), nil
}

func (s *service) ListPledgers(ctx context.Context) ([]Pledger, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	if !parish.CanManage(scope.Role) {
		return nil, ErrForbidden
	}

	records, err := s.repo.ListPledgers(ctx)
	if err != nil {
		return nil, mapPersistenceError(err)
	}
	out := make([]Pledger, 0, len(records))
	for _, record := range records {
		out = append(out, mapPledger(record))
	}
	return out, nil
}

func (s *service) CreatePledge(ctx context.Context, input CreatePledgeInput) (Pledge, []Installment, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return Pledge{}, nil, err
	}

	fieldErrors := FieldErrors{}
	if !input.MonthlyAmount.IsPositive() {
		fieldErrors.add("monthlyAmount", "monthlyAmount must be greater than zero")
	}
	if input.DueDay < 1 || input.DueDay > 31 {
		fieldErrors.add("dueDay", "dueDay must be between 1 and 31")
	}
	if len(fieldErrors) > 0 {
		return Pledge{}, nil, &ValidationError{Fields: fieldErrors}
	}

	var pledger persistence.Pledger
	if input.PledgerID == uuid.Nil {
		// Self-service plan: register the caller as a pledger on first
		// use. The upsert makes repeated registrations harmless.
		if scope.UserID == "" {
			return Pledge{}, nil, ErrForbidden
		}
		name := ""
		if creds, ok := platformauth.UserFromContext(ctx); ok && creds != nil && creds.Name != nil {
			name = *creds.Name
		}
		pledger, err = s.repo.CreatePledger(ctx, &scope.UserID, name, "", "")
		if err != nil {
			return Pledge{}, nil, mapPersistenceError(err)
		}
	} else {
		pledger, err = s.repo.GetPledger(ctx, input.PledgerID)
		if err != nil {
			return Pledge{}, nil, mapPersistenceError(err)
		}
		if !s.canActFor(scope, pledger) {
			return Pledge{}, nil, ErrForbidden
		}
	}

	installments := GenerateSchedule(s.now().UTC(), input.MonthlyAmount, input.DueDay)
	pledge := persistence.Pledge{
		ID:            uuid.New(),
		PledgerID:     pledger.ID,
		StartsOn:      installments[0].Competency,
		MonthlyAmount: input.MonthlyAmount,
		DueDay:        input.DueDay,
	}

	created, saved, err := s.repo.CreatePledge(ctx, pledge, installments)
	if err != nil {
		return Pledge{}, nil, mapPersistenceError(err)
	}

	out := make([]Installment, 0, len(saved))
	for _, inst := range saved {
		out = append(out, mapInstallment(inst))
	}
	return mapPledge(created), out, nil
}

func (s *service) ListInstallments(ctx context.Context, pledgeID uuid.UUID) ([]Installment, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}

	pledge, err := s.repo.GetPledge(ctx, pledgeID)
	if err != nil {
		return nil, mapPersistenceError(err)
	}
	pledger, err := s.repo.GetPledger(ctx, pledge.PledgerID)
	if err != nil {
		return nil, mapPersistenceError(err)
	}
	if !s.canActFor(scope, pledger) {
		return nil, ErrForbidden
	}

	records, err := s.repo.ListInstallments(ctx, pledgeID)
	if err != nil {
		return nil, mapPersistenceError(err)
	}
	out := make([]Installment, 0, len(records))
	for _, inst := range records {
		out = append(out, mapInstallment(inst))
	}
	return out, nil
}

func (s *service) MyPledges(ctx context.Context) ([]Pledge, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	if scope.UserID == "" {
		return nil, ErrForbidden
	}

	pledger, err := s.repo.GetPledgerByUser(ctx, scope.UserID)
	if err != nil {
		if errors.Is(err, persistence.ErrPledgerNotFound) {
			return []Pledge{}, nil
		}
		return nil, mapPersistenceError(err)
	}

	records, err := s.repo.ListPledges(ctx, pledger.ID)
	if err != nil {
		return nil, mapPersistenceError(err)
	}
	out := make([]Pledge, 0, len(records))
	for _, record := range records {
		out = append(out, mapPledge(record))
	}
	return out, nil
}

// MarkPaid records payment on one installment. The pledge's own holder may
// confirm their installment; staff may confirm anyone's. Repeating the call
// on a paid installment returns the unchanged record.
func (s *service) MarkPaid(ctx context.Context, installmentID uuid.UUID) (Installment, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return Installment{}, err
	}
	if installmentID == uuid.Nil {
		return Installment{}, ErrNotFound
	}

	inst, err := s.repo.GetInstallment(ctx, installmentID)
	if err != nil {
		return Installment{}, mapPersistenceError(err)
	}
	pledge, err := s.repo.GetPledge(ctx, inst.PledgeID)
	if err != nil {
		return Installment{}, mapPersistenceError(err)
	}
	pledger, err := s.repo.GetPledger(ctx, pledge.PledgerID)
	if err != nil {
		return Installment{}, mapPersistenceError(err)
	}
	if !s.canActFor(scope, pledger) {
		return Installment{}, ErrForbidden
	}

	record, err := s.repo.MarkInstallmentPaid(ctx, installmentID, s.now().UTC())
	if err != nil {
		return Installment{}, mapPersistenceError(err)
	}
	return mapInstallment(record), nil
}

func (s *service) RefreshOverdue(ctx context.Context) (int64, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return 0, err
	}
	if !parish.CanManage(scope.Role) {
		return 0, ErrForbidden
	}
	return s.repo.MarkOverdue(ctx, s.now().UTC())
}

func (s *service) Summary(ctx context.Context, year int) (Summary, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return Summary{}, err
	}
	if !parish.CanManage(scope.Role) {
		return Summary{}, ErrForbidden
	}
	if year == 0 {
		year = s.now().UTC().Year()
	}

	record, err := s.repo.SummarizeYear(ctx, year)
	if err != nil {
		return Summary{}, mapPersistenceError(err)
	}
	return Summary{
		Year:           year,
		PledgerCount:   record.PledgerCount,
		ActivePledges:  record.ActivePledges,
		PaidCount:      record.PaidCount,
		OpenCount:      record.OpenCount,
		OverdueCount:   record.OverdueCount,
		CollectedTotal: record.CollectedTotal,
	}, nil
}

// canActFor allows staff to manage any pledger and members to touch only the
// pledger record linked to their own user.
func (s *service) canActFor(scope parish.Scope, pledger persistence.Pledger) bool {
	if parish.CanManage(scope.Role) {
		return true
	}
	return pledger.UserID != nil && scope.UserID != "" && *pledger.UserID == scope.UserID
}

func requireScope(ctx context.Context) (parish.Scope, error) {
	scope, ok := parish.ScopeFromContext(ctx)
	if !ok {
		return parish.Scope{}, errors.New("parish scope missing from context")
	}
	return scope, nil
}

func mapPledger(record persistence.Pledger) Pledger {
	return Pledger{
		ID:        record.ID,
		UserID:    record.UserID,
		Name:      record.Name,
		Phone:     record.Phone,
		Email:     record.Email,
		CreatedAt: record.CreatedAt,
	}
}

func mapPledge(record persistence.Pledge) Pledge {
	return Pledge{
		ID:            record.ID,
		PledgerID:     record.PledgerID,
		StartsOn:      record.StartsOn,
		MonthlyAmount: record.MonthlyAmount,
		DueDay:        record.DueDay,
		CreatedAt:     record.CreatedAt,
	}
}

func mapInstallment(record persistence.Installment) Installment {
	return Installment{
		ID:         record.ID,
		Competency: record.Competency,
		DueDate:    record.DueDate,
		Amount:     record.Amount,
		Status:     record.Status,
		PaidAt:     record.PaidAt,
	}
}

func mapPersistenceError(err error) error {
	switch {
	case errors.Is(err, persistence.ErrPledgerNotFound),
		errors.Is(err, persistence.ErrPledgeNotFound),
		errors.Is(err, persistence.ErrInstallmentNotFound):
		return ErrNotFound
	default:
		return err
	}
}

func (f FieldErrors) add(field, message string) {
	if f == nil {
		return
	}
	f[field] = append(f[field], message)
}
