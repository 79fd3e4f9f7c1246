package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/paroquiaemdia/parish-api/domains/pos/be/repo"
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
	ErrNotFound   = errors.New("pos record not found")
	ErrForbidden  = errors.New("operation not allowed for role")
	ErrOutOfStock = errors.New("insufficient stock")
)

// Payment methods accepted at a register.
var paymentMethods = map[string]struct{}{
	"cash": {},
	"card": {},
	"pix":  {},
}

// Event is the domain view of a parish event.
type Event struct {
	ID          uuid.UUID
	Title       string
	Description string
	Location    string
	Category    string
	StartsAt    time.Time
	EndsAt      *time.Time
	HasSales    bool
	CreatedAt   time.Time
}

// SalesPoint is one register at an event.
type SalesPoint struct {
	ID        uuid.UUID
	EventID   uuid.UUID
	Name      string
	CreatedAt time.Time
}

// Product is one sellable item. Stock nil means untracked.
type Product struct {
	ID        uuid.UUID
	Name      string
	UnitPrice decimal.Decimal
	Stock     *int
	Active    bool
}

// Order is a register sale with its snapshot totals.
type Order struct {
	ID            uuid.UUID
	SalesPointID  uuid.UUID
	OperatorID    string
	CustomerName  string
	Status        string
	PaymentMethod string
	Total         decimal.Decimal
	CreatedAt     time.Time
	PaidAt        *time.Time
	DeliveredAt   *time.Time
}

// OrderItem is one line of an order.
type OrderItem struct {
	ProductID   uuid.UUID
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
	Subtotal    decimal.Decimal
}

// Cart accumulates requested lines before an order is placed. Adding a
// product that is already in the cart merges into one line.
type Cart struct {
	lines []persistence.OrderLine
}

// Add merges quantity into the product's existing line or appends a new one.
func (c *Cart) Add(productID uuid.UUID, quantity int) {
	if quantity <= 0 {
		return
	}
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines[i].Quantity += quantity
			return
		}
	}
	c.lines = append(c.lines, persistence.OrderLine{ProductID: productID, Quantity: quantity})
}

// Decrement lowers the product's quantity by one. The line is removed when
// the quantity would fall below one.
func (c *Cart) Decrement(productID uuid.UUID) {
	for i := range c.lines {
		if c.lines[i].ProductID != productID {
			continue
		}
		if c.lines[i].Quantity <= 1 {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
		} else {
			c.lines[i].Quantity--
		}
		return
	}
}

// Remove drops a product's line entirely.
func (c *Cart) Remove(productID uuid.UUID) {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

// Lines returns the accumulated order lines in insertion order.
func (c *Cart) Lines() []persistence.OrderLine {
	return c.lines
}

// Summary aggregates a register's sales for the dashboard.
type Summary struct {
	OrderCount        int
	PaidCount         int
	DeliveredCount    int
	OpenCount         int
	CancelledCount    int
	TotalRevenue      decimal.Decimal
	AverageOrderValue decimal.Decimal
	ByMethod          map[string]decimal.Decimal
}

// Summarize folds a set of orders into dashboard numbers. Revenue counts
// paid and delivered orders only, while OrderCount covers every order passed
// in regardless of status. An empty input yields zeros, never a division
// error.
func Summarize(orders []Order) Summary {
	summary := Summary{
		TotalRevenue:      decimal.Zero,
		AverageOrderValue: decimal.Zero,
		ByMethod:          map[string]decimal.Decimal{},
	}

	for _, order := range orders {
		summary.OrderCount++
		switch order.Status {
		case persistence.OrderStatusCancelled:
			summary.CancelledCount++
		case persistence.OrderStatusOpen:
			summary.OpenCount++
		case persistence.OrderStatusPaid:
			summary.PaidCount++
		case persistence.OrderStatusDelivered:
			summary.DeliveredCount++
		}

		if order.Status == persistence.OrderStatusPaid || order.Status == persistence.OrderStatusDelivered {
			summary.TotalRevenue = summary.TotalRevenue.Add(order.Total)

			method := order.PaymentMethod
			if method == "" {
				method = "unspecified"
			}
			summary.ByMethod[method] = summary.ByMethod[method].Add(order.Total)
		}
	}

	if summary.OrderCount > 0 {
		summary.AverageOrderValue = summary.TotalRevenue.
			Div(decimal.NewFromInt(int64(summary.OrderCount))).Round(2)
	}
	return summary
}

// CreateEventInput carries the fields for a new event.
type CreateEventInput struct {
	Title       string
	Description string
	Location    string
	Category    string
	StartsAt    time.Time
	EndsAt      *time.Time
	HasSales    bool
}

// CreateProductInput carries the fields for a new product.
type CreateProductInput struct {
	SalesPointID uuid.UUID
	Name         string
	UnitPrice    decimal.Decimal
	Stock        *int
}

// CreateOrderInput carries the register sale request.
type CreateOrderInput struct {
	SalesPointID uuid.UUID
	CustomerName string
	Lines        []persistence.OrderLine
}

// Service defines the business operations for the pos domain.
type Service interface {
	CreateEvent(ctx context.Context, input CreateEventInput) (Event, error)
	ListEvents(ctx context.Context, salesOnly bool) ([]Event, error)
	DeleteEvent(ctx context.Context, id uuid.UUID) error
	CreateSalesPoint(ctx context.Context, eventID uuid.UUID, name string) (SalesPoint, error)
	ListSalesPoints(ctx context.Context, eventID uuid.UUID) ([]SalesPoint, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (Product, error)
	ListProducts(ctx context.Context, salesPointID uuid.UUID) ([]Product, error)
	SetProductActive(ctx context.Context, id uuid.UUID, active bool) (Product, error)
	CreateOrder(ctx context.Context, input CreateOrderInput) (Order, []OrderItem, error)
	ListOrders(ctx context.Context, salesPointID uuid.UUID, status string) ([]Order, error)
	PayOrder(ctx context.Context, id uuid.UUID, paymentMethod string) (Order, error)
	DeliverOrder(ctx context.Context, id uuid.UUID) (Order, error)
	CancelOrder(ctx context.Context, id uuid.UUID) (Order, error)
	SummarizeSalesPoint(ctx context.Context, salesPointID uuid.UUID) (Summary, error)
}

type service struct {
	repo repo.Repository
}

// New constructs a pos Service backed by the provided repository.
func New(r repo.Repository) Service {
	if r == nil {
		panic("pos repository is required")
	}
	return &service{repo: r}
}

func (s *service) CreateEvent(ctx context.Context, input CreateEventInput) (Event, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return Event{}, err
	}
	if !parish.CanManage(scope.Role) {
		return Event{}, ErrForbidden
	}

	fieldErrors := FieldErrors{}
	if strings.TrimSpace(input.Title) == "" {
		fieldErrors.add("title", "title is required")
	}
	if input.StartsAt.IsZero() {
		fieldErrors.add("startsAt", "startsAt is required")
	}
	if input.EndsAt != nil && input.EndsAt.Before(input.StartsAt) {
		fieldErrors.add("endsAt", "endsAt must be after startsAt")
	}
	if len(fieldErrors) > 0 {
		return Event{}, &ValidationError{Fields: fieldErrors}
	}

	record, err := s.repo.CreateEvent(ctx, persistence.CreateEventParams{
		Title:       input.Title,
		Description: input.Description,
		Location:    input.Location,
		Category:    input.Category,
		StartsAt:    input.StartsAt,
		EndsAt:      input.EndsAt,
		HasSales:    input.HasSales,
	})
	if err != nil {
		return Event{}, mapPersistenceError(err)
	}
	return mapEvent(record), nil
}

func (s *service) ListEvents(ctx context.Context, salesOnly bool) ([]Event, error) {
	records, err := s.repo.ListEvents(ctx, salesOnly)
	if err != nil {
		return nil, mapPersistenceError(err)
	}
	out := make([]Event, 0, len(records))
	for _, record := range records {
		out = append(out, mapEvent(record))
	}
	return out, nil
}

func (s *service) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	scope, err := requireScope(ctx)
	if err != nil {
		return err
	}
	if !parish.CanManage(scope.Role) {
		return ErrForbidden
	}
	return mapPersistenceError(s.repo.DeleteEvent(ctx, id))
}

func (s *service) CreateSalesPoint(ctx context.Context, eventID uuid.UUID, name string) (SalesPoint, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return SalesPoint{}, err
	}
	if !parish.CanManage(scope.Role) {
		return SalesPoint{}, ErrForbidden
	}
	if strings.TrimSpace(name) == "" {
		return SalesPoint{}, &ValidationError{Fields: FieldErrors{"name": {"name is required"}}}
	}

	record, err := s.repo.CreateSalesPoint(ctx, eventID, name)
	if err != nil {
		return SalesPoint{}, mapPersistenceError(err)
	}
	return mapSalesPoint(record), nil
}

func (s *service) ListSalesPoints(ctx context.Context, eventID uuid.UUID) ([]SalesPoint, error) {
	records, err := s.repo.ListSalesPoints(ctx, eventID)
	if err != nil {
		return nil, mapPersistenceError(err)
	}
	out := make([]SalesPoint, 0, len(records))
	for _, record := range records {
		out = append(out, mapSalesPoint(record))
	}
	return out, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (Product, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return Product{}, err
	}
	if !parish.CanManage(scope.Role) {
		return Product{}, ErrForbidden
	}

	fieldErrors := FieldErrors{}
	if strings.TrimSpace(input.Name) == "" {
		fieldErrors.add("name", "name is required")
	}
	if !input.UnitPrice.IsPositive() {
		fieldErrors.add("unitPrice", "unitPrice must be greater than zero")
	}
	if input.Stock != nil && *input.Stock < 0 {
		fieldErrors.add("stock", "stock cannot be negative")
	}
	if len(fieldErrors) > 0 {
		return Product{}, &ValidationError{Fields: fieldErrors}
	}

	record, err := s.repo.CreateProduct(ctx, persistence.CreateProductParams{
		SalesPointID: input.SalesPointID,
		Name:         input.Name,
		UnitPrice:    input.UnitPrice,
		Stock:        input.Stock,
	})
	if err != nil {
		return Product{}, mapPersistenceError(err)
	}
	return mapProduct(record), nil
}

func (s *service) ListProducts(ctx context.Context, salesPointID uuid.UUID) ([]Product, error) {
	records, err := s.repo.ListProducts(ctx, salesPointID)
	if err != nil {
		return nil, mapPersistenceError(err)
	}
	out := make([]Product, 0, len(records))
	for _, record := range records {
		out = append(out, mapProduct(record))
	}
	return out, nil
}

func (s *service) SetProductActive(ctx context.Context, id uuid.UUID, active bool) (Product, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return Product{}, err
	}
	if !parish.CanManage(scope.Role) {
		return Product{}, ErrForbidden
	}

	record, err := s.repo.SetProductActive(ctx, id, active)
	if err != nil {
		return Product{}, mapPersistenceError(err)
	}
	return mapProduct(record), nil
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (Order, []OrderItem, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return Order{}, nil, err
	}
	if !parish.CanOperatePos(scope.Role) {
		return Order{}, nil, ErrForbidden
	}
	if len(input.Lines) == 0 {
		return Order{}, nil, &ValidationError{Fields: FieldErrors{"lines": {"at least one line is required"}}}
	}

	order, items, err := s.repo.CreateOrder(ctx, input.SalesPointID, scope.UserID, strings.TrimSpace(input.CustomerName), input.Lines)
	if err != nil {
		return Order{}, nil, mapPersistenceError(err)
	}

	out := make([]OrderItem, 0, len(items))
	for _, item := range items {
		out = append(out, mapOrderItem(item))
	}
	return mapOrder(order), out, nil
}

func (s *service) ListOrders(ctx context.Context, salesPointID uuid.UUID, status string) ([]Order, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	if !parish.CanOperatePos(scope.Role) {
		return nil, ErrForbidden
	}

	records, err := s.repo.ListOrders(ctx, salesPointID, status)
	if err != nil {
		return nil, mapPersistenceError(err)
	}
	out := make([]Order, 0, len(records))
	for _, record := range records {
		out = append(out, mapOrder(record))
	}
	return out, nil
}

func (s *service) PayOrder(ctx context.Context, id uuid.UUID, paymentMethod string) (Order, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return Order{}, err
	}
	if !parish.CanOperatePos(scope.Role) {
		return Order{}, ErrForbidden
	}
	if _, ok := paymentMethods[paymentMethod]; !ok {
		return Order{}, &ValidationError{Fields: FieldErrors{"paymentMethod": {"paymentMethod must be cash, card or pix"}}}
	}

	record, err := s.repo.PayOrder(ctx, id, paymentMethod)
	if err != nil {
		return Order{}, mapPersistenceError(err)
	}
	return mapOrder(record), nil
}

func (s *service) DeliverOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return Order{}, err
	}
	if !parish.CanOperatePos(scope.Role) {
		return Order{}, ErrForbidden
	}

	record, err := s.repo.DeliverOrder(ctx, id)
	if err != nil {
		return Order{}, mapPersistenceError(err)
	}
	return mapOrder(record), nil
}

func (s *service) CancelOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return Order{}, err
	}
	if !parish.CanOperatePos(scope.Role) {
		return Order{}, ErrForbidden
	}

	record, err := s.repo.CancelOrder(ctx, id)
	if err != nil {
		return Order{}, mapPersistenceError(err)
	}
	return mapOrder(record), nil
}

func (s *service) SummarizeSalesPoint(ctx context.Context, salesPointID uuid.UUID) (Summary, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return Summary{}, err
	}
	if !parish.CanOperatePos(scope.Role) {
		return Summary{}, ErrForbidden
	}

	records, err := s.repo.ListOrders(ctx, salesPointID, "")
	if err != nil {
		return Summary{}, mapPersistenceError(err)
	}
	orders := make([]Order, 0, len(records))
	for _, record := range records {
		orders = append(orders, mapOrder(record))
	}
	return Summarize(orders), nil
}

func requireScope(ctx context.Context) (parish.Scope, error) {
	scope, ok := parish.ScopeFromContext(ctx)
	if !ok {
		return parish.Scope{}, errors.New("parish scope missing from context")
	}
	return scope, nil
}

func mapEvent(record persistence.Event) Event {
	return Event{
		ID:          record.ID,
		Title:       record.Title,
		Description: record.Description,
		Location:    record.Location,
		Category:    record.Category,
		StartsAt:    record.StartsAt,
		EndsAt:      record.EndsAt,
		HasSales:    record.HasSales,
		CreatedAt:   record.CreatedAt,
	}
}

func mapSalesPoint(record persistence.SalesPoint) SalesPoint {
	return SalesPoint{ID: record.ID, EventID: record.EventID, Name: record.Name, CreatedAt: record.CreatedAt}
}

func mapProduct(record persistence.Product) Product {
	return Product{
		ID:        record.ID,
		Name:      record.Name,
		UnitPrice: record.UnitPrice,
		Stock:     record.Stock,
		Active:    record.Active,
	}
}

func mapOrder(record persistence.Order) Order {
	return Order{
		ID:            record.ID,
		SalesPointID:  record.SalesPointID,
		OperatorID:    record.OperatorID,
		CustomerName:  record.CustomerName,
		Status:        record.Status,
		PaymentMethod: record.PaymentMethod,
		Total:         record.Total,
		CreatedAt:     record.CreatedAt,
		PaidAt:        record.PaidAt,
		DeliveredAt:   record.DeliveredAt,
	}
}

func mapOrderItem(record persistence.OrderItem) OrderItem {
	return OrderItem{
		ProductID:   record.ProductID,
		ProductName: record.ProductName,
		UnitPrice:   record.UnitPrice,
		Quantity:    record.Quantity,
		Subtotal:    record.Subtotal,
	}
}

func mapPersistenceError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrEventNotFound),
		errors.Is(err, persistence.ErrSalesPointNotFound),
		errors.Is(err, persistence.ErrProductNotFound),
		errors.Is(err, persistence.ErrOrderNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrOutOfStock):
		return ErrOutOfStock
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
