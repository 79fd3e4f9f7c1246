package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/paroquiaemdia/parish-api/domains/pos/be/service"
	"github.com/paroquiaemdia/parish-api/platform/go/persistence"
	"github.com/paroquiaemdia/parish-api/platform/go/problem"
)

// Handler exposes events, registers, products and orders over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("pos service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the event and point-of-sale endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/events", h.createEvent)
	r.Get("/events", h.listEvents)
	r.Delete("/events/{eventID}", h.deleteEvent)
	r.Post("/events/{eventID}/sales-points", h.createSalesPoint)
	r.Get("/events/{eventID}/sales-points", h.listSalesPoints)
	r.Post("/sales-points/{salesPointID}/products", h.createProduct)
	r.Get("/sales-points/{salesPointID}/products", h.listProducts)
	r.Patch("/products/{productID}/active", h.setProductActive)
	r.Post("/sales-points/{salesPointID}/orders", h.createOrder)
	r.Get("/sales-points/{salesPointID}/orders", h.listOrders)
	r.Get("/sales-points/{salesPointID}/summary", h.summary)
	r.Post("/orders/{orderID}/pay", h.payOrder)
	r.Post("/orders/{orderID}/deliver", h.deliverOrder)
	r.Post("/orders/{orderID}/cancel", h.cancelOrder)
}

type eventResponse struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	Category    string     `json:"category,omitempty"`
	StartsAt    time.Time  `json:"startsAt"`
	EndsAt      *time.Time `json:"endsAt,omitempty"`
	HasSales    bool       `json:"hasSales"`
}

type orderResponse struct {
	ID            uuid.UUID       `json:"id"`
	SalesPointID  uuid.UUID       `json:"salesPointId"`
	CustomerName  string          `json:"customerName,omitempty"`
	Status        string          `json:"status"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
	Total         decimal.Decimal `json:"total"`
	CreatedAt     time.Time       `json:"createdAt"`
	PaidAt        *time.Time      `json:"paidAt,omitempty"`
	DeliveredAt   *time.Time      `json:"deliveredAt,omitempty"`
}

func (h *Handler) createEvent(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title       string     `json:"title"`
		Description string     `json:"description"`
		Location    string     `json:"location"`
		Category    string     `json:"category"`
		StartsAt    time.Time  `json:"startsAt"`
		EndsAt      *time.Time `json:"endsAt"`
		HasSales    bool       `json:"hasSales"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		problem.BadRequest(w, "invalid request body")
		return
	}

	event, err := h.svc.CreateEvent(r.Context(), service.CreateEventInput{
		Title:       body.Title,
		Description: body.Description,
		Location:    body.Location,
		Category:    body.Category,
		StartsAt:    body.StartsAt,
		EndsAt:      body.EndsAt,
		HasSales:    body.HasSales,
	})
	if err != nil {
		h.writeError(w, "posCreateEvent", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventResponse(event))
}

func (h *Handler) listEvents(w http.ResponseWriter, r *http.Request) {
	salesOnly := r.URL.Query().Get("salesOnly") == "true"
	events, err := h.svc.ListEvents(r.Context(), salesOnly)
	if err != nil {
		h.writeError(w, "posListEvents", err)
		return
	}
	items := make([]eventResponse, 0, len(events))
	for _, e := range events {
		items = append(items, toEventResponse(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) deleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		problem.BadRequest(w, "invalid event id")
		return
	}
	if err := h.svc.DeleteEvent(r.Context(), eventID); err != nil {
		h.writeError(w, "posDeleteEvent", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) createSalesPoint(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		problem.BadRequest(w, "invalid event id")
		return
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		problem.BadRequest(w, "invalid request body")
		return
	}

	sp, err := h.svc.CreateSalesPoint(r.Context(), eventID, body.Name)
	if err != nil {
		h.writeError(w, "posCreateSalesPoint", err)
		return
	}
	writeJSON(w, http.StatusCreated, sp)
}

func (h *Handler) listSalesPoints(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		problem.BadRequest(w, "invalid event id")
		return
	}
	points, err := h.svc.ListSalesPoints(r.Context(), eventID)
	if err != nil {
		h.writeError(w, "posListSalesPoints", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": points})
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	salesPointID, err := uuid.Parse(chi.URLParam(r, "salesPointID"))
	if err != nil {
		problem.BadRequest(w, "invalid sales point id")
		return
	}
	var body struct {
		Name      string          `json:"name"`
		UnitPrice decimal.Decimal `json:"unitPrice"`
		Stock     *int            `json:"stock"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		problem.BadRequest(w, "invalid request body")
		return
	}

	product, err := h.svc.CreateProduct(r.Context(), service.CreateProductInput{
		SalesPointID: salesPointID,
		Name:         body.Name,
		UnitPrice:    body.UnitPrice,
		Stock:        body.Stock,
	})
	if err != nil {
		h.writeError(w, "posCreateProduct", err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	salesPointID, err := uuid.Parse(chi.URLParam(r, "salesPointID"))
	if err != nil {
		problem.BadRequest(w, "invalid sales point id")
		return
	}
	products, err := h.svc.ListProducts(r.Context(), salesPointID)
	if err != nil {
		h.writeError(w, "posListProducts", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": products})
}

func (h *Handler) setProductActive(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		problem.BadRequest(w, "invalid product id")
		return
	}
	var body struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		problem.BadRequest(w, "invalid request body")
		return
	}

	product, err := h.svc.SetProductActive(r.Context(), productID, body.Active)
	if err != nil {
		h.writeError(w, "posSetProductActive", err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	salesPointID, err := uuid.Parse(chi.URLParam(r, "salesPointID"))
	if err != nil {
		problem.BadRequest(w, "invalid sales point id")
		return
	}
	var body struct {
		CustomerName string `json:"customerName"`
		Lines        []struct {
			ProductID uuid.UUID `json:"productId"`
			Quantity  int       `json:"quantity"`
		} `json:"lines"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		problem.BadRequest(w, "invalid request body")
		return
	}

	// The cart merges duplicate product lines before the order is placed.
	var cart service.Cart
	for _, line := range body.Lines {
		cart.Add(line.ProductID, line.Quantity)
	}

	order, items, err := h.svc.CreateOrder(r.Context(), service.CreateOrderInput{
		SalesPointID: salesPointID,
		CustomerName: body.CustomerName,
		Lines:        cart.Lines(),
	})
	if err != nil {
		h.writeError(w, "posCreateOrder", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"order": toOrderResponse(order),
		"items": items,
	})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	salesPointID, err := uuid.Parse(chi.URLParam(r, "salesPointID"))
	if err != nil {
		problem.BadRequest(w, "invalid sales point id")
		return
	}
	status := r.URL.Query().Get("status")
	switch status {
	case "", persistence.OrderStatusOpen, persistence.OrderStatusPaid,
		persistence.OrderStatusDelivered, persistence.OrderStatusCancelled:
	default:
		problem.BadRequest(w, "invalid status filter")
		return
	}

	orders, err := h.svc.ListOrders(r.Context(), salesPointID, status)
	if err != nil {
		h.writeError(w, "posListOrders", err)
		return
	}
	items := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		items = append(items, toOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	salesPointID, err := uuid.Parse(chi.URLParam(r, "salesPointID"))
	if err != nil {
		problem.BadRequest(w, "invalid sales point id")
		return
	}

	summary, err := h.svc.SummarizeSalesPoint(r.Context(), salesPointID)
	if err != nil {
		h.writeError(w, "posSummary", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"orderCount":        summary.OrderCount,
		"paidCount":         summary.PaidCount,
		"deliveredCount":    summary.DeliveredCount,
		"openCount":         summary.OpenCount,
		"cancelledCount":    summary.CancelledCount,
		"totalRevenue":      summary.TotalRevenue,
		"averageOrderValue": summary.AverageOrderValue,
		"byMethod":          summary.ByMethod,
	})
}

func (h *Handler) payOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		problem.BadRequest(w, "invalid order id")
		return
	}
	var body struct {
		PaymentMethod string `json:"paymentMethod"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		problem.BadRequest(w, "invalid request body")
		return
	}

	order, err := h.svc.PayOrder(r.Context(), orderID, body.PaymentMethod)
	if err != nil {
		h.writeError(w, "posPayOrder", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) deliverOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		problem.BadRequest(w, "invalid order id")
		return
	}
	order, err := h.svc.DeliverOrder(r.Context(), orderID)
	if err != nil {
		h.writeError(w, "posDeliverOrder", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		problem.BadRequest(w, "invalid order id")
		return
	}
	order, err := h.svc.CancelOrder(r.Context(), orderID)
	if err != nil {
		h.writeError(w, "posCancelOrder", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) writeError(w http.ResponseWriter, operation string, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		problem.Validation(w, validationErr.Fields)
	case errors.Is(err, service.ErrNotFound):
		problem.NotFound(w, "record not found")
	case errors.Is(err, service.ErrOutOfStock):
		problem.Conflict(w, "insufficient stock for one or more items")
	case errors.Is(err, service.ErrForbidden):
		problem.Forbidden(w, "role does not allow this operation")
	default:
		problem.Internal(w, h.logger, operation, err)
	}
}

func toEventResponse(e service.Event) eventResponse {
	return eventResponse{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		Category:    e.Category,
		StartsAt:    e.StartsAt,
		EndsAt:      e.EndsAt,
		HasSales:    e.HasSales,
	}
}

func toOrderResponse(o service.Order) orderResponse {
	return orderResponse{
		ID:            o.ID,
		SalesPointID:  o.SalesPointID,
		CustomerName:  o.CustomerName,
		Status:        o.Status,
		PaymentMethod: o.PaymentMethod,
		Total:         o.Total,
		CreatedAt:     o.CreatedAt,
		PaidAt:        o.PaidAt,
		DeliveredAt:   o.DeliveredAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
