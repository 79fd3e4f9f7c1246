package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/paroquiaemdia/parish-api/domains/tithe/be/service"
	"github.com/paroquiaemdia/parish-api/platform/go/problem"
)

// Handler exposes the tithe domain over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("tithe service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the tithe endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/pledgers", h.createPledger)
	r.Get("/pledgers", h.listPledgers)
	r.Post("/pledges", h.createPledge)
	r.Get("/pledges/mine", h.myPledges)
	r.Get("/pledges/{pledgeID}/installments", h.listInstallments)
	r.Post("/installments/{installmentID}/pay", h.markPaid)
	r.Post("/installments/refresh-overdue", h.refreshOverdue)
	r.Get("/summary", h.summary)
}

type pledgerResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type pledgeResponse struct {
	ID            uuid.UUID       `json:"id"`
	PledgerID     uuid.UUID       `json:"pledgerId"`
	StartsOn      string          `json:"startsOn"`
	MonthlyAmount decimal.Decimal `json:"monthlyAmount"`
	DueDay        int             `json:"dueDay"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type installmentResponse struct {
	ID         uuid.UUID       `json:"id"`
	Competency string          `json:"competency"`
	DueDate    string          `json:"dueDate"`
	Amount     decimal.Decimal `json:"amount"`
	Status     string          `json:"status"`
	PaidAt     *time.Time      `json:"paidAt,omitempty"`
}

func (h *Handler) createPledger(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID *string `json:"userId"`
		Name   string  `json:"name"`
		Phone  string  `json:"phone"`
		Email  string  `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		problem.BadRequest(w, "invalid request body")
		return
	}

	created, err := h.svc.CreatePledger(r.Context(), service.CreatePledgerInput{
		UserID: body.UserID,
		Name:   body.Name,
		Phone:  body.Phone,
		Email:  body.Email,
	})
	if err != nil {
		h.writeError(w, "titheCreatePledger", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPledgerResponse(created))
}

func (h *Handler) listPledgers(w http.ResponseWriter, r *http.Request) {
	pledgers, err := h.svc.ListPledgers(r.Context())
	if err != nil {
		h.writeError(w, "titheListPledgers", err)
		return
	}
	items := make([]pledgerResponse, 0, len(pledgers))
	for _, p := range pledgers {
		items = append(items, toPledgerResponse(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) createPledge(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PledgerID     uuid.UUID       `json:"pledgerId"`
		MonthlyAmount decimal.Decimal `json:"monthlyAmount"`
		DueDay        int             `json:"dueDay"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		problem.BadRequest(w, "invalid request body")
		return
	}

	pledge, installments, err := h.svc.CreatePledge(r.Context(), service.CreatePledgeInput{
		PledgerID:     body.PledgerID,
		MonthlyAmount: body.MonthlyAmount,
		DueDay:        body.DueDay,
	})
	if err != nil {
		h.writeError(w, "titheCreatePledge", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"pledge":       toPledgeResponse(pledge),
		"installments": toInstallmentResponses(installments),
	})
}

func (h *Handler) myPledges(w http.ResponseWriter, r *http.Request) {
	pledges, err := h.svc.MyPledges(r.Context())
	if err != nil {
		h.writeError(w, "titheMyPledges", err)
		return
	}
	items := make([]pledgeResponse, 0, len(pledges))
	for _, p := range pledges {
		items = append(items, toPledgeResponse(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) listInstallments(w http.ResponseWriter, r *http.Request) {
	pledgeID, err := uuid.Parse(chi.URLParam(r, "pledgeID"))
	if err != nil {
		problem.BadRequest(w, "invalid pledge id")
		return
	}

	installments, err := h.svc.ListInstallments(r.Context(), pledgeID)
	if err != nil {
		h.writeError(w, "titheListInstallments", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": toInstallmentResponses(installments)})
}

func (h *Handler) markPaid(w http.ResponseWriter, r *http.Request) {
	installmentID, err := uuid.Parse(chi.URLParam(r, "installmentID"))
	if err != nil {
		problem.BadRequest(w, "invalid installment id")
		return
	}

	inst, err := h.svc.MarkPaid(r.Context(), installmentID)
	if err != nil {
		h.writeError(w, "titheMarkPaid", err)
		return
	}
	writeJSON(w, http.StatusOK, toInstallmentResponse(inst))
}

func (h *Handler) refreshOverdue(w http.ResponseWriter, r *http.Request) {
	changed, err := h.svc.RefreshOverdue(r.Context())
	if err != nil {
		h.writeError(w, "titheRefreshOverdue", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": changed})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	year := 0
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			problem.BadRequest(w, "invalid year")
			return
		}
		year = parsed
	}

	summary, err := h.svc.Summary(r.Context(), year)
	if err != nil {
		h.writeError(w, "titheSummary", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"year":           summary.Year,
		"pledgerCount":   summary.PledgerCount,
		"activePledges":  summary.ActivePledges,
		"paidCount":      summary.PaidCount,
		"openCount":      summary.OpenCount,
		"overdueCount":   summary.OverdueCount,
		"collectedTotal": summary.CollectedTotal,
	})
}

func (h *Handler) writeError(w http.ResponseWriter, operation string, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		problem.Validation(w, validationErr.Fields)
	case errors.Is(err, service.ErrNotFound):
		problem.NotFound(w, "record not found")
	case errors.Is(err, service.ErrForbidden):
		problem.Forbidden(w, "role does not allow this operation")
	default:
		problem.Internal(w, h.logger, operation, err)
	}
}

func toPledgerResponse(p service.Pledger) pledgerResponse {
	return pledgerResponse{ID: p.ID, Name: p.Name, Phone: p.Phone, Email: p.Email, CreatedAt: p.CreatedAt}
}

func toPledgeResponse(p service.Pledge) pledgeResponse {
	return pledgeResponse{
		ID:            p.ID,
		PledgerID:     p.PledgerID,
		StartsOn:      p.StartsOn.Format("2006-01-02"),
		MonthlyAmount: p.MonthlyAmount,
		DueDay:        p.DueDay,
		CreatedAt:     p.CreatedAt,
	}
}

func toInstallmentResponse(inst service.Installment) installmentResponse {
	return installmentResponse{
		ID:         inst.ID,
		Competency: inst.Competency.Format("2006-01"),
		DueDate:    inst.DueDate.Format("2006-01-02"),
		Amount:     inst.Amount,
		Status:     inst.Status,
		PaidAt:     inst.PaidAt,
	}
}

func toInstallmentResponses(installments []service.Installment) []installmentResponse {
	out := make([]installmentResponse, 0, len(installments))
	for _, inst := range installments {
		out = append(out, toInstallmentResponse(inst))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
