package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/paroquiaemdia/parish-api/domains/intentions/be/service"
	"github.com/paroquiaemdia/parish-api/platform/go/problem"
)

// Handler exposes mass intentions over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("intentions service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the intention endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Post("/{intentionID}/moderate", h.moderate)
	r.Delete("/{intentionID}", h.delete)
	r.Get("/ledger", h.ledger)
}

type intentionResponse struct {
	ID             uuid.UUID `json:"id"`
	RequesterName  string    `json:"requesterName,omitempty"`
	Intention      string    `json:"intention"`
	Category       string    `json:"category"`
	MassDate       *string   `json:"massDate,omitempty"`
	MassTime       string    `json:"massTime,omitempty"`
	Status         string    `json:"status"`
	ModerationNote string    `json:"moderationNote,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RequesterName string `json:"requesterName"`
		Intention     string `json:"intention"`
		Category      string `json:"category"`
		MassDate      string `json:"massDate"`
		MassTime      string `json:"massTime"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		problem.BadRequest(w, "invalid request body")
		return
	}

	var massDate *time.Time
	if body.MassDate != "" {
		parsed, err := time.Parse("2006-01-02", body.MassDate)
		if err != nil {
			problem.BadRequest(w, "massDate must be YYYY-MM-DD")
			return
		}
		massDate = &parsed
	}

	created, err := h.svc.Create(r.Context(), service.CreateInput{
		RequesterName: body.RequesterName,
		Intention:     body.Intention,
		Category:      body.Category,
		MassDate:      massDate,
		MassTime:      body.MassTime,
	})
	if err != nil {
		h.writeError(w, "intentionsCreate", err)
		return
	}
	writeJSON(w, http.StatusCreated, toIntentionResponse(created))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	input := service.ListInput{
		Mine:   query.Get("mine") == "true",
		Status: query.Get("status"),
	}
	if raw := query.Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			problem.BadRequest(w, "date must be YYYY-MM-DD")
			return
		}
		input.MassDate = &parsed
	}

	intentions, err := h.svc.List(r.Context(), input)
	if err != nil {
		h.writeError(w, "intentionsList", err)
		return
	}
	items := make([]intentionResponse, 0, len(intentions))
	for _, intention := range intentions {
		items = append(items, toIntentionResponse(intention))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) moderate(w http.ResponseWriter, r *http.Request) {
	intentionID, err := uuid.Parse(chi.URLParam(r, "intentionID"))
	if err != nil {
		problem.BadRequest(w, "invalid intention id")
		return
	}
	var body struct {
		Approve bool   `json:"approve"`
		Note    string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		problem.BadRequest(w, "invalid request body")
		return
	}

	moderated, err := h.svc.Moderate(r.Context(), intentionID, body.Approve, body.Note)
	if err != nil {
		h.writeError(w, "intentionsModerate", err)
		return
	}
	writeJSON(w, http.StatusOK, toIntentionResponse(moderated))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	intentionID, err := uuid.Parse(chi.URLParam(r, "intentionID"))
	if err != nil {
		problem.BadRequest(w, "invalid intention id")
		return
	}
	if err := h.svc.Delete(r.Context(), intentionID); err != nil {
		h.writeError(w, "intentionsDelete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ledger serves the printable HTML sheet for one mass date.
func (h *Handler) ledger(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		problem.BadRequest(w, "date is required")
		return
	}
	massDate, err := time.Parse("2006-01-02", raw)
	if err != nil {
		problem.BadRequest(w, "date must be YYYY-MM-DD")
		return
	}

	ledger, err := h.svc.Ledger(r.Context(), massDate)
	if err != nil {
		h.writeError(w, "intentionsLedger", err)
		return
	}

	html, err := ledger.RenderHTML()
	if err != nil {
		problem.Internal(w, h.logger, "intentionsLedgerRender", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}

func (h *Handler) writeError(w http.ResponseWriter, operation string, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		problem.Validation(w, validationErr.Fields)
	case errors.Is(err, service.ErrNotFound):
		problem.NotFound(w, "intention not found")
	case errors.Is(err, service.ErrNotPending):
		problem.Conflict(w, "intention has already been moderated")
	case errors.Is(err, service.ErrForbidden):
		problem.Forbidden(w, "role does not allow this operation")
	default:
		problem.Internal(w, h.logger, operation, err)
	}
}

func toIntentionResponse(intention service.Intention) intentionResponse {
	resp := intentionResponse{
		ID:             intention.ID,
		RequesterName:  intention.RequesterName,
		Intention:      intention.Intention,
		Category:       intention.Category,
		MassTime:       intention.MassTime,
		Status:         intention.Status,
		ModerationNote: intention.ModerationNote,
		CreatedAt:      intention.CreatedAt,
	}
	if intention.MassDate != nil {
		formatted := intention.MassDate.Format("2006-01-02")
		resp.MassDate = &formatted
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
