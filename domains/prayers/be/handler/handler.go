package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/paroquiaemdia/parish-api/domains/prayers/be/service"
	"github.com/paroquiaemdia/parish-api/platform/go/problem"
)

// Handler exposes the prayer request wall over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("prayers service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the prayer request endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Put("/{prayerID}/status", h.setStatus)
	r.Delete("/{prayerID}", h.delete)
}

type prayerResponse struct {
	ID            uuid.UUID `json:"id"`
	RequesterName string    `json:"requesterName,omitempty"`
	Intention     string    `json:"intention"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RequesterName string `json:"requesterName"`
		Intention     string `json:"intention"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		problem.BadRequest(w, "invalid request body")
		return
	}

	created, err := h.svc.Create(r.Context(), service.CreateInput{
		RequesterName: body.RequesterName,
		Intention:     body.Intention,
	})
	if err != nil {
		h.writeError(w, "prayersCreate", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPrayerResponse(created))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	prayers, err := h.svc.List(r.Context(), service.ListInput{
		Mine: query.Get("mine") == "true",
		All:  query.Get("all") == "true",
	})
	if err != nil {
		h.writeError(w, "prayersList", err)
		return
	}
	items := make([]prayerResponse, 0, len(prayers))
	for _, p := range prayers {
		items = append(items, toPrayerResponse(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	prayerID, err := uuid.Parse(chi.URLParam(r, "prayerID"))
	if err != nil {
		problem.BadRequest(w, "invalid prayer request id")
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		problem.BadRequest(w, "invalid request body")
		return
	}

	updated, err := h.svc.SetStatus(r.Context(), prayerID, body.Status)
	if err != nil {
		h.writeError(w, "prayersSetStatus", err)
		return
	}
	writeJSON(w, http.StatusOK, toPrayerResponse(updated))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	prayerID, err := uuid.Parse(chi.URLParam(r, "prayerID"))
	if err != nil {
		problem.BadRequest(w, "invalid prayer request id")
		return
	}
	if err := h.svc.Delete(r.Context(), prayerID); err != nil {
		h.writeError(w, "prayersDelete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, operation string, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		problem.Validation(w, validationErr.Fields)
	case errors.Is(err, service.ErrNotFound):
		problem.NotFound(w, "prayer request not found")
	case errors.Is(err, service.ErrForbidden):
		problem.Forbidden(w, "role does not allow this operation")
	default:
		problem.Internal(w, h.logger, operation, err)
	}
}

func toPrayerResponse(p service.Prayer) prayerResponse {
	return prayerResponse{
		ID:            p.ID,
		RequesterName: p.RequesterName,
		Intention:     p.Intention,
		Status:        p.Status,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
