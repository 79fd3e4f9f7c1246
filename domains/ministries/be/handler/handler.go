package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/paroquiaemdia/parish-api/domains/ministries/be/service"
	"github.com/paroquiaemdia/parish-api/platform/go/problem"
)

// Handler exposes ministry management over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("ministries service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the ministry endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Put("/{ministryID}", h.update)
	r.Delete("/{ministryID}", h.delete)
	r.Post("/{ministryID}/join", h.join)
	r.Post("/{ministryID}/leave", h.leave)
	r.Delete("/{ministryID}/members/{userID}", h.removeMember)
}

type ministryResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	CoordinatorID string    `json:"coordinatorId,omitempty"`
	MeetingDay    string    `json:"meetingDay,omitempty"`
	MeetingTime   string    `json:"meetingTime,omitempty"`
	MemberCount   int       `json:"memberCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name          string `json:"name"`
		Description   string `json:"description"`
		CoordinatorID string `json:"coordinatorId"`
		MeetingDay    string `json:"meetingDay"`
		MeetingTime   string `json:"meetingTime"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		problem.BadRequest(w, "invalid request body")
		return
	}

	created, err := h.svc.Create(r.Context(), service.CreateInput{
		Name:          body.Name,
		Description:   body.Description,
		CoordinatorID: body.CoordinatorID,
		MeetingDay:    body.MeetingDay,
		MeetingTime:   body.MeetingTime,
	})
	if err != nil {
		h.writeError(w, "ministriesCreate", err)
		return
	}
	writeJSON(w, http.StatusCreated, toMinistryResponse(created))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ministries, err := h.svc.List(r.Context())
	if err != nil {
		h.writeError(w, "ministriesList", err)
		return
	}
	items := make([]ministryResponse, 0, len(ministries))
	for _, m := range ministries {
		items = append(items, toMinistryResponse(m))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	ministryID, err := uuid.Parse(chi.URLParam(r, "ministryID"))
	if err != nil {
		problem.BadRequest(w, "invalid ministry id")
		return
	}
	var body struct {
		Name          *string `json:"name"`
		Description   *string `json:"description"`
		CoordinatorID *string `json:"coordinatorId"`
		MeetingDay    *string `json:"meetingDay"`
		MeetingTime   *string `json:"meetingTime"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		problem.BadRequest(w, "invalid request body")
		return
	}

	updated, err := h.svc.Update(r.Context(), ministryID, service.UpdateInput{
		Name:          body.Name,
		Description:   body.Description,
		CoordinatorID: body.CoordinatorID,
		MeetingDay:    body.MeetingDay,
		MeetingTime:   body.MeetingTime,
	})
	if err != nil {
		h.writeError(w, "ministriesUpdate", err)
		return
	}
	writeJSON(w, http.StatusOK, toMinistryResponse(updated))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	ministryID, err := uuid.Parse(chi.URLParam(r, "ministryID"))
	if err != nil {
		problem.BadRequest(w, "invalid ministry id")
		return
	}
	if err := h.svc.Delete(r.Context(), ministryID); err != nil {
		h.writeError(w, "ministriesDelete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) join(w http.ResponseWriter, r *http.Request) {
	ministryID, err := uuid.Parse(chi.URLParam(r, "ministryID"))
	if err != nil {
		problem.BadRequest(w, "invalid ministry id")
		return
	}
	if err := h.svc.Join(r.Context(), ministryID); err != nil {
		h.writeError(w, "ministriesJoin", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) leave(w http.ResponseWriter, r *http.Request) {
	ministryID, err := uuid.Parse(chi.URLParam(r, "ministryID"))
	if err != nil {
		problem.BadRequest(w, "invalid ministry id")
		return
	}
	if err := h.svc.Leave(r.Context(), ministryID); err != nil {
		h.writeError(w, "ministriesLeave", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeMember(w http.ResponseWriter, r *http.Request) {
	ministryID, err := uuid.Parse(chi.URLParam(r, "ministryID"))
	if err != nil {
		problem.BadRequest(w, "invalid ministry id")
		return
	}
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		problem.BadRequest(w, "user id is required")
		return
	}
	if err := h.svc.RemoveMember(r.Context(), ministryID, userID); err != nil {
		h.writeError(w, "ministriesRemoveMember", err)
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
		problem.NotFound(w, "ministry not found")
	case errors.Is(err, service.ErrForbidden):
		problem.Forbidden(w, "role does not allow this operation")
	default:
		problem.Internal(w, h.logger, operation, err)
	}
}

func toMinistryResponse(m service.Ministry) ministryResponse {
	return ministryResponse{
		ID:            m.ID,
		Name:          m.Name,
		Description:   m.Description,
		CoordinatorID: m.CoordinatorID,
		MeetingDay:    m.MeetingDay,
		MeetingTime:   m.MeetingTime,
		MemberCount:   m.MemberCount,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
