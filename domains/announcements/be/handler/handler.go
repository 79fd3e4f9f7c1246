package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/paroquiaemdia/parish-api/domains/announcements/be/service"
	"github.com/paroquiaemdia/parish-api/platform/go/problem"
)

// Handler exposes parish announcements over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("announcements service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the announcement endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Put("/{announcementID}", h.update)
	r.Delete("/{announcementID}", h.delete)
}

type announcementResponse struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	Published bool      `json:"published"`
	AuthorID  string    `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title     string `json:"title"`
		Body      string `json:"body"`
		ImageURL  string `json:"imageUrl"`
		Published bool   `json:"published"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		problem.BadRequest(w, "invalid request body")
		return
	}

	created, err := h.svc.Create(r.Context(), service.CreateInput{
		Title:     body.Title,
		Body:      body.Body,
		ImageURL:  body.ImageURL,
		Published: body.Published,
	})
	if err != nil {
		h.writeError(w, "announcementsCreate", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAnnouncementResponse(created))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	announcements, err := h.svc.List(r.Context())
	if err != nil {
		h.writeError(w, "announcementsList", err)
		return
	}
	items := make([]announcementResponse, 0, len(announcements))
	for _, a := range announcements {
		items = append(items, toAnnouncementResponse(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	announcementID, err := uuid.Parse(chi.URLParam(r, "announcementID"))
	if err != nil {
		problem.BadRequest(w, "invalid announcement id")
		return
	}
	var body struct {
		Title     *string `json:"title"`
		Body      *string `json:"body"`
		ImageURL  *string `json:"imageUrl"`
		Published *bool   `json:"published"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		problem.BadRequest(w, "invalid request body")
		return
	}

	updated, err := h.svc.Update(r.Context(), announcementID, service.UpdateInput{
		Title:     body.Title,
		Body:      body.Body,
		ImageURL:  body.ImageURL,
		Published: body.Published,
	})
	if err != nil {
		h.writeError(w, "announcementsUpdate", err)
		return
	}
	writeJSON(w, http.StatusOK, toAnnouncementResponse(updated))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	announcementID, err := uuid.Parse(chi.URLParam(r, "announcementID"))
	if err != nil {
		problem.BadRequest(w, "invalid announcement id")
		return
	}
	if err := h.svc.Delete(r.Context(), announcementID); err != nil {
		h.writeError(w, "announcementsDelete", err)
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
		problem.NotFound(w, "announcement not found")
	case errors.Is(err, service.ErrForbidden):
		problem.Forbidden(w, "role does not allow this operation")
	default:
		problem.Internal(w, h.logger, operation, err)
	}
}

func toAnnouncementResponse(a service.Announcement) announcementResponse {
	return announcementResponse{
		ID:        a.ID,
		Title:     a.Title,
		Body:      a.Body,
		ImageURL:  a.ImageURL,
		Published: a.Published,
		AuthorID:  a.AuthorID,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
