package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/paroquiaemdia/parish-api/domains/profiles/be/service"
	"github.com/paroquiaemdia/parish-api/platform/go/problem"
	"github.com/paroquiaemdia/parish-api/platform/go/storage"
)

// Handler exposes the caller's profile over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("profiles service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the profile endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/me", h.me)
	r.Put("/me", h.update)
	r.Post("/me/avatar", h.uploadAvatar)
}

type profileResponse struct {
	UserID    string    `json:"userId"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	PhotoURL  string    `json:"photoUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	profile, err := h.svc.Me(r.Context())
	if err != nil {
		h.writeError(w, "profilesMe", err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     *string `json:"name"`
		Phone    *string `json:"phone"`
		PhotoURL *string `json:"photoUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		problem.BadRequest(w, "invalid request body")
		return
	}

	profile, err := h.svc.Update(r.Context(), service.UpdateInput{
		Name:     body.Name,
		Phone:    body.Phone,
		PhotoURL: body.PhotoURL,
	})
	if err != nil {
		h.writeError(w, "profilesUpdate", err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}

func (h *Handler) uploadAvatar(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")
	if _, err := storage.ValidateImageUpload(contentType, r.ContentLength); err != nil {
		problem.BadRequest(w, err.Error())
		return
	}

	profile, err := h.svc.UploadAvatar(r.Context(), contentType, r.ContentLength, r.Body)
	if err != nil {
		h.writeError(w, "profilesUploadAvatar", err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}

func (h *Handler) writeError(w http.ResponseWriter, operation string, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		problem.Validation(w, validationErr.Fields)
	case errors.Is(err, service.ErrUnauthorized):
		problem.Forbidden(w, "authentication required")
	case errors.Is(err, service.ErrForbidden):
		problem.Forbidden(w, "avatar uploads are not available")
	default:
		problem.Internal(w, h.logger, operation, err)
	}
}

func toProfileResponse(p service.Profile) profileResponse {
	return profileResponse{
		UserID:    p.UserID,
		Name:      p.Name,
		Email:     p.Email,
		Phone:     p.Phone,
		PhotoURL:  p.PhotoURL,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
