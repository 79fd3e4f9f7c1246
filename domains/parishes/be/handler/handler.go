package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/paroquiaemdia/parish-api/domains/parishes/be/service"
	"github.com/paroquiaemdia/parish-api/platform/go/problem"
	"github.com/paroquiaemdia/parish-api/platform/go/storage"
)

// Handler exposes parish registration and settings over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("parish service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// PublicRoutes mounts endpoints that require no authentication.
func (h *Handler) PublicRoutes(r chi.Router) {
	r.Get("/by-slug", h.getBySlug)
}

// SessionRoutes mounts endpoints that require a signed-in user but no parish
// scope: registration and the caller's parish list.
func (h *Handler) SessionRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.listMine)
}

// ScopedRoutes mounts endpoints that run inside a resolved parish scope.
func (h *Handler) ScopedRoutes(r chi.Router) {
	r.Put("/{parishID}", h.update)
	r.Post("/{parishID}/logo", h.uploadLogo)
}

type parishResponse struct {
	ID           uuid.UUID `json:"id"`
	Slug         string    `json:"slug"`
	Name         string    `json:"name"`
	Address      string    `json:"address,omitempty"`
	City         string    `json:"city,omitempty"`
	Region       string    `json:"region,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Email        string    `json:"email,omitempty"`
	PrimaryColor string    `json:"primaryColor,omitempty"`
	LogoURL      string    `json:"logoUrl,omitempty"`
	PixKey       string    `json:"pixKey,omitempty"`
	PixPayee     string    `json:"pixPayee,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name    string `json:"name"`
		Address string `json:"address"`
		City    string `json:"city"`
		Region  string `json:"region"`
		Phone   string `json:"phone"`
		Email   string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		problem.BadRequest(w, "invalid request body")
		return
	}

	created, err := h.svc.Create(r.Context(), service.CreateInput{
		Name:    body.Name,
		Address: body.Address,
		City:    body.City,
		Region:  body.Region,
		Phone:   body.Phone,
		Email:   body.Email,
	})
	if err != nil {
		h.writeError(w, "parishesCreate", err)
		return
	}
	writeJSON(w, http.StatusCreated, toParishResponse(created))
}

func (h *Handler) getBySlug(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get("slug")
	if slug == "" {
		problem.BadRequest(w, "slug is required")
		return
	}
	found, err := h.svc.GetBySlug(r.Context(), slug)
	if err != nil {
		h.writeError(w, "parishesGetBySlug", err)
		return
	}
	writeJSON(w, http.StatusOK, toParishResponse(found))
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	parishes, err := h.svc.ListMine(r.Context())
	if err != nil {
		h.writeError(w, "parishesListMine", err)
		return
	}
	type item struct {
		parishResponse
		Role string `json:"role"`
	}
	items := make([]item, 0, len(parishes))
	for _, p := range parishes {
		items = append(items, item{parishResponse: toParishResponse(p.Parish), Role: string(p.Role)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	parishID, err := uuid.Parse(chi.URLParam(r, "parishID"))
	if err != nil {
		problem.BadRequest(w, "invalid parish id")
		return
	}

	var body struct {
		Name         *string `json:"name"`
		Address      *string `json:"address"`
		City         *string `json:"city"`
		Region       *string `json:"region"`
		Phone        *string `json:"phone"`
		Email        *string `json:"email"`
		PrimaryColor *string `json:"primaryColor"`
		LogoURL      *string `json:"logoUrl"`
		PixKey       *string `json:"pixKey"`
		PixPayee     *string `json:"pixPayee"`
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		problem.BadRequest(w, "invalid request body")
		return
	}

	updated, err := h.svc.Update(r.Context(), parishID, service.UpdateInput{
		Name:         body.Name,
		Address:      body.Address,
		City:         body.City,
		Region:       body.Region,
		Phone:        body.Phone,
		Email:        body.Email,
		PrimaryColor: body.PrimaryColor,
		LogoURL:      body.LogoURL,
		PixKey:       body.PixKey,
		PixPayee:     body.PixPayee,
	})
	if err != nil {
		h.writeError(w, "parishesUpdate", err)
		return
	}
	writeJSON(w, http.StatusOK, toParishResponse(updated))
}

// uploadLogo streams the request body into object storage. The content type
// and declared size are validated before any bytes move.
func (h *Handler) uploadLogo(w http.ResponseWriter, r *http.Request) {
	parishID, err := uuid.Parse(chi.URLParam(r, "parishID"))
	if err != nil {
		problem.BadRequest(w, "invalid parish id")
		return
	}

	contentType := r.Header.Get("Content-Type")
	if _, err := storage.ValidateImageUpload(contentType, r.ContentLength); err != nil {
		problem.BadRequest(w, err.Error())
		return
	}

	updated, err := h.svc.UploadLogo(r.Context(), parishID, contentType, r.ContentLength, r.Body)
	if err != nil {
		h.writeError(w, "parishesUploadLogo", err)
		return
	}
	writeJSON(w, http.StatusOK, toParishResponse(updated))
}

func (h *Handler) writeError(w http.ResponseWriter, operation string, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		problem.Validation(w, validationErr.Fields)
	case errors.Is(err, service.ErrNotFound):
		problem.NotFound(w, "parish not found")
	case errors.Is(err, service.ErrSlugConflict):
		problem.Conflict(w, "a parish with this name already exists")
	case errors.Is(err, service.ErrForbidden):
		problem.Forbidden(w, "role does not allow this operation")
	case errors.Is(err, service.ErrUnauthorized):
		problem.Forbidden(w, "authentication required")
	default:
		problem.Internal(w, h.logger, operation, err)
	}
}

func toParishResponse(p service.Parish) parishResponse {
	return parishResponse{
		ID:           p.ID,
		Slug:         p.Slug,
		Name:         p.Name,
		Address:      p.Address,
		City:         p.City,
		Region:       p.Region,
		Phone:        p.Phone,
		Email:        p.Email,
		PrimaryColor: p.PrimaryColor,
		LogoURL:      p.LogoURL,
		PixKey:       p.PixKey,
		PixPayee:     p.PixPayee,
		Status:       p.Status,
		CreatedAt:    p.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
