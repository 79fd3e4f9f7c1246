package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/paroquiaemdia/parish-api/domains/memberships/be/service"
	"github.com/paroquiaemdia/parish-api/platform/go/parish"
	"github.com/paroquiaemdia/parish-api/platform/go/problem"
)

// Handler exposes role resolution and membership administration over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("membership service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the membership endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/role", h.role)
	r.Route("/members", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.add)
		r.Put("/{membershipID}/role", h.setRole)
		r.Put("/{membershipID}/status", h.setStatus)
	})
}

type roleResponse struct {
	Role         *string             `json:"role"`
	Capabilities parish.Capabilities `json:"capabilities"`
}

type memberResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"userId"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// role reports the caller's resolved role in the scoped parish. The role is
// null when the caller holds no active membership.
func (h *Handler) role(w http.ResponseWriter, r *http.Request) {
	resolution, err := h.svc.Me(r.Context())
	if err != nil {
		h.writeError(w, "membershipsRole", err)
		return
	}

	resp := roleResponse{Capabilities: resolution.Capabilities}
	if resolution.Role != parish.RoleNone {
		role := string(resolution.Role)
		resp.Role = &role
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	members, err := h.svc.ListMembers(r.Context())
	if err != nil {
		h.writeError(w, "membershipsList", err)
		return
	}
	items := make([]memberResponse, 0, len(members))
	for _, member := range members {
		items = append(items, toMemberResponse(member))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID string `json:"userId"`
		Role   string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		problem.BadRequest(w, "invalid request body")
		return
	}

	member, err := h.svc.AddMember(r.Context(), body.UserID, parish.Role(body.Role))
	if err != nil {
		h.writeError(w, "membershipsAdd", err)
		return
	}
	writeJSON(w, http.StatusCreated, toMemberResponse(member))
}

func (h *Handler) setRole(w http.ResponseWriter, r *http.Request) {
	membershipID, err := uuid.Parse(chi.URLParam(r, "membershipID"))
	if err != nil {
		problem.BadRequest(w, "invalid membership id")
		return
	}
	var body struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		problem.BadRequest(w, "invalid request body")
		return
	}

	member, err := h.svc.SetRole(r.Context(), membershipID, parish.Role(body.Role))
	if err != nil {
		h.writeError(w, "membershipsSetRole", err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberResponse(member))
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	membershipID, err := uuid.Parse(chi.URLParam(r, "membershipID"))
	if err != nil {
		problem.BadRequest(w, "invalid membership id")
		return
	}
	var body struct {
		Active *bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Active == nil {
		problem.BadRequest(w, "active is required")
		return
	}

	member, err := h.svc.SetActive(r.Context(), membershipID, *body.Active)
	if err != nil {
		h.writeError(w, "membershipsSetStatus", err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberResponse(member))
}

func (h *Handler) writeError(w http.ResponseWriter, operation string, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		problem.Validation(w, validationErr.Fields)
	case errors.Is(err, service.ErrNotFound):
		problem.NotFound(w, "membership not found")
	case errors.Is(err, service.ErrForbidden):
		problem.Forbidden(w, "role does not allow this operation")
	default:
		problem.Internal(w, h.logger, operation, err)
	}
}

func toMemberResponse(member service.Member) memberResponse {
	return memberResponse{
		ID:        member.ID,
		UserID:    member.UserID,
		Role:      string(member.Role),
		Status:    member.Status,
		CreatedAt: member.CreatedAt,
		UpdatedAt: member.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
