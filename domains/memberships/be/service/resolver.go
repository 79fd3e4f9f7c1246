package service

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/paroquiaemdia/parish-api/platform/go/parish"
	"github.com/paroquiaemdia/parish-api/platform/go/persistence"
)

type parishReader interface {
	GetParish(ctx context.Context, id uuid.UUID) (persistence.Parish, error)
}

// ScopeResolver adapts the membership service to the parish scope middleware:
// it loads the parish record and resolves the caller's role.
type ScopeResolver struct {
	parishes parishReader
	svc      Service
}

// NewScopeResolver constructs a resolver for the scope middleware.
func NewScopeResolver(parishes parishReader, svc Service) *ScopeResolver {
	if parishes == nil {
		panic("parish reader is required")
	}
	if svc == nil {
		panic("membership service is required")
	}
	return &ScopeResolver{parishes: parishes, svc: svc}
}

// ResolveParish loads the parish for the request scope.
func (sr *ScopeResolver) ResolveParish(r *http.Request, parishID uuid.UUID) (parish.Info, error) {
	record, err := sr.parishes.GetParish(r.Context(), parishID)
	if err != nil {
		return parish.Info{}, err
	}
	return ParishInfo(record), nil
}

// ResolveRole resolves the caller's active role in the parish. A user without
// a membership gets RoleNone, not an error.
func (sr *ScopeResolver) ResolveRole(r *http.Request, parishID uuid.UUID, userID string) (parish.Role, error) {
	resolution, err := sr.svc.Resolve(r.Context(), parishID, userID)
	if err != nil {
		return parish.RoleNone, err
	}
	return resolution.Role, nil
}

// ParishInfo projects a parish row onto the context Info value.
func ParishInfo(record persistence.Parish) parish.Info {
	return parish.Info{
		ID:           record.ID,
		Slug:         record.Slug,
		Name:         record.Name,
		Address:      record.Address,
		City:         record.City,
		Region:       record.Region,
		Phone:        record.Phone,
		Email:        record.Email,
		PrimaryColor: record.PrimaryColor,
		LogoURL:      record.LogoURL,
		PixKey:       record.PixKey,
		PixPayee:     record.PixPayee,
		Status:       record.Status,
		CreatedAt:    record.CreatedAt,
	}
}
