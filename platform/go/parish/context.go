package parish

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Info carries the public attributes of a resolved parish. It is loaded once
// per request and threaded through the context, never read from globals.
type Info struct {
	ID           uuid.UUID
	Slug         string
	Name         string
	Address      string
	City         string
	Region       string
	Phone        string
	Email        string
	PrimaryColor string
	LogoURL      string
	PixKey       string
	PixPayee     string
	Status       string
	CreatedAt    time.Time
}

// Active reports whether the parish accepts requests.
func (i Info) Active() bool {
	return i.Status == "active"
}

// Scope is the per-request (parish, caller role) pair. Middleware resolves it
// exactly once; handlers and services receive it through the context.
type Scope struct {
	Parish Info
	Role   Role
	UserID string
}

type scopeKey struct{}

// WithScope returns a derived context carrying the resolved Scope.
func WithScope(ctx context.Context, scope Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

// ScopeFromContext extracts the Scope and a boolean indicating presence.
func ScopeFromContext(ctx context.Context) (Scope, bool) {
	v := ctx.Value(scopeKey{})
	if v == nil {
		return Scope{}, false
	}
	scope, ok := v.(Scope)
	return scope, ok
}
