package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	platformauth "github.com/paroquiaemdia/parish-api/platform/go/auth"
	"github.com/paroquiaemdia/parish-api/platform/go/logging"
	"github.com/paroquiaemdia/parish-api/platform/go/parish"
	"github.com/paroquiaemdia/parish-api/platform/go/problem"
)

// HeaderParishID selects the acting parish for the request. Identity says
// who the caller is; this header says where they are acting.
const HeaderParishID = "X-Parish-ID"

// Resolver defines the lookups required to populate a request Scope.
// Implemented by the membership service.
type Resolver interface {
	ResolveParish(r *http.Request, parishID uuid.UUID) (parish.Info, error)
	ResolveRole(r *http.Request, parishID uuid.UUID, userID string) (parish.Role, error)
}

// Config controls middleware behavior.
type Config struct {
	// Optional small in-memory TTL cache for parish lookups; zero disables
	// caching. Role lookups are never cached, so a revoked membership takes
	// effect on the next request.
	CacheTTL time.Duration
}

// WithParishScope resolves the parish from the X-Parish-ID header (or the
// parish_id query parameter) and the caller's role from their membership,
// then attaches a parish.Scope to the context. Requests without a resolvable
// parish are rejected; callers without an active membership proceed with
// RoleNone and every capability off.
func WithParishScope(resolver Resolver, cfg Config) func(http.Handler) http.Handler {
	if resolver == nil {
		panic("parish middleware: resolver is required")
	}

	var cache *parishCache
	if cfg.CacheTTL > 0 {
		cache = newParishCache(cfg.CacheTTL)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(HeaderParishID)
			if raw == "" {
				raw = r.URL.Query().Get("parish_id")
			}
			if raw == "" {
				problem.BadRequest(w, "parish id is required")
				return
			}

			parishID, err := uuid.Parse(raw)
			if err != nil {
				problem.BadRequest(w, "invalid parish id")
				return
			}

			info := cacheGet(cache, parishID)
			if info == nil {
				resolved, err := resolver.ResolveParish(r, parishID)
				if err != nil {
					problem.NotFound(w, "parish not found")
					return
				}
				cachePut(cache, resolved)
				info = &resolved
			}

			if !info.Active() {
				problem.Forbidden(w, "parish is not active")
				return
			}

			scope := parish.Scope{Parish: *info}
			if creds, ok := platformauth.UserFromContext(r.Context()); ok && creds != nil {
				scope.UserID = creds.ID
				role, err := resolver.ResolveRole(r, parishID, creds.ID)
				if err != nil {
					problem.Internal(w, logging.FromRequest(r, nil), "resolve role", err)
					return
				}
				scope.Role = role
			}

			ctx := parish.WithScope(r.Context(), scope)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type parishCache struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[uuid.UUID]cacheItem
}

type cacheItem struct {
	info      parish.Info
	expiresAt time.Time
}

func newParishCache(ttl time.Duration) *parishCache {
	return &parishCache{ttl: ttl, items: make(map[uuid.UUID]cacheItem)}
}

func cacheGet(c *parishCache, id uuid.UUID) *parish.Info {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.items[id]
	if !ok || time.Now().After(item.expiresAt) {
		return nil
	}
	return &item.info
}

func cachePut(c *parishCache, info parish.Info) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[info.ID] = cacheItem{info: info, expiresAt: time.Now().Add(c.ttl)}
}
