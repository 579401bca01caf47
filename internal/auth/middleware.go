package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/homees-app/homees/internal/user"
)

type contextKey struct{}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(ctx context.Context) *user.User {
	u, _ := ctx.Value(contextKey{}).(*user.User)
	return u
}

// UserLookup resolves a user by ID.
type UserLookup interface {
	GetByID(id string) (*user.User, error)
}

const (
	failedKeyWindow  = 1 * time.Minute
	failedKeyMaxFail = 10
)

// Middleware resolves the current user from a session cookie or a Bearer API
// key and guards non-public paths.
type Middleware struct {
	sessions   *SessionStore
	apiKeys    *APIKeyStore
	users      UserLookup
	failedKeys *RateLimiter
}

// NewMiddleware creates the authentication middleware.
func NewMiddleware(sessions *SessionStore, apiKeys *APIKeyStore, users UserLookup) *Middleware {
	return &Middleware{
		sessions:   sessions,
		apiKeys:    apiKeys,
		users:      users,
		failedKeys: NewRateLimiter(failedKeyMaxFail, failedKeyWindow),
	}
}

// RequireAuth attaches the user to the request context. Unauthenticated page
// requests are redirected to /login, API requests get 401.
// Public paths pass through, with the user attached when one is signed in.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, status := m.resolve(r)
		if u != nil {
			r = r.WithContext(WithUser(r.Context(), u))
		}

		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		if u == nil {
			if isAPIPath(r.URL.Path) || r.URL.Path == "/realtime" {
				if status == http.StatusTooManyRequests {
					writeJSONError(w, "Too many requests", status)
				} else {
					writeJSONError(w, "Authentification requise", http.StatusUnauthorized)
				}
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// UserID resolves the signed-in user ID without guarding the request.
func (m *Middleware) UserID(r *http.Request) (string, bool) {
	if u := UserFromContext(r.Context()); u != nil {
		return u.ID, true
	}
	u, _ := m.resolve(r)
	if u == nil {
		return "", false
	}
	return u.ID, true
}

// resolve returns the user for the request, and an HTTP status explaining
// a failure when a credential was presented but rejected.
func (m *Middleware) resolve(r *http.Request) (*user.User, int) {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return m.resolveAPIKey(r, strings.TrimPrefix(header, "Bearer "))
	}

	userID, err := m.sessions.Validate(r)
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			slog.Error("validating session", "error", err)
		}
		return nil, http.StatusUnauthorized
	}
	return m.lookup(userID)
}

func (m *Middleware) resolveAPIKey(r *http.Request, key string) (*user.User, int) {
	ip := ClientIP(r)
	if m.failedKeys.Blocked(ip) {
		return nil, http.StatusTooManyRequests
	}

	userID, err := m.apiKeys.Validate(key)
	if err != nil {
		slog.Error("validating api key", "error", err)
		return nil, http.StatusInternalServerError
	}
	if userID == "" {
		m.failedKeys.Allow(ip)
		slog.Warn("invalid api key", "ip", ip)
		return nil, http.StatusUnauthorized
	}
	return m.lookup(userID)
}

func (m *Middleware) lookup(userID string) (*user.User, int) {
	u, err := m.users.GetByID(userID)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			slog.Error("loading session user", "user_id", userID, "error", err)
		}
		return nil, http.StatusUnauthorized
	}
	return u, http.StatusOK
}

// RequireRole returns 403 unless the authenticated user has one of roles.
// Admins are always allowed.
func RequireRole(next http.Handler, roles ...user.Role) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := UserFromContext(r.Context())
		if u == nil {
			writeJSONError(w, "Authentification requise", http.StatusUnauthorized)
			return
		}
		if u.Role == user.RoleAdmin {
			next.ServeHTTP(w, r)
			return
		}
		for _, role := range roles {
			if u.Role == role {
				next.ServeHTTP(w, r)
				return
			}
		}
		writeJSONError(w, "Accès refusé", http.StatusForbidden)
	})
}

func isPublicPath(path string) bool {
	switch path {
	case "/", "/login", "/signup", "/health", "/api/chat":
		return true
	}
	return strings.HasPrefix(path, "/auth/") || strings.HasPrefix(path, "/static/")
}

func isAPIPath(path string) bool {
	return strings.HasPrefix(path, "/api/")
}

func writeJSONError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg}); err != nil {
		slog.Error("encoding error response", "error", err)
	}
}
