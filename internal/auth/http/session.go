package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/internal/auth/service"
	"github.com/aussiebroadwan/gatehouse/pkg/authsdk"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
	"github.com/aussiebroadwan/gatehouse/pkg/sessionx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

// SessionCookieName is the cookie holding the signed session assertion.
const SessionCookieName = authsdk.SessionCookieName

// SessionManager stores session assertions in an httpOnly cookie.
type SessionManager struct {
	Codec *sessionx.Codec

	// Secure marks the cookie Secure. On in production only so plain http
	// works during development.
	Secure bool
}

// Create issues a new assertion for u and sets the cookie.
func (m *SessionManager) Create(w http.ResponseWriter, u domain.SessionUser) error {
	token, exp, err := m.Codec.Issue(sessionx.User{ID: u.ID, Role: string(u.Role)})
	if err != nil {
		return err
	}
	m.write(w, token, exp)
	return nil
}

// Remove expires the cookie.
func (m *SessionManager) Remove(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Current returns the session user carried by the request cookie. Any
// invalid cookie counts as no session.
func (m *SessionManager) Current(r *http.Request) (domain.SessionUser, bool) {
	ck, err := r.Cookie(SessionCookieName)
	if err != nil || ck.Value == "" {
		return domain.SessionUser{}, false
	}

	u, ok := m.Codec.Verify(ck.Value)
	if !ok {
		return domain.SessionUser{}, false
	}
	role := domain.Role(u.Role)
	if !role.Valid() {
		return domain.SessionUser{}, false
	}
	return domain.SessionUser{ID: u.ID, Role: role}, true
}

// Refresh reissues a valid session with a fresh expiry. Nothing happens
// without one.
func (m *SessionManager) Refresh(w http.ResponseWriter, r *http.Request) (domain.SessionUser, bool) {
	u, ok := m.Current(r)
	if !ok {
		return domain.SessionUser{}, false
	}
	if err := m.Create(w, u); err != nil {
		slogx.FromContext(r.Context()).Error("failed to refresh session", slog.Any("error", err))
	}
	return u, true
}

func (m *SessionManager) write(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// RefreshMiddleware slides the session on every request and exposes the
// session user to handlers through the request context.
func (m *SessionManager) RefreshMiddleware() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if u, ok := m.Refresh(w, r); ok {
				ctx := httpx.WithUser(r.Context(), u.ID, string(u.Role))
				ctx = slogx.With(ctx, slog.String("user_id", u.ID))
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionFromContext returns the user placed by RefreshMiddleware.
func SessionFromContext(ctx context.Context) (domain.SessionUser, bool) {
	id, role, ok := httpx.UserFromContext(ctx)
	if !ok {
		return domain.SessionUser{}, false
	}
	return domain.SessionUser{ID: id, Role: domain.Role(role)}, true
}

// RequireSession answers 401 to requests without a session.
func RequireSession() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := SessionFromContext(r.Context()); !ok {
				authsdk.ErrUnauthorized.WriteError(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission answers 403 unless the session user may perform action
// on the target derived from the request. It must run after RequireSession.
func RequirePermission(perms service.Permissions, resource service.Resource, action service.Action, target func(*http.Request) *service.Target) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := SessionFromContext(r.Context())
			if !ok {
				authsdk.ErrUnauthorized.WriteError(w)
				return
			}

			var t *service.Target
			if target != nil {
				t = target(r)
			}
			if !perms.Can(actor, resource, action, t) {
				slogx.FromContext(r.Context()).Warn("permission denied",
					slog.String("resource", string(resource)),
					slog.String("action", string(action)),
				)
				authsdk.ErrForbidden.WriteError(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// userTarget targets the {id} path value.
func userTarget(r *http.Request) *service.Target {
	return &service.Target{UserID: r.PathValue("id")}
}
