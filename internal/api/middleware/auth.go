package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/creaturegame/internal/api/apierr"
	"github.com/mcoot/creaturegame/internal/model"
	"github.com/mcoot/creaturegame/internal/services/session"
)

type contextKey string

const (
	controllerContextKey contextKey = "controller"
	tokenContextKey      contextKey = "session_token"
)

// SessionCookieName is shared with the web interface so a browser session works on both
const SessionCookieName = "session"

// Session resolves the session token to its controller. Requests without a
// live session are rejected.
func Session(registry *session.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			controller, err := registry.Get(token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), controllerContextKey, controller)
			ctx = context.WithValue(ctx, tokenContextKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSignedIn rejects sessions without an identity. Requires Session to run first.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !MustGetController(r.Context()).Snapshot().SignedIn() {
			apierr.WriteError(w, model.ErrNotSignedIn)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractToken extracts the session token from the request
func extractToken(r *http.Request) string {
	// Check Authorization header first
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	// Fall back to cookie
	cookie, err := r.Cookie(SessionCookieName)
	if err == nil {
		return cookie.Value
	}

	return ""
}

// GetController returns the session controller from the request context
func GetController(ctx context.Context) *session.Controller {
	c, _ := ctx.Value(controllerContextKey).(*session.Controller)
	return c
}

// GetToken returns the session token from the request context
func GetToken(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}

// MustGetController returns the session controller or panics
func MustGetController(ctx context.Context) *session.Controller {
	c := GetController(ctx)
	if c == nil {
		panic("no session in context - session middleware not applied?")
	}
	return c
}
