package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/creaturegame/internal/model"
	"github.com/mcoot/creaturegame/internal/services/session"
)

type contextKey string

const (
	controllerContextKey contextKey = "controller"
	tokenContextKey      contextKey = "session_token"
)

// SessionCookieName is the cookie carrying the browser session token
const SessionCookieName = "session"

// SessionConfig controls the browser session cookie
type SessionConfig struct {
	CookieName string
	Secure     bool
}

// DefaultSessionConfig returns the default cookie settings
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		CookieName: SessionCookieName,
	}
}

// GetController returns the session controller bound to the request, or nil
func GetController(ctx context.Context) *session.Controller {
	c, _ := ctx.Value(controllerContextKey).(*session.Controller)
	return c
}

// GetSessionToken returns the browser session token bound to the request
func GetSessionToken(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}

// CurrentSnapshot returns the bound controller's snapshot.
// Without a controller the request is treated as signed out.
func CurrentSnapshot(ctx context.Context) session.Snapshot {
	c := GetController(ctx)
	if c == nil {
		return session.Snapshot{State: session.StateUnauthenticated}
	}
	return c.Snapshot()
}

// WithController binds a controller to ctx
func WithController(ctx context.Context, token string, c *session.Controller) context.Context {
	ctx = context.WithValue(ctx, controllerContextKey, c)
	return context.WithValue(ctx, tokenContextKey, token)
}

// Session returns middleware that binds the browser's existing session controller.
// Requests without a live session carry no controller and are treated as signed out.
func Session(registry *session.Registry, cfg SessionConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = SessionCookieName
	}
	logger = logger.With(slog.String("component", "web-session"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cfg.CookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			c, err := registry.Get(cookie.Value)
			switch {
			case err == nil:
				r = r.WithContext(WithController(r.Context(), cookie.Value, c))
			case errors.Is(err, model.ErrSessionNotFound):
				logger.Debug("session cookie not recognised")
				ClearSessionCookie(w, cfg)
			default:
				logger.Warn("session lookup failed", slog.Any("error", err))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// EnsureSession returns middleware that starts a session for requests that have none.
// It runs after Session, on the routes that act on the session.
func EnsureSession(registry *session.Registry, cfg SessionConfig) func(http.Handler) http.Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = SessionCookieName
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetController(r.Context()) == nil {
				token, c := registry.Create()
				SetSessionCookie(w, cfg, token, registry.TTL())
				r = r.WithContext(WithController(r.Context(), token, c))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SetSessionCookie writes the session cookie
func SetSessionCookie(w http.ResponseWriter, cfg SessionConfig, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie
func ClearSessionCookie(w http.ResponseWriter, cfg SessionConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
