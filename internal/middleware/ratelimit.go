package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimitConfig limits requests per client IP
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Logger   *slog.Logger

	// OnLimit writes the rejection; defaults to a plain 429
	OnLimit http.HandlerFunc
}

// RateLimit creates an IP-based rate limiter. A config with no requests
// allowed disables limiting.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.Requests <= 0 || cfg.Window <= 0 {
		return NoRateLimit()
	}
	onLimit := cfg.OnLimit
	if onLimit == nil {
		onLimit = func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limit exceeded, please try again later", http.StatusTooManyRequests)
		}
	}

	return httprate.Limit(
		cfg.Requests,
		cfg.Window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Logger != nil {
				cfg.Logger.Warn("rate limit exceeded",
					slog.String("ip", r.RemoteAddr),
					slog.String("path", r.URL.Path),
					slog.String("method", r.Method),
					slog.String("request_id", GetRequestID(r.Context())),
				)
			}
			onLimit(w, r)
		}),
	)
}

// NoRateLimit returns a pass-through middleware
func NoRateLimit() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return next
	}
}
