package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"

	"github.com/mcoot/creaturegame/internal/api/apierr"
	"github.com/mcoot/creaturegame/internal/api/handler"
	"github.com/mcoot/creaturegame/internal/api/middleware"
	mw "github.com/mcoot/creaturegame/internal/middleware"
	"github.com/mcoot/creaturegame/internal/services/session"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger   *slog.Logger
	Registry *session.Registry
	Storage  handler.Pinger
	Resets   handler.PasswordResetter

	// AllowedOrigins lists browser origins allowed to call the API; empty disables CORS
	AllowedOrigins []string
	RateLimit      mw.RateLimitConfig
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	healthHandler := handler.NewHealthHandler(cfg.Storage, cfg.Logger)
	sessionHandler := handler.NewSessionHandler(cfg.Registry)
	profileHandler := handler.NewProfileHandler()
	resetHandler := handler.NewResetHandler(cfg.Resets)

	// Create middleware
	sessionMiddleware := middleware.Session(cfg.Registry)
	loggingMiddleware := mw.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	rateLimit := cfg.RateLimit
	rateLimit.Logger = cfg.Logger
	rateLimit.OnLimit = func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.NewRateLimitedError())
	}
	limited := mw.RateLimit(rateLimit)
	// Session creation has its own budget so it never starves sign-in
	limitedCreate := mw.RateLimit(rateLimit)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Public routes
	api.HandleFunc("/health", healthHandler.Get).Methods(http.MethodGet)
	api.Handle("/sessions", limitedCreate(http.HandlerFunc(sessionHandler.Create))).Methods(http.MethodPost)
	api.Handle("/password-reset/confirm", limited(http.HandlerFunc(resetHandler.Confirm))).Methods(http.MethodPost)

	// Routes acting on a session
	sessions := api.PathPrefix("/session").Subrouter()
	sessions.Use(sessionMiddleware)
	sessions.HandleFunc("", sessionHandler.Get).Methods(http.MethodGet)
	sessions.HandleFunc("", sessionHandler.Delete).Methods(http.MethodDelete)
	sessions.Handle("/register", limited(http.HandlerFunc(sessionHandler.Register))).Methods(http.MethodPost)
	sessions.Handle("/login", limited(http.HandlerFunc(sessionHandler.Login))).Methods(http.MethodPost)
	sessions.HandleFunc("/logout", sessionHandler.Logout).Methods(http.MethodPost)
	sessions.Handle("/password-reset", limited(http.HandlerFunc(sessionHandler.RequestPasswordReset))).Methods(http.MethodPost)

	// Profile routes require a signed-in session
	profile := api.PathPrefix("/profile").Subrouter()
	profile.Use(sessionMiddleware)
	profile.Use(middleware.RequireSignedIn)
	profile.HandleFunc("", profileHandler.Get).Methods(http.MethodGet)
	profile.HandleFunc("", profileHandler.Update).Methods(http.MethodPatch)
	profile.HandleFunc("", profileHandler.Repair).Methods(http.MethodPost)

	if len(cfg.AllowedOrigins) == 0 {
		return r
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})(r)
}
