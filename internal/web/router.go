package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/creaturegame/internal/dependencies/random"
	"github.com/mcoot/creaturegame/internal/metrics"
	mw "github.com/mcoot/creaturegame/internal/middleware"
	"github.com/mcoot/creaturegame/internal/services/blog"
	"github.com/mcoot/creaturegame/internal/services/session"
	"github.com/mcoot/creaturegame/internal/web/handler"
	"github.com/mcoot/creaturegame/internal/web/middleware"
	"github.com/mcoot/creaturegame/internal/web/sse"
	"github.com/mcoot/creaturegame/internal/web/templates/pages"
)

const (
	// LoginPath is where the authenticated-only gate sends signed-out visitors
	LoginPath = "/login"
	// LandingPath is the post-login landing page
	LandingPath = "/game-start"
)

// RouterConfig holds configuration for the web router
type RouterConfig struct {
	Logger      *slog.Logger
	Registry    *session.Registry
	Broadcaster *sse.Broadcaster
	Metrics     metrics.Recorder

	// Google is nil when Google sign-in is disabled
	Google handler.GoogleConsent
	Resets handler.PasswordResetter
	Random random.Random
	// Posts defaults to the built-in diary
	Posts handler.Posts

	Session   middleware.SessionConfig
	RateLimit mw.RateLimitConfig
	StaticDir string // Path to static files directory
}

// NewRouter creates a new web router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Nop{}
	}
	if cfg.Posts == nil {
		cfg.Posts = blog.MustDefault(cfg.Logger)
	}
	if cfg.Broadcaster == nil {
		cfg.Broadcaster = sse.NewBroadcaster(sse.NewHubManager(cfg.Logger), cfg.Logger)
	}

	r := mux.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(mw.Logging(cfg.Logger))

	pageHandler := handler.NewPageHandler(cfg.Posts, cfg.Logger)
	authHandler := handler.NewAuthHandler(handler.AuthConfig{
		LandingPath:  LandingPath,
		Google:       cfg.Google,
		Resets:       cfg.Resets,
		Random:       cfg.Random,
		CookieSecure: cfg.Session.Secure,
		Logger:       cfg.Logger,
	})
	eventsHandler := handler.NewEventsHandler(cfg.Broadcaster, cfg.Logger)

	if cfg.StaticDir != "" {
		staticHandler := http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir)))
		r.PathPrefix("/static/").Handler(staticHandler)
	}

	limited := mw.RateLimit(cfg.RateLimit)
	sessionMiddleware := middleware.Session(cfg.Registry, cfg.Session, cfg.Logger)
	flashMiddleware := middleware.Flash()

	// Form posts start a session when the browser has none; pages never do
	ensure := middleware.EnsureSession(cfg.Registry, cfg.Session)
	acting := func(h http.HandlerFunc) http.Handler {
		return limited(ensure(h))
	}

	// Public pages
	public := r.NewRoute().Subrouter()
	public.Use(sessionMiddleware)
	public.Use(flashMiddleware)
	public.HandleFunc("/", pageHandler.Landing).Methods(http.MethodGet)
	public.HandleFunc("/about", pageHandler.About).Methods(http.MethodGet)
	public.HandleFunc("/blog/{slug}", pageHandler.BlogPost).Methods(http.MethodGet)
	public.HandleFunc("/reset-password", authHandler.ResetPasswordPage).Methods(http.MethodGet)
	public.Handle("/reset-password", limited(http.HandlerFunc(authHandler.ResetPassword))).Methods(http.MethodPost)
	public.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodPost)
	public.HandleFunc("/session/events", eventsHandler.Session).Methods(http.MethodGet)

	// Signed-out only
	guest := r.NewRoute().Subrouter()
	guest.Use(sessionMiddleware)
	guest.Use(flashMiddleware)
	guest.Use(middleware.Guard(middleware.UnauthenticatedOnly{LandingPath: LandingPath}, cfg.Metrics, cfg.Logger))
	guest.HandleFunc("/login", authHandler.LoginPage).Methods(http.MethodGet)
	guest.Handle("/login", acting(authHandler.Login)).Methods(http.MethodPost)
	guest.HandleFunc("/register", authHandler.RegisterPage).Methods(http.MethodGet)
	guest.Handle("/register", acting(authHandler.Register)).Methods(http.MethodPost)
	guest.HandleFunc("/forgot-password", authHandler.ForgotPasswordPage).Methods(http.MethodGet)
	guest.Handle("/forgot-password", acting(authHandler.ForgotPassword)).Methods(http.MethodPost)
	guest.HandleFunc("/auth/google", authHandler.GoogleStart).Methods(http.MethodGet)
	guest.Handle("/auth/google/callback", ensure(http.HandlerFunc(authHandler.GoogleCallback))).Methods(http.MethodGet)

	// Signed-in only
	protected := r.NewRoute().Subrouter()
	protected.Use(sessionMiddleware)
	protected.Use(flashMiddleware)
	protected.Use(middleware.Guard(middleware.AuthenticatedOnly{LoginPath: LoginPath}, cfg.Metrics, cfg.Logger))
	protected.HandleFunc("/game-start", pageHandler.GameStart).Methods(http.MethodGet)
	protected.HandleFunc("/game-start/profile", pageHandler.UpdateProfile).Methods(http.MethodPost)
	protected.HandleFunc("/game-start/profile/repair", pageHandler.RepairProfile).Methods(http.MethodPost)
	protected.HandleFunc("/play", pageHandler.Play).Methods(http.MethodGet)

	r.NotFoundHandler = mw.Logging(cfg.Logger)(http.HandlerFunc(notFound))

	return r
}

func notFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_ = pages.ErrorPage(pages.ErrorData{
		Status:  http.StatusNotFound,
		Message: "That page does not exist.",
	}).Render(r.Context(), w)
}
