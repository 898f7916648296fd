package handler

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/mcoot/creaturegame/internal/dependencies/random"
	"github.com/mcoot/creaturegame/internal/model"
	"github.com/mcoot/creaturegame/internal/services/session"
	"github.com/mcoot/creaturegame/internal/web/middleware"
	"github.com/mcoot/creaturegame/internal/web/templates/pages"
)

const (
	oauthStateCookie = "oauth_state"
	oauthStateLength = 32
)

// GoogleConsent builds the Google consent page URL for a state value
type GoogleConsent interface {
	AuthCodeURL(state string) string
}

// PasswordResetter completes a password reset from an emailed token
type PasswordResetter interface {
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
}

// AuthConfig holds the dependencies of AuthHandler
type AuthConfig struct {
	// LandingPath is where a successful sign-in goes when no next location was requested
	LandingPath string
	// Google is nil when Google sign-in is disabled
	Google       GoogleConsent
	Resets       PasswordResetter
	Random       random.Random
	CookieSecure bool
	Logger       *slog.Logger
}

// AuthHandler handles sign-in, sign-up, sign-out and password reset pages
type AuthHandler struct {
	cfg    AuthConfig
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(cfg AuthConfig) *AuthHandler {
	if cfg.LandingPath == "" {
		cfg.LandingPath = "/"
	}
	if cfg.Random == nil {
		cfg.Random = random.New()
	}
	return &AuthHandler{
		cfg:    cfg,
		logger: cfg.Logger.With(slog.String("component", "web-auth")),
	}
}

// LoginPage renders the login form
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, r, http.StatusOK, pages.LoginData{Next: r.URL.Query().Get("next")})
}

// Login handles login form submission
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctrl := controllerOrFail(w, r, h.logger)
	if ctrl == nil {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, r, http.StatusBadRequest, pages.LoginData{Error: "Invalid form data"})
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	next := r.FormValue("next")

	if email == "" || password == "" {
		h.renderLogin(w, r, http.StatusBadRequest, pages.LoginData{
			Next: next, Email: email, Error: "Email and password are required.",
		})
		return
	}

	if err := ctrl.Login(r.Context(), email, password); err != nil {
		h.renderLogin(w, r, statusFor(err), pages.LoginData{
			Next: next, Email: email, Error: errorMessage(err),
		})
		return
	}

	h.welcome(w, ctrl, "Welcome back")
	http.Redirect(w, r, middleware.SafeNext(next, h.cfg.LandingPath), http.StatusSeeOther)
}

// RegisterPage renders the sign-up form
func (h *AuthHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.renderRegister(w, r, http.StatusOK, pages.RegisterData{})
}

// Register handles sign-up form submission
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctrl := controllerOrFail(w, r, h.logger)
	if ctrl == nil {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderRegister(w, r, http.StatusBadRequest, pages.RegisterData{Error: "Invalid form data"})
		return
	}

	data := pages.RegisterData{
		Email:       strings.TrimSpace(r.FormValue("email")),
		Username:    r.FormValue("username"),
		FieldErrors: make(map[string]string),
	}
	password := r.FormValue("password")

	if data.Email == "" {
		data.FieldErrors["email"] = "Email is required"
	}
	if password == "" {
		data.FieldErrors["password"] = "Password is required"
	}
	if len(data.FieldErrors) > 0 {
		h.renderRegister(w, r, http.StatusBadRequest, data)
		return
	}

	err := ctrl.Register(r.Context(), data.Email, password, data.Username)
	if err != nil {
		// the account exists even though its profile could not be written
		if ctrl.Snapshot().SignedIn() {
			middleware.SetFlash(w, "error", errorMessage(err))
			http.Redirect(w, r, h.cfg.LandingPath, http.StatusSeeOther)
			return
		}
		if field := formField(err); field != "" {
			data.FieldErrors[field] = errorMessage(err)
		} else {
			data.Error = errorMessage(err)
		}
		h.renderRegister(w, r, statusFor(err), data)
		return
	}

	h.welcome(w, ctrl, "Account created! Welcome")
	http.Redirect(w, r, h.cfg.LandingPath, http.StatusSeeOther)
}

// Logout signs the session out. Signing out twice is harmless.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctrl := middleware.GetController(r.Context())
	if ctrl == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	wasSignedIn := ctrl.Snapshot().SignedIn()
	if err := ctrl.Logout(r.Context()); err != nil {
		h.logger.Warn("logout failed", slog.Any("error", err))
	}
	if wasSignedIn {
		middleware.SetFlash(w, "info", "You have been logged out")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ForgotPasswordPage renders the reset request form
func (h *AuthHandler) ForgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	h.renderForgot(w, r, http.StatusOK, pages.ForgotPasswordData{})
}

// ForgotPassword sends a reset link
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	ctrl := controllerOrFail(w, r, h.logger)
	if ctrl == nil {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderForgot(w, r, http.StatusBadRequest, pages.ForgotPasswordData{Error: "Invalid form data"})
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	if err := ctrl.ForgotPassword(r.Context(), email); err != nil {
		h.renderForgot(w, r, statusFor(err), pages.ForgotPasswordData{Email: email, Error: errorMessage(err)})
		return
	}
	h.renderForgot(w, r, http.StatusOK, pages.ForgotPasswordData{Email: email, Sent: true})
}

// ResetPasswordPage renders the new-password form for an emailed link
func (h *AuthHandler) ResetPasswordPage(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		render(w, r, h.logger, http.StatusBadRequest, pages.ErrorPage(pages.ErrorData{
			PageData: pageData(r, "Invalid link"),
			Status:   http.StatusBadRequest,
			Message:  model.ErrInvalidResetToken.Msg,
		}))
		return
	}
	h.renderReset(w, r, http.StatusOK, pages.ResetPasswordData{Token: token})
}

// ResetPassword sets the new password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderReset(w, r, http.StatusBadRequest, pages.ResetPasswordData{Error: "Invalid form data"})
		return
	}

	token := r.FormValue("token")
	if err := h.cfg.Resets.ConfirmPasswordReset(r.Context(), token, r.FormValue("password")); err != nil {
		h.renderReset(w, r, statusFor(err), pages.ResetPasswordData{Token: token, Error: errorMessage(err)})
		return
	}

	middleware.SetFlash(w, "success", "Password updated. You can now log in.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// GoogleStart redirects to Google's consent page
func (h *AuthHandler) GoogleStart(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Google == nil {
		middleware.SetFlash(w, "error", "Google sign-in is not available.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	state := h.cfg.Random.String(oauthStateLength, random.URLSafe)
	next := middleware.SafeNext(r.URL.Query().Get("next"), "")
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state + ":" + url.QueryEscape(next),
		Path:     "/auth/google",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.cfg.Google.AuthCodeURL(state), http.StatusFound)
}

// GoogleCallback completes a Google sign-in
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	ctrl := controllerOrFail(w, r, h.logger)
	if ctrl == nil {
		return
	}

	cookie, err := r.Cookie(oauthStateCookie)
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Path: "/auth/google", MaxAge: -1})
	if err != nil {
		h.googleFailed(w, r, "Your Google sign-in expired. Please try again.")
		return
	}

	state, next, _ := strings.Cut(cookie.Value, ":")
	next, _ = url.QueryUnescape(next)

	q := r.URL.Query()
	if q.Get("error") != "" {
		h.googleFailed(w, r, "Google sign-in was cancelled.")
		return
	}
	if state == "" || subtle.ConstantTimeCompare([]byte(state), []byte(q.Get("state"))) != 1 {
		h.logger.Warn("google callback state mismatch")
		h.googleFailed(w, r, "Your Google sign-in expired. Please try again.")
		return
	}

	if err := ctrl.LoginWithGoogle(r.Context(), q.Get("code")); err != nil {
		h.googleFailed(w, r, errorMessage(err))
		return
	}

	h.welcome(w, ctrl, "Welcome")
	http.Redirect(w, r, middleware.SafeNext(next, h.cfg.LandingPath), http.StatusSeeOther)
}

func (h *AuthHandler) googleFailed(w http.ResponseWriter, r *http.Request, message string) {
	middleware.SetFlash(w, "error", message)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// welcome flashes a greeting naming the signed-in user, if known
func (h *AuthHandler) welcome(w http.ResponseWriter, ctrl *session.Controller, greeting string) {
	if name := middleware.ViewerOf(ctrl.Snapshot()).Name(); name != "" {
		greeting += ", " + name
	}
	middleware.SetFlash(w, "success", greeting+"!")
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, data pages.LoginData) {
	data.PageData = pageData(r, "Log in")
	data.GoogleEnabled = h.cfg.Google != nil
	render(w, r, h.logger, status, pages.Login(data))
}

func (h *AuthHandler) renderRegister(w http.ResponseWriter, r *http.Request, status int, data pages.RegisterData) {
	data.PageData = pageData(r, "Sign up")
	render(w, r, h.logger, status, pages.Register(data))
}

func (h *AuthHandler) renderForgot(w http.ResponseWriter, r *http.Request, status int, data pages.ForgotPasswordData) {
	data.PageData = pageData(r, "Reset password")
	render(w, r, h.logger, status, pages.ForgotPassword(data))
}

func (h *AuthHandler) renderReset(w http.ResponseWriter, r *http.Request, status int, data pages.ResetPasswordData) {
	data.PageData = pageData(r, "Choose a new password")
	render(w, r, h.logger, status, pages.ResetPassword(data))
}

// formField names the form field an error belongs to, or "" for a form-level error
func formField(err error) string {
	if errors.Is(err, model.ErrInvalidEmail) || errors.Is(err, model.ErrEmailInUse) {
		return "email"
	}
	if model.KindOf(err) != model.KindInvalidInput {
		return ""
	}
	msg := model.Message(err, "")
	switch {
	case strings.HasPrefix(msg, "password"):
		return "password"
	case strings.HasPrefix(msg, "username"):
		return "username"
	default:
		return ""
	}
}
