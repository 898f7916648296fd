package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mcoot/creaturegame/internal/api/middleware"
	"github.com/mcoot/creaturegame/internal/api/request"
	"github.com/mcoot/creaturegame/internal/api/response"
	"github.com/mcoot/creaturegame/internal/services/session"
)

// SessionHandler handles session lifecycle and authentication endpoints
type SessionHandler struct {
	registry *session.Registry
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(registry *session.Registry) *SessionHandler {
	return &SessionHandler{
		registry: registry,
	}
}

// Create handles POST /api/v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	token, ctrl := h.registry.Create()
	response.JSON(w, http.StatusCreated, response.CreateSessionResponse{
		SessionToken: token,
		Session:      response.SessionFromSnapshot(ctrl.Snapshot()),
	})
}

// Get handles GET /api/v1/session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctrl := middleware.MustGetController(r.Context())
	response.JSON(w, http.StatusOK, response.SessionFromSnapshot(ctrl.Snapshot()))
}

// Delete handles DELETE /api/v1/session
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.registry.Remove(middleware.GetToken(r.Context()))
	response.NoContent(w)
}

// Register handles POST /api/v1/session/register
func (h *SessionHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if strings.TrimSpace(req.Email) == "" {
		WriteError(w, NewInvalidRequestError("email is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}

	ctrl := middleware.MustGetController(r.Context())
	if err := ctrl.Register(r.Context(), req.Email, req.Password, req.Username); err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.SessionFromSnapshot(ctrl.Snapshot()))
}

// Login handles POST /api/v1/session/login
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if strings.TrimSpace(req.Email) == "" {
		WriteError(w, NewInvalidRequestError("email is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}

	ctrl := middleware.MustGetController(r.Context())
	if err := ctrl.Login(r.Context(), req.Email, req.Password); err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SessionFromSnapshot(ctrl.Snapshot()))
}

// Logout handles POST /api/v1/session/logout. Logging out twice is not an error.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctrl := middleware.MustGetController(r.Context())
	if err := ctrl.Logout(r.Context()); err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.SessionFromSnapshot(ctrl.Snapshot()))
}

// RequestPasswordReset handles POST /api/v1/session/password-reset
func (h *SessionHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req request.PasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	ctrl := middleware.MustGetController(r.Context())
	if err := ctrl.ForgotPassword(r.Context(), req.Email); err != nil {
		WriteError(w, err)
		return
	}

	// Unknown addresses get the same answer
	response.JSON(w, http.StatusAccepted, response.Status{Status: "sent"})
}
