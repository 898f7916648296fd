package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mcoot/creaturegame/internal/api/request"
	"github.com/mcoot/creaturegame/internal/api/response"
)

// PasswordResetter completes a password reset from an emailed token
type PasswordResetter interface {
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
}

// ResetHandler completes password resets; it needs no session
type ResetHandler struct {
	resets PasswordResetter
}

// NewResetHandler creates a new reset handler
func NewResetHandler(resets PasswordResetter) *ResetHandler {
	return &ResetHandler{resets: resets}
}

// Confirm handles POST /api/v1/password-reset/confirm
func (h *ResetHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req request.ConfirmPasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Token == "" {
		WriteError(w, NewInvalidRequestError("token is required"))
		return
	}

	if err := h.resets.ConfirmPasswordReset(r.Context(), req.Token, req.Password); err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.Status{Status: "updated"})
}
