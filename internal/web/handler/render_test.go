package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mcoot/creaturegame/internal/model"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"wrong password", model.ErrBadCredentials, http.StatusUnauthorized, "Incorrect email or password."},
		{"not signed in", model.ErrNotSignedIn, http.StatusUnauthorized, "Please log in to continue."},
		{"invalid input", model.ErrInvalidEmail, http.StatusBadRequest, "invalid email address"},
		{"duplicate email", model.ErrEmailInUse, http.StatusConflict, "email address is already registered"},
		{"missing profile", model.ErrMissingProfile, http.StatusInternalServerError, "Your account has no player profile yet."},
		{"backend down", model.AsTransport("load", errors.New("dial tcp")), http.StatusServiceUnavailable, "We couldn't reach the server. Please try again."},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError, "Something went wrong. Please try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, statusFor(tt.err))
			assert.Equal(t, tt.message, errorMessage(tt.err))
		})
	}
}
