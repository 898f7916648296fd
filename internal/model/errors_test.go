package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesKind(t *testing.T) {
	assert.ErrorIs(t, ErrProfileNotFound, ErrNotFound)
	assert.ErrorIs(t, ErrEmailInUse, ErrAlreadyExists)
	assert.ErrorIs(t, ErrBadCredentials, ErrInvalidCredentials)
	assert.NotErrorIs(t, ErrProfileNotFound, ErrAlreadyExists)
}

func TestNotSignedInIsNotACredentialError(t *testing.T) {
	assert.ErrorIs(t, ErrNotSignedIn, ErrUnauthenticated)
	assert.NotErrorIs(t, ErrNotSignedIn, ErrInvalidCredentials)
	assert.Equal(t, KindUnauthenticated, KindOf(ErrNotSignedIn))
}

func TestErrorIsDistinguishesMessages(t *testing.T) {
	assert.NotErrorIs(t, ErrAccountNotFound, ErrProfileNotFound)
	assert.ErrorIs(t, NewError(KindNotFound, "profile not found"), ErrProfileNotFound)
}

func TestErrorIsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("load: %w", ErrMissingProfile)
	assert.ErrorIs(t, err, ErrProfileInconsistency)
	assert.Equal(t, KindProfileInconsistency, KindOf(err))
}

func TestAsTransport(t *testing.T) {
	cause := errors.New("connection refused")

	err := AsTransport("fetch profile", cause)
	assert.ErrorIs(t, err, ErrTransportFailure)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "fetch profile: connection refused", err.Error())

	assert.Same(t, ErrProfileNotFound, AsTransport("fetch profile", ErrProfileNotFound))
	assert.NoError(t, AsTransport("fetch profile", nil))
}

func TestKindOfUnclassified(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "invalid email address", Message(ErrInvalidEmail, "fallback"))
	assert.Equal(t, "fallback", Message(errors.New("internal detail"), "fallback"))
}

func TestErrorKindString(t *testing.T) {
	assert.Equal(t, "invalid_input", KindInvalidInput.String())
	assert.Equal(t, "transport_failure", KindTransportFailure.String())
	assert.Equal(t, "unauthenticated", KindUnauthenticated.String())
	assert.Equal(t, "unknown", ErrorKind(99).String())
}

func TestProfileUpdateApply(t *testing.T) {
	name := "zed"
	p := &Profile{Username: "ann", Elo: 1000, ProfileImageURL: "https://img/a.png"}
	upd := ProfileUpdate{Username: &name}
	assert.False(t, upd.IsEmpty())
	assert.True(t, ProfileUpdate{}.IsEmpty())

	now := p.CreatedAt.AddDate(0, 0, 1)
	upd.Apply(p, now)

	assert.Equal(t, "zed", p.Username)
	assert.Equal(t, 1000, p.Elo)
	assert.Equal(t, "https://img/a.png", p.ProfileImageURL)
	assert.Equal(t, now, p.UpdatedAt)
}
