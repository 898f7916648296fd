package factory

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/creaturegame/internal/model"
	"github.com/mcoot/creaturegame/internal/services/session"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

func (s *IntegrationSuite) TearDownTest() {
	s.Require().NoError(s.app.Close())
}

// Test: register, sign out, sign back in from another browser session
func (s *IntegrationSuite) TestRegisterLogoutLoginFlow() {
	_, first := s.app.Registry.Create()

	err := first.Register(s.ctx, "a@x.com", "secret1", "ann")
	s.Require().NoError(err)

	snap := first.Snapshot()
	s.Equal(session.StateAuthenticated, snap.State)
	s.False(snap.Loading)
	s.Require().NotNil(snap.Profile)
	s.Equal("ann", snap.Profile.Username)
	s.Equal(model.DefaultElo, snap.Profile.Elo)
	s.Equal("a@x.com", snap.Profile.Email)
	s.Equal(snap.Identity.ID, snap.Profile.ID)

	s.Require().NoError(first.Logout(s.ctx))
	s.Equal(session.StateUnauthenticated, first.Snapshot().State)
	s.Nil(first.Snapshot().Profile)

	// a second logout is a no-op
	s.Require().NoError(first.Logout(s.ctx))
	s.Equal(session.StateUnauthenticated, first.Snapshot().State)

	s.app.MockClock.Advance(time.Hour)
	_, second := s.app.Registry.Create()
	s.Require().NoError(second.Login(s.ctx, "A@X.com", "secret1"))

	snap = second.Snapshot()
	s.Equal(session.StateAuthenticated, snap.State)
	s.Require().NotNil(snap.Profile)
	s.Equal("ann", snap.Profile.Username)
	s.Equal(s.app.MockClock.Now(), snap.Profile.LastLoginAt)
}

// Test: each browser session has its own identity
func (s *IntegrationSuite) TestSessionsAreIsolated() {
	_, _, err := s.app.CreateAccount(s.ctx, "b@x.com", "secret1", "bob")
	s.Require().NoError(err)

	tokenA, a := s.app.Registry.Create()
	tokenB, b := s.app.Registry.Create()
	s.NotEqual(tokenA, tokenB)

	s.Require().NoError(a.Login(s.ctx, "b@x.com", "secret1"))

	s.True(a.Snapshot().SignedIn())
	s.False(b.Snapshot().SignedIn())
	s.Equal(session.StateUnauthenticated, b.Snapshot().State)

	got, err := s.app.Registry.Get(tokenA)
	s.Require().NoError(err)
	s.Same(a, got)
}

// Test: wrong password leaves the session as it was
func (s *IntegrationSuite) TestWrongPasswordKeepsState() {
	_, _, err := s.app.CreateAccount(s.ctx, "c@x.com", "secret1", "cat")
	s.Require().NoError(err)

	_, ctrl := s.app.Registry.Create()
	before := ctrl.Snapshot()

	err = ctrl.Login(s.ctx, "c@x.com", "wrong-password")
	s.ErrorIs(err, model.ErrInvalidCredentials)

	after := ctrl.Snapshot()
	s.Equal(before.State, after.State)
	s.Nil(after.Identity)
	s.ErrorIs(after.Err, model.ErrInvalidCredentials)
}

// Test: forgot password, follow the emailed link, sign in with the new password
func (s *IntegrationSuite) TestPasswordResetFlow() {
	_, _, err := s.app.CreateAccount(s.ctx, "d@x.com", "secret1", "dan")
	s.Require().NoError(err)

	_, ctrl := s.app.Registry.Create()
	s.Require().NoError(ctrl.ForgotPassword(s.ctx, "d@x.com"))
	s.Equal(session.StateUnauthenticated, ctrl.Snapshot().State)

	mail, ok := s.app.MockMailer.Last()
	s.Require().True(ok)
	s.Equal("d@x.com", mail.To)

	link, err := url.Parse(mail.URL)
	s.Require().NoError(err)
	token := link.Query().Get("token")
	s.Require().NotEmpty(token)

	s.Require().NoError(s.app.Directory.ConfirmPasswordReset(s.ctx, token, "newsecret"))

	// the link is single use: the stamp no longer matches the new password
	err = s.app.Directory.ConfirmPasswordReset(s.ctx, token, "another1")
	s.ErrorIs(err, model.ErrInvalidResetToken)

	s.ErrorIs(ctrl.Login(s.ctx, "d@x.com", "secret1"), model.ErrInvalidCredentials)
	s.Require().NoError(ctrl.Login(s.ctx, "d@x.com", "newsecret"))
	s.True(ctrl.Snapshot().SignedIn())
}

// Test: unknown emails are accepted without sending anything
func (s *IntegrationSuite) TestForgotPasswordUnknownEmail() {
	_, ctrl := s.app.Registry.Create()
	s.Require().NoError(ctrl.ForgotPassword(s.ctx, "nobody@x.com"))
	s.Empty(s.app.MockMailer.Sent())
}

// Test: an account without a profile is signed in with a recoverable error
func (s *IntegrationSuite) TestMissingProfileIsRecoverable() {
	_, err := s.app.Directory.CreateAccount(s.ctx, "e@x.com", "secret1", "eve")
	s.Require().NoError(err)

	_, ctrl := s.app.Registry.Create()
	s.Require().NoError(ctrl.Login(s.ctx, "e@x.com", "secret1"))

	snap := ctrl.Snapshot()
	s.Equal(session.StateAuthenticated, snap.State)
	s.NotNil(snap.Identity)
	s.Nil(snap.Profile)
	s.ErrorIs(snap.Err, model.ErrProfileInconsistency)

	s.Require().NoError(ctrl.RepairProfile(s.ctx, ""))
	snap = ctrl.Snapshot()
	s.Require().NotNil(snap.Profile)
	s.Equal("eve", snap.Profile.Username)
	s.NoError(snap.Err)
}

// Test: profile edits are merged and reloaded into the session
func (s *IntegrationSuite) TestUpdateProfile() {
	_, ctrl := s.app.Registry.Create()
	s.Require().NoError(ctrl.Register(s.ctx, "f@x.com", "secret1", "fay"))

	s.app.MockClock.Advance(time.Minute)
	name := "faye"
	s.Require().NoError(ctrl.UpdateProfile(s.ctx, model.ProfileUpdate{Username: &name}))

	p := ctrl.Snapshot().Profile
	s.Require().NotNil(p)
	s.Equal("faye", p.Username)
	s.Equal(model.DefaultElo, p.Elo)
	s.Equal(s.app.MockClock.Now(), p.UpdatedAt)

	stored, err := s.app.Profiles.GetProfile(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("faye", stored.Username)
}

// Test: usernames with markup characters are stored exactly as typed, minus outer whitespace
func (s *IntegrationSuite) TestRegisterKeepsUsernameAsTyped() {
	names := []string{"a<b>c", "<i>zed</i>", "Tom &amp; Jerry", "  x>y&z  "}

	for i, name := range names {
		_, ctrl := s.app.Registry.Create()
		email := fmt.Sprintf("p%d@x.com", i)
		s.Require().NoError(ctrl.Register(s.ctx, email, "secret1", name), name)

		want := strings.TrimSpace(name)
		snap := ctrl.Snapshot()
		s.Require().NotNil(snap.Profile, name)
		s.Equal(want, snap.Profile.Username)
		s.Equal(want, snap.Identity.DisplayName)

		stored, err := s.app.Profiles.GetProfile(s.ctx, snap.Identity.ID)
		s.Require().NoError(err)
		s.Equal(want, stored.Username)
	}
}

// Test: idle sessions expire and are replaced
func (s *IntegrationSuite) TestSessionExpiry() {
	token, _ := s.app.Registry.Create()
	s.Equal(1, s.app.Registry.Len())

	s.app.MockClock.Advance(s.app.Registry.TTL() + time.Second)

	_, err := s.app.Registry.Get(token)
	s.ErrorIs(err, model.ErrSessionNotFound)
	s.Equal(0, s.app.Registry.Len())
}

// Test: session operations are counted
func (s *IntegrationSuite) TestMetricsRecorded() {
	_, ctrl := s.app.Registry.Create()
	s.Require().NoError(ctrl.Register(s.ctx, "g@x.com", "secret1", "gus"))

	count, err := testutil.GatherAndCount(s.app.MetricsRegistry, "cgame_session_operations_total")
	s.Require().NoError(err)
	s.Positive(count)

	expected := `
# HELP cgame_active_sessions Browser sessions currently held in memory
# TYPE cgame_active_sessions gauge
cgame_active_sessions 1
`
	s.NoError(testutil.GatherAndCompare(s.app.MetricsRegistry, strings.NewReader(expected), "cgame_active_sessions"))
}
