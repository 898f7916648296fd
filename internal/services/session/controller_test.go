package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/creaturegame/internal/dependencies/mocks"
	"github.com/mcoot/creaturegame/internal/metrics"
	"github.com/mcoot/creaturegame/internal/model"
	"github.com/mcoot/creaturegame/internal/services/identity"
	"github.com/mcoot/creaturegame/internal/services/profile"
	"github.com/mcoot/creaturegame/internal/storage/memory"
	"github.com/mcoot/creaturegame/internal/testutil"
)

// ControllerSuite runs the controller against the real identity and profile stack
type ControllerSuite struct {
	suite.Suite
	storage    *memory.Storage
	clock      *mocks.MockClock
	mailer     *mocks.MockMailer
	dir        *identity.Directory
	profiles   *profile.Service
	controller *Controller
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.mailer = mocks.NewMockMailer()
	s.dir = identity.NewDirectory(s.storage, s.clock, s.mailer, identity.Config{
		BCryptCost:  bcrypt.MinCost,
		ResetSecret: []byte("test-secret"),
	}, testutil.NopLogger())
	s.profiles = profile.New(s.storage, s.clock, testutil.NopLogger())
	s.controller = s.newController()
	s.ctx = context.Background()
}

func (s *ControllerSuite) newController() *Controller {
	return New(identity.NewClient(s.dir, nil), s.profiles, metrics.Nop{}, DefaultConfig(), testutil.NopLogger())
}

// registerElsewhere registers through a separate session and signs it out
func (s *ControllerSuite) registerElsewhere(email, password, username string) {
	other := s.newController()
	s.Require().NoError(other.Register(s.ctx, email, password, username))
	s.Require().NoError(other.Logout(s.ctx))
	other.Close()
}

func (s *ControllerSuite) TestInitialStateSettlesUnauthenticated() {
	snap := s.controller.Snapshot()
	s.Equal(StateUnauthenticated, snap.State)
	s.False(snap.Loading)
	s.Nil(snap.Identity)
	s.Nil(snap.Profile)
	s.NoError(snap.Err)
}

func (s *ControllerSuite) TestRegisterScenario() {
	err := s.controller.Register(s.ctx, "a@x.com", "secret1", "ann")
	s.Require().NoError(err)

	snap := s.controller.Snapshot()
	s.Equal(StateAuthenticated, snap.State)
	s.False(snap.Loading)
	s.NoError(snap.Err)
	s.Require().NotNil(snap.Identity)
	s.Equal("a@x.com", snap.Identity.Email)
	s.Require().NotNil(snap.Profile)
	s.Equal("ann", snap.Profile.Username)
	s.Equal(1000, snap.Profile.Elo)
	s.Equal(snap.Identity.ID, snap.Profile.ID)

	stored, err := s.profiles.GetProfile(s.ctx, snap.Identity.ID)
	s.Require().NoError(err)
	s.Equal("ann", stored.Username)
}

func (s *ControllerSuite) TestRegisterTrimsUsername() {
	s.Require().NoError(s.controller.Register(s.ctx, "a@x.com", "secret1", "   ann  "))

	snap := s.controller.Snapshot()
	s.Equal("ann", snap.Profile.Username)
	s.Equal("ann", snap.Identity.DisplayName)
}

func (s *ControllerSuite) TestRegisterBlankUsernameUsesFallback() {
	s.Require().NoError(s.controller.Register(s.ctx, "bobby@x.com", "secret1", "  "))

	snap := s.controller.Snapshot()
	s.Require().NotNil(snap.Profile)
	s.Equal("bobby", snap.Profile.Username)
	s.Equal(model.DefaultElo, snap.Profile.Elo)
}

func (s *ControllerSuite) TestRegisterValidation() {
	tests := []struct {
		name     string
		email    string
		password string
		username string
	}{
		{"short username", "a@x.com", "secret1", "ab"},
		{"malformed email", "not-an-email", "secret1", "ann"},
		{"short password", "a@x.com", "12345", "ann"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			err := s.controller.Register(s.ctx, tt.email, tt.password, tt.username)
			s.ErrorIs(err, model.ErrInvalidInput)

			snap := s.controller.Snapshot()
			s.Equal(StateUnauthenticated, snap.State)
			s.ErrorIs(snap.Err, model.ErrInvalidInput)
			s.False(snap.Loading)
		})
	}

	// nothing was created
	_, err := s.dir.Authenticate(s.ctx, "a@x.com", "secret1")
	s.ErrorIs(err, model.ErrBadCredentials)
}

func (s *ControllerSuite) TestRegisterDuplicateEmail() {
	s.registerElsewhere("a@x.com", "secret1", "ann")

	err := s.controller.Register(s.ctx, "a@x.com", "secret2", "bob")
	s.ErrorIs(err, model.ErrAlreadyExists)
	s.Equal(StateUnauthenticated, s.controller.Snapshot().State)
}

func (s *ControllerSuite) TestLoginCorrectCredentials() {
	s.registerElsewhere("a@x.com", "secret1", "ann")
	s.clock.Advance(time.Hour)

	s.Require().NoError(s.controller.Login(s.ctx, "a@x.com", "secret1"))

	snap := s.controller.Snapshot()
	s.Equal(StateAuthenticated, snap.State)
	s.False(snap.Loading)
	s.Require().NotNil(snap.Profile)
	s.Equal("ann", snap.Profile.Username)
	s.Equal(s.clock.Now(), snap.Profile.LastLoginAt)
}

func (s *ControllerSuite) TestLoginWrongPasswordLeavesStateUnchanged() {
	s.registerElsewhere("a@x.com", "secret1", "ann")
	before := s.controller.Snapshot()

	err := s.controller.Login(s.ctx, "a@x.com", "wrong-password")
	s.ErrorIs(err, model.ErrInvalidCredentials)

	after := s.controller.Snapshot()
	s.Equal(before.State, after.State)
	s.Equal(before.Identity, after.Identity)
	s.Equal(before.Profile, after.Profile)
	s.Equal(before.Seq, after.Seq)
	s.ErrorIs(after.Err, model.ErrInvalidCredentials)
	s.False(after.Loading)
}

func (s *ControllerSuite) TestFailedLoginWhileSignedInKeepsSession() {
	s.Require().NoError(s.controller.Register(s.ctx, "a@x.com", "secret1", "ann"))
	before := s.controller.Snapshot()

	s.Error(s.controller.Login(s.ctx, "a@x.com", "wrong-password"))

	after := s.controller.Snapshot()
	s.Equal(StateAuthenticated, after.State)
	s.Equal(before.Identity, after.Identity)
	s.Equal(before.Profile, after.Profile)
}

func (s *ControllerSuite) TestLogoutIsIdempotent() {
	s.Require().NoError(s.controller.Register(s.ctx, "a@x.com", "secret1", "ann"))

	s.NoError(s.controller.Logout(s.ctx))
	first := s.controller.Snapshot()
	s.NoError(s.controller.Logout(s.ctx))
	second := s.controller.Snapshot()

	for _, snap := range []Snapshot{first, second} {
		s.Equal(StateUnauthenticated, snap.State)
		s.Nil(snap.Identity)
		s.Nil(snap.Profile)
		s.NoError(snap.Err)
	}
	s.Equal(first.Seq, second.Seq)
}

func (s *ControllerSuite) TestAuthenticatedWithoutProfile() {
	_, err := s.dir.CreateAccount(s.ctx, "a@x.com", "secret1", "ann")
	s.Require().NoError(err)

	s.Require().NoError(s.controller.Login(s.ctx, "a@x.com", "secret1"))

	snap := s.controller.Snapshot()
	s.Equal(StateAuthenticated, snap.State)
	s.False(snap.Loading)
	s.NotNil(snap.Identity)
	s.Nil(snap.Profile)
	s.ErrorIs(snap.Err, model.ErrProfileInconsistency)
	s.Equal(model.KindProfileInconsistency, snap.ErrorKind())
}

func (s *ControllerSuite) TestAuthenticatedWithoutProfileIsLogged() {
	_, err := s.dir.CreateAccount(s.ctx, "a@x.com", "secret1", "ann")
	s.Require().NoError(err)

	logger, logs := testutil.BufferLogger()
	ctrl := New(identity.NewClient(s.dir, nil), s.profiles, metrics.Nop{}, DefaultConfig(), logger)
	defer ctrl.Close()

	s.Require().NoError(ctrl.Login(s.ctx, "a@x.com", "secret1"))

	s.Contains(logs.String(), `"level":"WARN"`)
	s.Contains(logs.String(), "signed in without a profile")
}

func (s *ControllerSuite) TestRepairProfile() {
	_, err := s.dir.CreateAccount(s.ctx, "a@x.com", "secret1", "ann")
	s.Require().NoError(err)
	s.Require().NoError(s.controller.Login(s.ctx, "a@x.com", "secret1"))

	s.Require().NoError(s.controller.RepairProfile(s.ctx, "annie"))

	snap := s.controller.Snapshot()
	s.Equal(StateAuthenticated, snap.State)
	s.NoError(snap.Err)
	s.Require().NotNil(snap.Profile)
	s.Equal("annie", snap.Profile.Username)

	s.ErrorIs(s.controller.RepairProfile(s.ctx, "annie"), model.ErrAlreadyExists)
}

func (s *ControllerSuite) TestRepairProfileSignedOut() {
	s.ErrorIs(s.controller.RepairProfile(s.ctx, "ann"), model.ErrNotSignedIn)
}

func (s *ControllerSuite) TestForgotPassword() {
	s.registerElsewhere("a@x.com", "secret1", "ann")
	before := s.controller.Snapshot()

	s.Require().NoError(s.controller.ForgotPassword(s.ctx, "a@x.com"))

	s.Len(s.mailer.Sent(), 1)
	after := s.controller.Snapshot()
	s.Equal(before.State, after.State)
	s.Equal(before.Seq, after.Seq)

	s.ErrorIs(s.controller.ForgotPassword(s.ctx, "nope"), model.ErrInvalidInput)
}

func (s *ControllerSuite) TestUpdateProfile() {
	s.Require().NoError(s.controller.Register(s.ctx, "a@x.com", "secret1", "ann"))

	elo := 1337
	name := "annie"
	s.Require().NoError(s.controller.UpdateProfile(s.ctx, model.ProfileUpdate{Elo: &elo, Username: &name}))

	snap := s.controller.Snapshot()
	s.Equal(1337, snap.Profile.Elo)
	s.Equal("annie", snap.Profile.Username)
}

func (s *ControllerSuite) TestUpdateProfileErrors() {
	elo := 5
	s.ErrorIs(s.controller.UpdateProfile(s.ctx, model.ProfileUpdate{Elo: &elo}), model.ErrNotSignedIn)

	s.Require().NoError(s.controller.Register(s.ctx, "a@x.com", "secret1", "ann"))
	s.ErrorIs(s.controller.UpdateProfile(s.ctx, model.ProfileUpdate{}), model.ErrInvalidInput)
	s.NotNil(s.controller.Snapshot().Profile)
}

func (s *ControllerSuite) TestWatch() {
	var mu sync.Mutex
	var states []State
	cancel := s.controller.Watch(func(snap Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, snap.State)
	})

	s.Require().NoError(s.controller.Register(s.ctx, "a@x.com", "secret1", "ann"))
	cancel()

	mu.Lock()
	seen := len(states)
	s.Contains(states, StateProfileLoading)
	s.Equal(StateAuthenticated, states[seen-1])
	mu.Unlock()

	s.Require().NoError(s.controller.Logout(s.ctx))

	mu.Lock()
	defer mu.Unlock()
	s.Len(states, seen)
}

func (s *ControllerSuite) TestSessionsAreIndependent() {
	other := s.newController()
	defer other.Close()

	s.Require().NoError(s.controller.Register(s.ctx, "a@x.com", "secret1", "ann"))

	s.Equal(StateAuthenticated, s.controller.Snapshot().State)
	s.Equal(StateUnauthenticated, other.Snapshot().State)
}

// Event ordering and races, driven through fakes

func newFakeController(p *fakeProvider, profiles *fakeProfiles) *Controller {
	return New(p, profiles, metrics.Nop{}, DefaultConfig(), testutil.NopLogger())
}

func TestControllerStartsInitializing(t *testing.T) {
	c := newFakeController(&fakeProvider{holdInitial: true}, newFakeProfiles())

	snap := c.Snapshot()
	assert.Equal(t, StateInitializing, snap.State)
	assert.True(t, snap.Loading)
}

func TestControllerDiscardsStaleEvents(t *testing.T) {
	provider := &fakeProvider{}
	profiles := newFakeProfiles()
	profiles.put(&model.Profile{ID: "id-1", Username: "ann", Elo: model.DefaultElo})
	c := newFakeController(provider, profiles)

	provider.emit(identity.Event{Seq: 2, Kind: identity.EventSignedIn, Identity: &model.Identity{ID: "id-1"}})
	provider.emit(identity.Event{Seq: 1, Kind: identity.EventSignedOut})
	provider.emit(identity.Event{Seq: 2, Kind: identity.EventSignedOut})

	snap := c.Snapshot()
	assert.Equal(t, StateAuthenticated, snap.State)
	assert.Equal(t, uint64(2), snap.Seq)
	require.NotNil(t, snap.Profile)
	assert.Equal(t, "ann", snap.Profile.Username)
}

func TestControllerDropsProfileFetchOvertakenByNewerEvent(t *testing.T) {
	provider := &fakeProvider{}
	profiles := newFakeProfiles()
	profiles.put(&model.Profile{ID: "id-1", Username: "ann", Elo: model.DefaultElo})
	c := newFakeController(provider, profiles)

	block := make(chan struct{})
	started := make(chan struct{})
	profiles.mu.Lock()
	profiles.block, profiles.fetchStarted = block, started
	profiles.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		provider.emit(identity.Event{Seq: 1, Kind: identity.EventSignedIn, Identity: &model.Identity{ID: "id-1"}})
	}()

	<-started
	assert.Equal(t, StateProfileLoading, c.Snapshot().State)

	provider.emit(identity.Event{Seq: 2, Kind: identity.EventSignedOut})
	close(block)
	<-done

	snap := c.Snapshot()
	assert.Equal(t, StateUnauthenticated, snap.State)
	assert.Nil(t, snap.Identity)
	assert.Nil(t, snap.Profile)
	assert.Equal(t, uint64(2), snap.Seq)
}

func TestControllerProfileFetchFailure(t *testing.T) {
	provider := &fakeProvider{}
	profiles := newFakeProfiles()
	profiles.getErr = model.WrapError(model.KindTransportFailure, "could not load profile", errors.New("timeout"))
	c := newFakeController(provider, profiles)

	provider.emit(identity.Event{Seq: 1, Kind: identity.EventSignedIn, Identity: &model.Identity{ID: "id-1"}})

	snap := c.Snapshot()
	assert.Equal(t, StateAuthenticated, snap.State)
	assert.False(t, snap.Loading)
	assert.NotNil(t, snap.Identity)
	assert.Nil(t, snap.Profile)
	assert.ErrorIs(t, snap.Err, model.ErrTransportFailure)
}

func TestControllerLoadingWhileOperationInFlight(t *testing.T) {
	provider := &fakeProvider{
		loginStarted: make(chan struct{}),
		loginRelease: make(chan struct{}),
		loginErr:     model.ErrBadCredentials,
	}
	c := newFakeController(provider, newFakeProfiles())
	require.False(t, c.Snapshot().Loading)

	result := make(chan error, 1)
	go func() {
		result <- c.Login(context.Background(), "a@x.com", "wrong")
	}()

	<-provider.loginStarted
	assert.True(t, c.Snapshot().Loading)
	assert.Equal(t, StateUnauthenticated, c.Snapshot().State)

	close(provider.loginRelease)
	assert.ErrorIs(t, <-result, model.ErrInvalidCredentials)
	assert.False(t, c.Snapshot().Loading)
}

func TestControllerClose(t *testing.T) {
	provider := &fakeProvider{}
	c := newFakeController(provider, newFakeProfiles())

	calls := 0
	c.Watch(func(Snapshot) { calls++ })
	c.Close()

	provider.emit(identity.Event{Seq: 1, Kind: identity.EventSignedOut})
	assert.Equal(t, 0, calls)
}
