package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/creaturegame/internal/metrics"
	"github.com/mcoot/creaturegame/internal/model"
	"github.com/mcoot/creaturegame/internal/services/identity"
)

// ProfileStore is the profile adapter the controller reads and writes through
type ProfileStore interface {
	CreateProfile(ctx context.Context, ident *model.Identity, username string) (*model.Profile, error)
	GetProfile(ctx context.Context, id model.IdentityID) (*model.Profile, error)
	UpdateProfile(ctx context.Context, id model.IdentityID, update model.ProfileUpdate) error
	RecordLogin(ctx context.Context, id model.IdentityID) error
	ValidateUsername(username string) error
}

// Config holds controller settings
type Config struct {
	// ProfileFetchTimeout bounds the profile work done for one identity event
	ProfileFetchTimeout time.Duration
}

// DefaultConfig returns default controller configuration
func DefaultConfig() Config {
	return Config{
		ProfileFetchTimeout: 10 * time.Second,
	}
}

// Controller tracks one UI session's identity and profile.
//
// Identity and profile only change in response to provider events; the
// operations below call the provider and let the resulting event drive the
// transition. Events are applied in sequence order: an event whose Seq is not
// newer than the last applied one is discarded, as is a profile fetch that
// completes after a newer event has been applied.
type Controller struct {
	provider identity.Provider
	profiles ProfileStore
	metrics  metrics.Recorder
	logger   *slog.Logger
	cfg      Config

	mu          sync.Mutex
	state       State
	identity    *model.Identity
	profile     *model.Profile
	err         error
	lastSeq     uint64
	applied     bool
	inFlight    int
	registering bool
	version     uint64
	watchers    map[int]func(Snapshot)
	nextWatcher int

	unsubscribe func()
}

// New creates a controller and subscribes it to the provider. The provider's
// initial event settles the controller before New returns.
func New(provider identity.Provider, profiles ProfileStore, m metrics.Recorder, cfg Config, logger *slog.Logger) *Controller {
	if cfg.ProfileFetchTimeout <= 0 {
		cfg.ProfileFetchTimeout = DefaultConfig().ProfileFetchTimeout
	}
	if m == nil {
		m = metrics.Nop{}
	}
	c := &Controller{
		provider: provider,
		profiles: profiles,
		metrics:  m,
		logger:   logger.With(slog.String("component", "session")),
		cfg:      cfg,
		state:    StateInitializing,
		watchers: make(map[int]func(Snapshot)),
	}
	c.unsubscribe = provider.Subscribe(c.handleEvent)
	return c
}

// Snapshot returns the current session view
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Watch calls fn after every change until the returned cancel func is called
func (c *Controller) Watch(fn func(Snapshot)) (cancel func()) {
	c.mu.Lock()
	id := c.nextWatcher
	c.nextWatcher++
	c.watchers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.watchers, id)
		c.mu.Unlock()
	}
}

// Close detaches the controller from its provider and drops all watchers
func (c *Controller) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	c.mu.Lock()
	c.watchers = make(map[int]func(Snapshot))
	c.mu.Unlock()
}

// Register creates an account, then its profile, then refreshes the identity
// so the profile is picked up. username may be blank.
func (c *Controller) Register(ctx context.Context, email, password, username string) error {
	c.begin()

	if err := c.profiles.ValidateUsername(username); err != nil {
		return c.end("register", err)
	}

	c.mu.Lock()
	c.registering = true
	c.mu.Unlock()

	err := c.register(ctx, email, password, username)

	c.mu.Lock()
	c.registering = false
	if c.state == StateProfileLoading && c.identity != nil && c.profile == nil {
		// the refresh never landed; report what is known
		if err == nil {
			err = model.ErrMissingProfile
		}
		c.setStateLocked(StateAuthenticated)
	}
	c.mu.Unlock()

	return c.end("register", err)
}

func (c *Controller) register(ctx context.Context, email, password, username string) error {
	username = strings.TrimSpace(username)
	ident, err := c.provider.Register(ctx, email, password, username)
	if err != nil {
		return err
	}
	if _, err := c.profiles.CreateProfile(ctx, ident, username); err != nil {
		return err
	}
	return c.provider.Refresh(ctx)
}

// Login signs in with email and password
func (c *Controller) Login(ctx context.Context, email, password string) error {
	c.begin()
	_, err := c.provider.Login(ctx, email, password)
	return c.end("login", err)
}

// LoginWithGoogle completes a Google sign-in with an authorization code
func (c *Controller) LoginWithGoogle(ctx context.Context, code string) error {
	c.begin()
	_, err := c.provider.LoginWithGoogle(ctx, code)
	return c.end("login_google", err)
}

// Logout signs out; calling it while signed out is a no-op
func (c *Controller) Logout(ctx context.Context) error {
	c.begin()
	err := c.provider.Logout(ctx)
	return c.end("logout", err)
}

// ForgotPassword requests a password reset email. The session state is unchanged.
func (c *Controller) ForgotPassword(ctx context.Context, email string) error {
	c.begin()
	err := c.provider.RequestPasswordReset(ctx, email)
	return c.end("forgot_password", err)
}

// UpdateProfile merges update into the signed-in user's profile and reloads it
func (c *Controller) UpdateProfile(ctx context.Context, update model.ProfileUpdate) error {
	c.begin()

	ident := c.Snapshot().Identity
	if ident == nil {
		return c.end("update_profile", model.ErrNotSignedIn)
	}

	if err := c.profiles.UpdateProfile(ctx, ident.ID, update); err != nil {
		return c.end("update_profile", err)
	}

	profile, err := c.profiles.GetProfile(ctx, ident.ID)
	if err == nil && profile == nil {
		err = model.ErrMissingProfile
	}
	if err == nil {
		c.mu.Lock()
		if c.identity != nil && c.identity.ID == ident.ID {
			c.profile = profile
		}
		c.mu.Unlock()
	}
	return c.end("update_profile", err)
}

// RepairProfile creates the missing profile of a signed-in identity
func (c *Controller) RepairProfile(ctx context.Context, username string) error {
	c.begin()

	ident := c.Snapshot().Identity
	if ident == nil {
		return c.end("repair_profile", model.ErrNotSignedIn)
	}

	if _, err := c.profiles.CreateProfile(ctx, ident, username); err != nil {
		return c.end("repair_profile", err)
	}
	return c.end("repair_profile", c.provider.Refresh(ctx))
}

// handleEvent applies one provider event
func (c *Controller) handleEvent(e identity.Event) {
	c.mu.Lock()
	if c.applied && e.Seq <= c.lastSeq {
		last := c.lastSeq
		c.mu.Unlock()
		c.discard(e.Seq, last)
		return
	}
	c.applied = true
	c.lastSeq = e.Seq

	if e.Identity == nil {
		c.identity = nil
		c.profile = nil
		c.err = nil
		c.setStateLocked(StateUnauthenticated)
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(snap)
		return
	}

	c.identity = e.Identity
	c.profile = nil
	c.err = nil
	c.setStateLocked(StateProfileLoading)
	registering := c.registering
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.ProfileFetchTimeout)
	defer cancel()

	id := e.Identity.ID
	if e.Kind == identity.EventSignedIn && !registering {
		if err := c.profiles.RecordLogin(ctx, id); err != nil && !errors.Is(err, model.ErrNotFound) {
			c.logger.Warn("failed to record login",
				slog.String("identity_id", string(id)),
				slog.String("error", err.Error()))
		}
	}

	profile, err := c.profiles.GetProfile(ctx, id)

	c.mu.Lock()
	if c.lastSeq != e.Seq {
		last := c.lastSeq
		c.mu.Unlock()
		c.discard(e.Seq, last)
		return
	}

	switch {
	case err != nil:
		c.err = err
		c.setStateLocked(StateAuthenticated)
		c.logger.Error("failed to load profile",
			slog.String("identity_id", string(id)),
			slog.String("error", err.Error()))
	case profile == nil && c.registering:
		// CreateProfile has not run yet; the refresh after it brings the profile
	case profile == nil:
		c.err = model.ErrMissingProfile
		c.setStateLocked(StateAuthenticated)
		c.logger.Warn("signed in without a profile", slog.String("identity_id", string(id)))
	default:
		c.profile = profile
		c.setStateLocked(StateAuthenticated)
	}
	snap = c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
}

func (c *Controller) discard(seq, last uint64) {
	c.metrics.RecordStaleEvent()
	c.logger.Debug("discarded stale identity event",
		slog.Uint64("seq", seq),
		slog.Uint64("last_seq", last))
}

// begin marks an operation in flight and clears the previous error
func (c *Controller) begin() {
	c.mu.Lock()
	c.inFlight++
	c.err = nil
	c.version++
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
}

// end records the operation's outcome and returns err unchanged
func (c *Controller) end(op string, err error) error {
	c.mu.Lock()
	c.inFlight--
	if err != nil {
		c.err = err
	}
	c.version++
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)

	outcome := "ok"
	if err != nil {
		outcome = model.KindOf(err).String()
		c.logger.Info("session operation failed",
			slog.String("operation", op),
			slog.String("kind", outcome),
			slog.String("error", err.Error()))
	}
	c.metrics.RecordOperation(op, outcome)
	return err
}

func (c *Controller) setStateLocked(next State) {
	c.version++
	if c.state == next {
		return
	}
	c.metrics.RecordTransition(c.state.String(), next.String())
	c.logger.Debug("session state changed",
		slog.String("from", c.state.String()),
		slog.String("to", next.String()))
	c.state = next
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:   c.state,
		Loading: c.state == StateInitializing || c.state == StateProfileLoading || c.inFlight > 0,
		Err:     c.err,
		Seq:     c.lastSeq,
		Version: c.version,
	}
	if c.identity != nil {
		ident := *c.identity
		snap.Identity = &ident
		if c.profile != nil {
			profile := *c.profile
			snap.Profile = &profile
		}
	}
	return snap
}

func (c *Controller) notify(snap Snapshot) {
	c.mu.Lock()
	watchers := make([]func(Snapshot), 0, len(c.watchers))
	for _, fn := range c.watchers {
		watchers = append(watchers, fn)
	}
	c.mu.Unlock()

	for _, fn := range watchers {
		fn(snap)
	}
}
