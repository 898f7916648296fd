package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/creaturegame/internal/dependencies/clock"
	"github.com/mcoot/creaturegame/internal/metrics"
	"github.com/mcoot/creaturegame/internal/model"
)

// ControllerFactory builds the controller for a new UI session
type ControllerFactory func() *Controller

// RegistryConfig holds configuration for the session registry
type RegistryConfig struct {
	// TTL is how long an idle signed-in session is kept; every lookup extends it
	TTL time.Duration
	// AnonymousTTL is how long an idle session that is not signed in is kept
	AnonymousTTL time.Duration
	// JanitorInterval is how often expired sessions are swept
	JanitorInterval time.Duration
}

// DefaultRegistryConfig returns default registry configuration
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		TTL:             7 * 24 * time.Hour,
		AnonymousTTL:    30 * time.Minute,
		JanitorInterval: 10 * time.Minute,
	}
}

type entry struct {
	controller *Controller
	createdAt  time.Time
	lastSeen   time.Time
}

// Registry owns one Controller per UI session, keyed by an opaque token
type Registry struct {
	factory ControllerFactory
	clock   clock.Clock
	metrics metrics.Recorder
	cfg     RegistryConfig
	logger  *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*entry
}

// NewRegistry creates a Registry
func NewRegistry(factory ControllerFactory, clk clock.Clock, m metrics.Recorder, cfg RegistryConfig, logger *slog.Logger) *Registry {
	defaults := DefaultRegistryConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = defaults.TTL
	}
	if cfg.AnonymousTTL <= 0 || cfg.AnonymousTTL > cfg.TTL {
		cfg.AnonymousTTL = min(defaults.AnonymousTTL, cfg.TTL)
	}
	if cfg.JanitorInterval <= 0 {
		cfg.JanitorInterval = defaults.JanitorInterval
	}
	if m == nil {
		m = metrics.Nop{}
	}
	return &Registry{
		factory:  factory,
		clock:    clk,
		metrics:  m,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "session_registry")),
		sessions: make(map[string]*entry),
	}
}

// TTL returns the idle lifetime of a signed-in session
func (r *Registry) TTL() time.Duration {
	return r.cfg.TTL
}

// expired reports whether e has been idle longer than its lifetime allows.
// Sessions that never signed in get the shorter anonymous lifetime.
func (r *Registry) expired(e *entry, now time.Time) bool {
	ttl := r.cfg.AnonymousTTL
	if e.controller.Snapshot().SignedIn() {
		ttl = r.cfg.TTL
	}
	return now.After(e.lastSeen.Add(ttl))
}

// Create starts a new UI session and returns its token and controller
func (r *Registry) Create() (string, *Controller) {
	token := generateToken("sess_")
	now := r.clock.Now()
	controller := r.factory()

	r.mu.Lock()
	r.sessions[token] = &entry{
		controller: controller,
		createdAt:  now,
		lastSeen:   now,
	}
	count := len(r.sessions)
	r.mu.Unlock()

	r.metrics.SetActiveSessions(count)
	r.logger.Debug("session created")
	return token, controller
}

// Get returns the controller for token and extends the session's lifetime
func (r *Registry) Get(token string) (*Controller, error) {
	now := r.clock.Now()

	r.mu.Lock()
	e, ok := r.sessions[token]
	if !ok {
		r.mu.Unlock()
		return nil, model.ErrSessionNotFound
	}
	if r.expired(e, now) {
		delete(r.sessions, token)
		count := len(r.sessions)
		r.mu.Unlock()

		e.controller.Close()
		r.metrics.SetActiveSessions(count)
		return nil, model.ErrSessionNotFound
	}
	e.lastSeen = now
	r.mu.Unlock()

	return e.controller, nil
}

// Remove ends a session
func (r *Registry) Remove(token string) {
	r.mu.Lock()
	e, ok := r.sessions[token]
	delete(r.sessions, token)
	count := len(r.sessions)
	r.mu.Unlock()

	if ok {
		e.controller.Close()
		r.metrics.SetActiveSessions(count)
	}
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CleanExpired removes expired sessions and returns how many were removed
func (r *Registry) CleanExpired() int {
	now := r.clock.Now()

	var expired []*entry
	r.mu.Lock()
	for token, e := range r.sessions {
		if r.expired(e, now) {
			expired = append(expired, e)
			delete(r.sessions, token)
		}
	}
	count := len(r.sessions)
	r.mu.Unlock()

	for _, e := range expired {
		e.controller.Close()
	}
	if len(expired) > 0 {
		r.metrics.SetActiveSessions(count)
		r.logger.Info("expired sessions removed", slog.Int("count", len(expired)))
	}
	return len(expired)
}

// StartJanitor sweeps expired sessions until ctx is done
func (r *Registry) StartJanitor(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.JanitorInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.CleanExpired()
			}
		}
	}()
}

// Close ends every session
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*entry)
	r.mu.Unlock()

	for _, e := range sessions {
		e.controller.Close()
	}
	r.metrics.SetActiveSessions(0)
}

// generateToken generates a random token with a prefix
func generateToken(prefix string) string {
	b := make([]byte, 24)
	_, _ = rand.Read(b)
	return prefix + base64.RawURLEncoding.EncodeToString(b)
}
