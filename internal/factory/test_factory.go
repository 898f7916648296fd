package factory

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/creaturegame/internal/dependencies/mocks"
	"github.com/mcoot/creaturegame/internal/model"
	"github.com/mcoot/creaturegame/internal/services/identity"
	"github.com/mcoot/creaturegame/internal/services/oauth"
	"github.com/mcoot/creaturegame/internal/services/session"
	"github.com/mcoot/creaturegame/internal/storage"
	"github.com/mcoot/creaturegame/internal/storage/memory"
)

// TestResetURL is the reset page URL used in test apps
const TestResetURL = "http://localhost:8080/reset-password"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	MockMailer *mocks.MockMailer
}

// TestOption customises NewTestApp
type TestOption func(*testOptions)

type testOptions struct {
	store  storage.Storage
	google *oauth.GoogleConfig
}

// WithStorage replaces the in-memory store
func WithStorage(store storage.Storage) TestOption {
	return func(o *testOptions) { o.store = store }
}

// WithGoogle enables Google sign-in against the given endpoints
func WithGoogle(cfg oauth.GoogleConfig) TestOption {
	return func(o *testOptions) { o.google = &cfg }
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp(opts ...TestOption) *TestApp {
	o := testOptions{store: memory.New()}
	for _, opt := range opts {
		opt(&o)
	}

	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockMailer := mocks.NewMockMailer()

	var google *oauth.GoogleProvider
	if o.google != nil {
		google = oauth.NewGoogleProvider(*o.google)
	}

	app := newWithDependencies(dependencies{
		store:    o.store,
		clock:    mockClock,
		random:   mockRandom,
		mailer:   mockMailer,
		google:   google,
		registry: prometheus.NewRegistry(),
		identity: identity.Config{
			BCryptCost:  bcrypt.MinCost,
			ResetURL:    TestResetURL,
			ResetSecret: []byte("test-reset-secret"),
		},
		session:  session.DefaultConfig(),
		sessions: session.DefaultRegistryConfig(),
		logger:   slog.New(slog.NewJSONHandler(io.Discard, nil)),
	})

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		MockMailer: mockMailer,
	}
}

// CreateAccount registers an account with its profile directly, bypassing any session
func (t *TestApp) CreateAccount(ctx context.Context, email, password, username string) (*model.Account, *model.Profile, error) {
	account, err := t.Directory.CreateAccount(ctx, email, password, username)
	if err != nil {
		return nil, nil, err
	}
	p, err := t.Profiles.CreateProfile(ctx, account.Identity(), username)
	if err != nil {
		return account, nil, err
	}
	return account, p, nil
}
