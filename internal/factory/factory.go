package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mcoot/creaturegame/internal/dependencies/clock"
	"github.com/mcoot/creaturegame/internal/dependencies/mailer"
	"github.com/mcoot/creaturegame/internal/dependencies/random"
	"github.com/mcoot/creaturegame/internal/metrics"
	"github.com/mcoot/creaturegame/internal/services/identity"
	"github.com/mcoot/creaturegame/internal/services/oauth"
	"github.com/mcoot/creaturegame/internal/services/profile"
	"github.com/mcoot/creaturegame/internal/services/session"
	"github.com/mcoot/creaturegame/internal/storage"
	"github.com/mcoot/creaturegame/internal/storage/memory"
	mongostorage "github.com/mcoot/creaturegame/internal/storage/mongo"
	redisstorage "github.com/mcoot/creaturegame/internal/storage/redis"
	"github.com/mcoot/creaturegame/internal/web/sse"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeMongo  = "mongo"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random
	Mailer mailer.Mailer

	// Services
	Directory *identity.Directory
	Google    *oauth.GoogleProvider // nil when Google sign-in is not configured
	Profiles  *profile.Service
	Registry  *session.Registry

	// Live updates
	HubManager  *sse.HubManager
	Broadcaster *sse.Broadcaster

	// Metrics
	Metrics         *metrics.Collector
	MetricsRegistry *prometheus.Registry

	logger     *slog.Logger
	sessionCfg session.Config
	closer     io.Closer
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "mongo")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// MongoConfig holds MongoDB connection settings (required if StorageType is "mongo")
	MongoConfig *mongostorage.Config

	// Identity configures accounts and password resets. A missing reset
	// secret is replaced by a random one, which invalidates links on restart.
	Identity identity.Config
	// Google enables Google sign-in when its client credentials are set
	Google oauth.GoogleConfig
	// SMTP sends reset emails when its host is set; otherwise links are logged
	SMTP mailer.SMTPConfig

	Session  session.Config
	Registry session.RegistryConfig
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var (
		store  storage.Storage
		closer io.Closer
	)
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store, closer = redisStore, redisStore
	case StorageTypeMongo:
		if cfg.MongoConfig == nil {
			return nil, errors.New("MongoConfig required when StorageType is mongo")
		}
		mongoStore, err := mongostorage.New(*cfg.MongoConfig)
		if err != nil {
			return nil, err
		}
		store, closer = mongoStore, mongoStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'redis' or 'mongo'")
	}

	rnd := random.New()

	var m mailer.Mailer = mailer.NewLogMailer(logger)
	if cfg.SMTP.Enabled() {
		m = mailer.NewSMTPMailer(cfg.SMTP)
	}

	if len(cfg.Identity.ResetSecret) == 0 {
		logger.Warn("RESET_TOKEN_SECRET not set, using a random secret; reset links will not survive a restart")
		cfg.Identity.ResetSecret = []byte(rnd.String(48, random.URLSafe))
	}

	var google *oauth.GoogleProvider
	if cfg.Google.Enabled() {
		google = oauth.NewGoogleProvider(cfg.Google)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app := newWithDependencies(dependencies{
		store:    store,
		clock:    clock.New(),
		random:   rnd,
		mailer:   m,
		google:   google,
		registry: reg,
		identity: cfg.Identity,
		session:  cfg.Session,
		sessions: cfg.Registry,
		logger:   logger,
	})
	app.closer = closer
	return app, nil
}

type dependencies struct {
	store    storage.Storage
	clock    clock.Clock
	random   random.Random
	mailer   mailer.Mailer
	google   *oauth.GoogleProvider
	registry *prometheus.Registry
	identity identity.Config
	session  session.Config
	sessions session.RegistryConfig
	logger   *slog.Logger
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(deps dependencies) *App {
	collector := metrics.NewCollector(deps.registry)
	hubManager := sse.NewHubManager(deps.logger)

	app := &App{
		Storage:         deps.store,
		Clock:           deps.clock,
		Random:          deps.random,
		Mailer:          deps.mailer,
		Directory:       identity.NewDirectory(deps.store, deps.clock, deps.mailer, deps.identity, deps.logger),
		Google:          deps.google,
		Profiles:        profile.New(deps.store, deps.clock, deps.logger),
		HubManager:      hubManager,
		Broadcaster:     sse.NewBroadcaster(hubManager, deps.logger),
		Metrics:         collector,
		MetricsRegistry: deps.registry,
		logger:          deps.logger,
		sessionCfg:      deps.session,
	}
	app.Registry = session.NewRegistry(app.NewController, deps.clock, collector, deps.sessions, deps.logger)
	return app
}

// NewController builds the controller for one new browser session, with its own identity client
func (a *App) NewController() *session.Controller {
	var google identity.GoogleExchanger
	if a.Google != nil {
		google = a.Google
	}
	client := identity.NewClient(a.Directory, google)
	return session.New(client, a.Profiles, a.Metrics, a.sessionCfg, a.logger)
}

// Logger returns the application logger
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// GoogleConsent returns the Google provider for the web layer, or nil when disabled
func (a *App) GoogleConsent() interface{ AuthCodeURL(string) string } {
	if a.Google == nil {
		return nil
	}
	return a.Google
}

// Close stops sessions and live updates and releases the storage connection
func (a *App) Close() error {
	a.Registry.Close()
	a.HubManager.Close()
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}
