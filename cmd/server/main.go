package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mcoot/creaturegame/internal/api"
	"github.com/mcoot/creaturegame/internal/config"
	"github.com/mcoot/creaturegame/internal/factory"
	"github.com/mcoot/creaturegame/internal/logging"
	"github.com/mcoot/creaturegame/internal/metrics"
	mw "github.com/mcoot/creaturegame/internal/middleware"
	"github.com/mcoot/creaturegame/internal/services/identity"
	"github.com/mcoot/creaturegame/internal/services/session"
	mongostorage "github.com/mcoot/creaturegame/internal/storage/mongo"
	redisstorage "github.com/mcoot/creaturegame/internal/storage/redis"
	"github.com/mcoot/creaturegame/internal/web"
	"github.com/mcoot/creaturegame/internal/web/middleware"
)

const sseSweepInterval = time.Minute

func main() {
	// A missing .env is fine; the environment may already be set
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.LogLevel
	logCfg.File = cfg.LogFile
	logger, logCloser, err := logging.New(logCfg)
	if err != nil {
		slog.Error("failed to set up logging", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = logCloser.Close() }()
	slog.SetDefault(logger)

	// Build factory config from environment
	identityCfg := identity.DefaultConfig()
	identityCfg.PasswordMinLength = cfg.PasswordMinLength
	identityCfg.ResetURL = cfg.ResetURL()
	identityCfg.ResetSecret = []byte(cfg.ResetTokenSecret)
	identityCfg.ResetTokenTTL = cfg.ResetTokenTTL

	registryCfg := session.DefaultRegistryConfig()
	registryCfg.TTL = cfg.SessionTTL
	registryCfg.AnonymousTTL = cfg.AnonymousTTL

	factoryCfg := factory.Config{
		Logger:      logger,
		StorageType: cfg.StorageType,
		Identity:    identityCfg,
		Google:      cfg.Google(),
		SMTP:        cfg.SMTP(),
		Session:     session.DefaultConfig(),
		Registry:    registryCfg,
	}

	switch cfg.StorageType {
	case config.StorageRedis:
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		factoryCfg.RedisConfig = &redisCfg
	case config.StorageMongo:
		mongoCfg := mongostorage.DefaultConfig()
		mongoCfg.URI = cfg.MongoURI
		mongoCfg.Database = cfg.MongoDatabase
		factoryCfg.MongoConfig = &mongoCfg
	}

	// Create application factory
	app, err := factory.New(factoryCfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = app.Close() }()

	rateLimit := mw.RateLimitConfig{
		Requests: cfg.RateLimitRequests,
		Window:   cfg.RateLimitWindow,
	}

	// Create API router
	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		Registry:       app.Registry,
		Storage:        app.Storage,
		Resets:         app.Directory,
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimit:      rateLimit,
	})

	sessionCfg := middleware.DefaultSessionConfig()
	sessionCfg.Secure = cfg.CookieSecure

	// Create web router
	webRouter := web.NewRouter(web.RouterConfig{
		Logger:      logger,
		Registry:    app.Registry,
		Broadcaster: app.Broadcaster,
		Metrics:     app.Metrics,
		Google:      app.GoogleConsent(),
		Resets:      app.Directory,
		Random:      app.Random,
		Session:     sessionCfg,
		RateLimit:   rateLimit,
		StaticDir:   findStaticDir(),
	})

	// Combine routers
	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/metrics", metrics.Handler(app.MetricsRegistry))
	mux.Handle("/", webRouter)

	// Create server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Port = cfg.Port
	server := api.NewServer(mux, serverConfig, logger)
	server.OnShutdown(app.HubManager.Close)

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	app.Registry.StartJanitor(ctx)
	app.Broadcaster.StartSweeper(ctx, sseSweepInterval)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.StorageType),
		slog.Bool("google", cfg.Google().Enabled()),
	)

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}

// findStaticDir looks for the static files directory
func findStaticDir() string {
	// Try common locations
	candidates := []string{
		"internal/web/static",
		"./internal/web/static",
		filepath.Join(os.Getenv("PWD"), "internal/web/static"),
	}

	for _, dir := range candidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}

	// Default to relative path
	return "internal/web/static"
}
