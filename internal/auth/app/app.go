package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	httpapi "github.com/aussiebroadwan/tollgate/internal/auth/http"
	"github.com/aussiebroadwan/tollgate/internal/auth/service"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/aussiebroadwan/tollgate/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/tollgate/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/tollgate/internal/auth/store/revocation"
	"github.com/aussiebroadwan/tollgate/pkg/cryptox"
	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the token service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db          store.Store
	redis       *redis.Client // nil unless the redis revocation backend is used
	revocations revocation.List
	keyManager  *jwtx.KeyManager
	keyStore    *store.KeyStoreAdapter
	hasher      *cryptox.Hasher

	// Services
	credentialService   *service.CredentialService
	identityService     *service.IdentityService
	tokenService        *service.TokenService
	revocationService   *service.RevocationService
	keyRotationService  *service.KeyRotationService
	rotationScheduler   *service.RotationScheduler
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
// A missing signing key surfaces as jwtx.ErrKeyUnavailable.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "tollgate",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	ctx := slogx.WithContext(context.Background(), app.logger)

	// Initialize database first (keys are persisted there)
	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}

	if err := app.initRevocations(ctx); err != nil {
		app.closeStores()
		return nil, err
	}

	keyManager, keyStore, err := InitAuthKeys(ctx, app.cfg, app.db, app.logger)
	if err != nil {
		app.closeStores()
		return nil, fmt.Errorf("failed to initialize JWT keys: %w", err)
	}
	app.keyManager = keyManager
	app.keyStore = keyStore

	if err := app.initServices(ctx); err != nil {
		app.closeStores()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	// Start background workers
	app.rotationScheduler.Start()
	app.housekeepingService.Start()

	app.logger.Info("tollgate starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.stopWorkers()
			app.closeStores()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down tollgate...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.stopWorkers()

	if err := app.closeStores(); err != nil {
		return err
	}

	app.logger.Info("tollgate stopped")
	return nil
}

func (app *Application) stopWorkers() {
	app.rotationScheduler.Stop()
	app.housekeepingService.Stop()
}

func (app *Application) closeStores() error {
	var errs []error
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
			errs = append(errs, err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database", "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// initDatabase opens the configured driver and applies migrations
func (app *Application) initDatabase(ctx context.Context) error {
	var (
		db  store.Store
		err error
	)

	switch app.cfg.DatabaseDriver {
	case DriverPostgres:
		db, err = postgres.NewStore(ctx, app.cfg.DatabaseURL)
	default:
		if err := os.MkdirAll(filepath.Dir(app.cfg.DatabaseFile), 0o750); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
		db, err = sqlite.NewStore(dsn)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(ctx); err != nil {
		_ = db.Close()
		app.db = nil
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DatabaseDriver)
	return nil
}

// initRevocations selects where revocation records live.
func (app *Application) initRevocations(ctx context.Context) error {
	switch app.cfg.RevocationBackend {
	case BackendRedis:
		app.redis = redis.NewClient(&redis.Options{
			Addr:     app.cfg.RedisAddr,
			Password: app.cfg.RedisPassword,
			DB:       app.cfg.RedisDB,
		})
		list := revocation.NewRedis(app.redis, revocation.DefaultRedisPrefix, nil)
		if err := list.Ping(ctx); err != nil {
			return fmt.Errorf("failed to reach redis: %w", err)
		}
		app.revocations = list
		app.logger.Info("revocation list backed by redis", "addr", app.cfg.RedisAddr)
	default:
		app.revocations = revocation.NewSQL(app.db)
		app.logger.Info("revocation list backed by the database")
	}
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices(ctx context.Context) error {
	pepper, err := cryptox.LoadPepper(app.cfg.PepperFile)
	if err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}
	app.hasher, err = cryptox.NewHasher(app.cfg.Argon2, pepper)
	if err != nil {
		return fmt.Errorf("failed to configure password hashing: %w", err)
	}

	app.credentialService, err = service.NewCredentialService(app.db, app.hasher, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize credentials: %w", err)
	}
	app.identityService = service.NewIdentityService(app.db, app.hasher, nil)

	app.tokenService = service.NewTokenService(app.db, app.keyManager, app.credentialService, app.revocations, service.TokenConfig{
		Issuer:             app.cfg.Issuer,
		Audience:           app.cfg.Audience,
		AccessTTL:          app.cfg.AccessTokenTTL,
		RefreshTTL:         app.cfg.RefreshTokenTTL,
		RefreshMaxLifetime: app.cfg.RefreshMaxLifetime,
		Leeway:             5 * time.Second,
	})
	app.revocationService = service.NewRevocationService(app.db, app.tokenService, app.revocations, app.keyManager)
	app.keyRotationService = service.NewKeyRotationService(app.keyManager, nil)

	app.rotationScheduler = service.NewRotationScheduler(app.keyManager, app.logger, 0)
	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.revocations,
		app.keyStore,
		app.keyManager,
		app.logger,
		app.cfg.HousekeepingInterval,
	)

	created, err := app.identityService.EnsureBootstrapAdmin(ctx, app.cfg.BootstrapUsername, app.cfg.BootstrapPassword)
	if err != nil {
		return fmt.Errorf("failed to create bootstrap admin: %w", err)
	}
	if !created && app.cfg.BootstrapUsername != "" {
		app.logger.Info("bootstrap admin skipped, identities already exist")
	}
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keyManager,
		BuildVersion,
		app.db,
		app.revocations,
		app.logger,
	)

	// Wire services to router
	router.TokenService = app.tokenService
	router.RevocationService = app.revocationService
	router.KeyRotationService = app.keyRotationService
	router.IdentityService = app.identityService
	router.HousekeepingService = app.housekeepingService
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
