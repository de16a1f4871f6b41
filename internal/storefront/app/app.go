// Package app assembles the service: configuration, logging, the
// lockout store, the provider client, the session service and the HTTP
// server, with graceful shutdown.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpapi "github.com/driftline/storefront/internal/storefront/http"
	"github.com/driftline/storefront/internal/storefront/provider"
	"github.com/driftline/storefront/internal/storefront/service"
	"github.com/driftline/storefront/pkg/httpx"
	"github.com/driftline/storefront/pkg/lockout"
	"github.com/driftline/storefront/pkg/lockout/sqlite"
	"github.com/driftline/storefront/pkg/slogx"
	"github.com/driftline/storefront/pkg/tokenx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the storefront auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	lockoutStore lockout.Store
	sqliteStore  *sqlite.Store // non-nil only for the sqlite backend

	sessions *service.SessionService

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "storefront-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initLockoutStore(); err != nil {
		return nil, err
	}
	if err := app.initServices(); err != nil {
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("storefront auth service starting",
		"port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down storefront auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.sqliteStore != nil {
		if err := app.sqliteStore.Close(); err != nil {
			app.logger.Error("error closing lockout store", "error", err)
			return err
		}
	}

	app.logger.Info("storefront auth service stopped")
	return nil
}

func (app *Application) initLockoutStore() error {
	switch app.cfg.LockoutStore {
	case "", "memory":
		app.lockoutStore = lockout.NewMemoryStore()
	case "sqlite":
		dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.LockoutDatabaseFile)
		store, err := sqlite.NewStore(dsn)
		if err != nil {
			return fmt.Errorf("failed to initialize lockout store: %w", err)
		}
		app.sqliteStore = store
		app.lockoutStore = store
	default:
		return fmt.Errorf("unknown lockout store backend %q", app.cfg.LockoutStore)
	}

	return nil
}

func (app *Application) initServices() error {
	tokens, err := tokenx.NewService(
		app.cfg.AccessTokenSecret,
		app.cfg.RefreshTokenSecret,
		app.cfg.Issuer,
		app.cfg.Audience,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	app.sessions = &service.SessionService{
		Provider:       provider.NewShopifyClient(app.cfg.ShopDomain, app.cfg.StorefrontToken, app.cfg.ProviderTimeout),
		Tokens:         tokens,
		LoginLimiter:   lockout.New(lockout.LoginPolicy, app.lockoutStore, nil),
		RecoverLimiter: lockout.New(lockout.RecoveryPolicy, app.lockoutStore, nil),
	}

	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		BuildVersion,
		httpx.DefaultCORS(app.cfg.AllowedOrigins...),
		app.logger,
	)
	router.Sessions = app.sessions
	router.Cookies = httpapi.NewCookieManager(app.cfg.IsProd())
	router.LockoutStore = app.lockoutStore
	router.ApplyRoutes()

	app.router = router
	app.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.cfg.Port),
		Handler: app.router,
	}
}
