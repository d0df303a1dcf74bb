package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/bhalariaworks/authd/internal/authd/http"
	"github.com/bhalariaworks/authd/internal/authd/mail"
	"github.com/bhalariaworks/authd/internal/authd/service"
	"github.com/bhalariaworks/authd/internal/authd/store"
	"github.com/bhalariaworks/authd/internal/authd/store/drivers/sqlite"
	"github.com/bhalariaworks/authd/pkg/cryptox"
	"github.com/bhalariaworks/authd/pkg/jwtx"
	"github.com/bhalariaworks/authd/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the admission service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db     store.Store
	signer *jwtx.Signer

	// Services
	captchaService      *service.CaptchaService
	otpService          *service.OtpService
	admissionService    *service.AdmissionService
	mfaService          *service.MFAService
	accountService      *service.AccountService
	resetService        *service.PasswordResetService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "authd",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	signer, err := jwtx.NewSigner()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session signer: %w", err)
	}
	app.signer = signer

	app.initServices()
	app.initHTTP()

	if err := app.bootstrap(); err != nil {
		return nil, err
	}

	return app, nil
}

// bootstrap creates the first admin account on an empty store when the
// credentials are configured. Skipped quietly on an already-populated
// database so restarts are safe.
func (app *Application) bootstrap() error {
	if app.cfg.BootstrapEmail == "" || app.cfg.BootstrapPassword == "" {
		return nil
	}

	acct, err := app.accountService.Bootstrap(context.Background(),
		app.cfg.BootstrapEmail, app.cfg.BootstrapPassword)
	if err != nil {
		if errors.Is(err, service.ErrAlreadyBootstrapped) {
			return nil
		}
		return fmt.Errorf("failed to bootstrap admin account: %w", err)
	}

	app.logger.Info("bootstrap admin account created", "account_id", acct.ID)
	return nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("authd starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
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

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down authd...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("authd stopped")
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	mailer := mail.NewMailer(
		app.cfg.SMTPHost,
		app.cfg.SMTPPort,
		app.cfg.SMTPUsername,
		app.cfg.SMTPPassword,
		app.cfg.SMTPFrom,
	)

	app.captchaService = &service.CaptchaService{
		Verifier:  &service.RecaptchaVerifier{Secret: app.cfg.CaptchaSecret},
		Threshold: app.cfg.CaptchaThreshold,
	}

	app.otpService = &service.OtpService{
		Store:       app.db,
		Mailer:      mailer,
		TTL:         app.cfg.OtpTTL,
		MaxAttempts: app.cfg.OtpMaxAttempts,
	}

	app.admissionService = &service.AdmissionService{
		Store:            app.db,
		Captcha:          app.captchaService,
		Otp:              app.otpService,
		Signer:           app.signer,
		Issuer:           app.cfg.Issuer,
		SessionTTL:       app.cfg.SessionTTL,
		LockoutThreshold: app.cfg.LockoutThreshold,
		LockoutWindow:    app.cfg.LockoutWindow,
		MFAWindow:        app.cfg.MFAWindow,
	}

	app.mfaService = &service.MFAService{
		Store:  app.db,
		Issuer: app.cfg.Issuer,
		Window: app.cfg.MFAWindow,
	}

	app.accountService = &service.AccountService{Store: app.db}
	app.resetService = &service.PasswordResetService{Store: app.db, Mailer: mailer}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
		2*app.cfg.LockoutWindow,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.signer,
		app.cfg.Issuer,
		BuildVersion,
		app.db,
		app.logger,
	)

	// Wire services to router
	router.AdmissionService = app.admissionService
	router.CaptchaService = app.captchaService
	router.OtpService = app.otpService
	router.MFAService = app.mfaService
	router.AccountService = app.accountService
	router.ResetService = app.resetService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
