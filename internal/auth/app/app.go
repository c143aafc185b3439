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

	httpapi "github.com/aussiebroadwan/gatehouse/internal/auth/http"
	"github.com/aussiebroadwan/gatehouse/internal/auth/mail"
	"github.com/aussiebroadwan/gatehouse/internal/auth/oauth"
	"github.com/aussiebroadwan/gatehouse/internal/auth/service"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/gatehouse/pkg/cryptox"
	"github.com/aussiebroadwan/gatehouse/pkg/sessionx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

// BuildVersion is overridden at build time via ldflags.
var BuildVersion = "v0.1.0"

// Application owns the auth service and its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	mailer   mail.Sender
	sessions *httpapi.SessionManager
	oauth    *oauth.Registry

	tokens       *service.TokenStore
	accounts     *service.AccountService
	credentials  *service.CredentialService
	email        *service.EmailService
	reset        *service.PasswordResetService
	oauthLinks   *service.OAuthService
	passkeys     *service.PasskeyService
	housekeeping *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New builds the application. Nothing listens until Run.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "gatehouse",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initSessions(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	if err := app.initMail(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run serves until SIGINT/SIGTERM or a server failure.
func (app *Application) Run() error {
	app.housekeeping.Start()

	app.logger.Info("auth service starting",
		slog.Int("port", app.cfg.Port),
		slog.String("version", BuildVersion),
		slog.String("base_url", app.cfg.BaseURL),
		slog.Any("oauth_providers", app.oauth.Configured()),
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeeping.Stop()
			_ = app.db.Close()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains requests, stops the sweeper and closes the database.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", slog.Any("error", err))
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", slog.Any("error", err))
		}
	}

	app.housekeeping.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", slog.Any("error", err))
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(app.cfg.DatabaseFile)
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

func (app *Application) initSessions() error {
	codec, err := sessionx.NewCodec([]byte(app.cfg.SessionSecret), app.cfg.SessionTTL)
	if err != nil {
		return fmt.Errorf("failed to initialize sessions: %w", err)
	}
	app.sessions = &httpapi.SessionManager{Codec: codec, Secure: app.cfg.IsProd()}
	return nil
}

func (app *Application) initMail() error {
	switch app.cfg.Mail.Transport {
	case "smtp":
		s, err := mail.NewSMTPSender(app.cfg.SMTP())
		if err != nil {
			return err
		}
		app.mailer = s
	case "log":
		if app.cfg.IsProd() {
			app.logger.Warn("log mail transport in production: emails are written to the log, not sent")
		}
		app.mailer = mail.LogSender{AppName: app.cfg.AppName}
	default:
		return fmt.Errorf("%w: %q", mail.ErrUnknownTransport, app.cfg.Mail.Transport)
	}
	return nil
}

func (app *Application) initServices() error {
	app.oauth = oauth.NewRegistryFromConfig(app.cfg.Providers())

	wa, err := service.NewWebAuthn(service.WebAuthnConfig{
		RPID:          app.cfg.RPID(),
		RPDisplayName: app.cfg.AppName,
		RPOrigins:     []string{app.cfg.Origin()},
	})
	if err != nil {
		return err
	}

	app.tokens = &service.TokenStore{Store: app.db}
	app.credentials = &service.CredentialService{Store: app.db}
	app.email = &service.EmailService{
		Store:   app.db,
		Tokens:  app.tokens,
		Mailer:  app.mailer,
		BaseURL: app.cfg.BaseURL,
	}
	app.accounts = &service.AccountService{Store: app.db, Email: app.email}
	app.reset = &service.PasswordResetService{
		Store:         app.db,
		Tokens:        app.tokens,
		Mailer:        app.mailer,
		ResponseFloor: service.DefaultResetResponseFloor,
	}
	app.oauthLinks = &service.OAuthService{Store: app.db, Providers: app.oauth}
	app.passkeys = &service.PasskeyService{
		Store:    app.db,
		Tokens:   app.tokens,
		WebAuthn: wa,
	}

	app.housekeeping = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		BuildVersion,
		app.db,
		app.sessions,
		app.cfg.IsProd(),
		app.logger,
	)

	router.AccountService = app.accounts
	router.CredentialService = app.credentials
	router.EmailService = app.email
	router.PasswordResetService = app.reset
	router.OAuthService = app.oauthLinks
	router.OAuthProviders = app.oauth
	router.PasskeyService = app.passkeys
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
