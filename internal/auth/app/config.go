package app

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/aussiebroadwan/gatehouse/internal/auth/mail"
	"github.com/aussiebroadwan/gatehouse/internal/auth/oauth"
	"github.com/aussiebroadwan/gatehouse/pkg/sessionx"
)

type Config struct {
	Env       string `env:"ENV"        envDefault:"dev"`  // dev, test, prod
	Port      int    `env:"PORT"       envDefault:"8080"` // HTTP server port
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// BaseURL is the public origin. Verification links, the WebAuthn relying
	// party and OAuth redirect URLs derive from it.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	AppName string `env:"APP_NAME" envDefault:"Gatehouse"`

	SessionSecret string        `env:"JWT_SECRET_KEY,required,unset"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"168h"`

	DatabaseFile string `env:"AUTH_DATABASE_FILE" envDefault:"auth.db"`
	PepperFile   string `env:"AUTH_PEPPER_FILE"   envDefault:"pepper"`

	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`

	Mail  MailConfig
	OAuth OAuthConfig
}

type MailConfig struct {
	Transport string `env:"MAIL_TRANSPORT" envDefault:"log"` // log, smtp
	From      string `env:"MAIL_FROM"`
	Host      string `env:"SMTP_HOST"`
	Port      int    `env:"SMTP_PORT" envDefault:"587"`
	Username  string `env:"SMTP_USERNAME"`
	Password  string `env:"SMTP_PASSWORD,unset"`
}

type OAuthConfig struct {
	GoogleClientID        string `env:"OAUTH_GOOGLE_CLIENT_ID"`
	GoogleClientSecret    string `env:"OAUTH_GOOGLE_CLIENT_SECRET,unset"`
	GitHubClientID        string `env:"OAUTH_GITHUB_CLIENT_ID"`
	GitHubClientSecret    string `env:"OAUTH_GITHUB_CLIENT_SECRET,unset"`
	MicrosoftClientID     string `env:"OAUTH_MICROSOFT_CLIENT_ID"`
	MicrosoftClientSecret string `env:"OAUTH_MICROSOFT_CLIENT_SECRET,unset"`
}

// LoadConfig reads the configuration from the environment and validates it.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	if len(c.SessionSecret) < sessionx.MinSecretSize {
		errs = append(errs, fmt.Errorf("JWT_SECRET_KEY must be at least %d bytes", sessionx.MinSecretSize))
	}
	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Hostname() == "" {
		errs = append(errs, fmt.Errorf("BASE_URL must be an absolute URL, got %q", c.BaseURL))
	}
	switch c.Mail.Transport {
	case "log":
	case "smtp":
		if c.Mail.Host == "" || c.Mail.From == "" {
			errs = append(errs, errors.New("SMTP_HOST and MAIL_FROM are required for the smtp transport"))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: %q", mail.ErrUnknownTransport, c.Mail.Transport))
	}

	return errors.Join(errs...)
}

// IsProd reports whether production hardening (Secure cookies, HSTS) applies.
func (c Config) IsProd() bool { return c.Env == "prod" }

// RPID is the WebAuthn relying party id: the BASE_URL host without port.
func (c Config) RPID() string {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "localhost"
	}
	return u.Hostname()
}

// Origin is BASE_URL reduced to scheme://host[:port].
func (c Config) Origin() string {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return c.BaseURL
	}
	return u.Scheme + "://" + u.Host
}

// Providers maps the client credentials onto provider configs. Each
// callback lives at {BASE_URL}/v1/oauth/{provider}/callback.
func (c Config) Providers() oauth.Providers {
	redirect := func(name string) string {
		return c.Origin() + "/v1/oauth/" + name + "/callback"
	}
	return oauth.Providers{
		Google: oauth.Config{
			ClientID:     c.OAuth.GoogleClientID,
			ClientSecret: c.OAuth.GoogleClientSecret,
			RedirectURL:  redirect("google"),
		},
		GitHub: oauth.Config{
			ClientID:     c.OAuth.GitHubClientID,
			ClientSecret: c.OAuth.GitHubClientSecret,
			RedirectURL:  redirect("github"),
		},
		Microsoft: oauth.Config{
			ClientID:     c.OAuth.MicrosoftClientID,
			ClientSecret: c.OAuth.MicrosoftClientSecret,
			RedirectURL:  redirect("microsoft"),
		},
	}
}

// SMTP returns the smtp transport settings.
func (c Config) SMTP() mail.SMTPConfig {
	return mail.SMTPConfig{
		Host:     c.Mail.Host,
		Port:     c.Mail.Port,
		Username: c.Mail.Username,
		Password: c.Mail.Password,
		From:     c.Mail.From,
		FromName: c.AppName,
	}
}
