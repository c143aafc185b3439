package app

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/mail"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", secret)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "http://localhost:8080", cfg.BaseURL)
	require.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
	require.Equal(t, time.Hour, cfg.HousekeepingInterval)
	require.Equal(t, "log", cfg.Mail.Transport)
	require.False(t, cfg.IsProd())
	require.Equal(t, "localhost", cfg.RPID())
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "")

	_, err := LoadConfig()
	require.Error(t, err)

	t.Setenv("JWT_SECRET_KEY", "too-short")
	_, err = LoadConfig()
	require.ErrorContains(t, err, "JWT_SECRET_KEY")
}

func TestConfigValidate(t *testing.T) {
	base := Config{SessionSecret: secret, BaseURL: "https://auth.example.com", Mail: MailConfig{Transport: "log"}}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"relative base url", func(c *Config) { c.BaseURL = "/auth" }, "BASE_URL"},
		{"smtp without host", func(c *Config) { c.Mail.Transport = "smtp" }, "SMTP_HOST"},
		{"smtp configured", func(c *Config) {
			c.Mail = MailConfig{Transport: "smtp", Host: "smtp.example.com", From: "no-reply@example.com"}
		}, ""},
		{"unknown transport", func(c *Config) { c.Mail.Transport = "pigeon" }, mail.ErrUnknownTransport.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestConfigDerivedValues(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", secret)
	t.Setenv("ENV", "prod")
	t.Setenv("BASE_URL", "https://auth.example.com:8443/app")
	t.Setenv("OAUTH_GITHUB_CLIENT_ID", "gh-id")
	t.Setenv("OAUTH_GITHUB_CLIENT_SECRET", "gh-secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.True(t, cfg.IsProd())
	require.Equal(t, "auth.example.com", cfg.RPID())
	require.Equal(t, "https://auth.example.com:8443", cfg.Origin())

	p := cfg.Providers()
	require.True(t, p.GitHub.Enabled())
	require.False(t, p.Google.Enabled())
	require.Equal(t, "https://auth.example.com:8443/v1/oauth/github/callback", p.GitHub.RedirectURL)
}
