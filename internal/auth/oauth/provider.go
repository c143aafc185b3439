// Package oauth talks to the external identity providers. Providers only
// return identity facts; linking and sessions live in the service layer.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"golang.org/x/oauth2"
)

var (
	ErrUnknownProvider = errors.New("oauth: unknown provider")
	ErrMissingEmail    = errors.New("oauth: provider returned no usable email")
)

// Provider is one configured identity provider.
type Provider interface {
	Name() domain.OAuthProvider
	DisplayName() string

	// AuthCodeURL returns the consent page URL. verifier is the PKCE
	// verifier the caller keeps until the callback.
	AuthCodeURL(state, verifier string) string

	// FetchUser exchanges code and returns the normalised profile.
	FetchUser(ctx context.Context, code, verifier string) (domain.OAuthIdentity, error)
}

// Config configures one provider. Endpoint and APIBaseURL default to the
// provider's public endpoints when empty.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	Endpoint   oauth2.Endpoint
	APIBaseURL string
}

// Enabled reports whether both client credentials are set.
func (c Config) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// base holds what every provider shares: the oauth2 config and a JSON
// fetcher for profile endpoints.
type base struct {
	name    domain.OAuthProvider
	display string
	cfg     *oauth2.Config
	apiBase string
}

func newBase(name domain.OAuthProvider, display string, c Config, endpoint oauth2.Endpoint, apiBase string, scopes []string) base {
	if c.Endpoint.AuthURL != "" {
		endpoint = c.Endpoint
	}
	if c.APIBaseURL != "" {
		apiBase = c.APIBaseURL
	}
	return base{
		name:    name,
		display: display,
		apiBase: strings.TrimRight(apiBase, "/"),
		cfg: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       scopes,
		},
	}
}

func (b base) Name() domain.OAuthProvider { return b.name }

func (b base) DisplayName() string { return b.display }

func (b base) AuthCodeURL(state, verifier string) string {
	return b.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.S256ChallengeOption(verifier))
}

func (b base) exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	if code == "" {
		return nil, fmt.Errorf("%s: missing authorization code", b.name)
	}
	tok, err := b.cfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("%s token exchange: %w", b.name, err)
	}
	return tok, nil
}

// getJSON fetches path from the provider API with tok and decodes into v.
func (b base) getJSON(ctx context.Context, tok *oauth2.Token, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.apiBase+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.cfg.Client(ctx, tok).Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", b.name, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", b.name, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(v); err != nil {
		return fmt.Errorf("%s %s: decode: %w", b.name, path, err)
	}
	return nil
}

// identity fills the token-derived fields shared by every provider.
func (b base) identity(tok *oauth2.Token, accountID, email, name, profileURL string) domain.OAuthIdentity {
	id := domain.OAuthIdentity{
		Provider:    b.name,
		AccountID:   accountID,
		Email:       strings.TrimSpace(email),
		Name:        strings.TrimSpace(name),
		ProfileURL:  profileURL,
		AccessToken: tok.AccessToken,
		Scopes:      strings.Join(b.cfg.Scopes, " "),
	}
	if s, ok := tok.Extra("scope").(string); ok && s != "" {
		id.Scopes = s
	}
	if !tok.Expiry.IsZero() {
		exp := tok.Expiry.UTC().Truncate(time.Second)
		id.ExpiresAt = &exp
	}
	if id.Name == "" {
		id.Name = id.Email
	}
	return id
}
