package oauth

import (
	"context"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"golang.org/x/oauth2/endpoints"
)

type Google struct{ base }

func NewGoogle(c Config) *Google {
	return &Google{newBase(domain.ProviderGoogle, "Google", c,
		endpoints.Google, "https://openidconnect.googleapis.com",
		[]string{"openid", "email", "profile"},
	)}
}

func (g *Google) FetchUser(ctx context.Context, code, verifier string) (domain.OAuthIdentity, error) {
	tok, err := g.exchange(ctx, code, verifier)
	if err != nil {
		return domain.OAuthIdentity{}, err
	}

	var profile struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := g.getJSON(ctx, tok, "/v1/userinfo", &profile); err != nil {
		return domain.OAuthIdentity{}, err
	}
	if profile.Email == "" || !profile.EmailVerified {
		return domain.OAuthIdentity{}, ErrMissingEmail
	}

	return g.identity(tok, profile.Sub, profile.Email, profile.Name, profile.Picture), nil
}
