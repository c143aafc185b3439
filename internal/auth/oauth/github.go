package oauth

import (
	"context"
	"strconv"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"golang.org/x/oauth2/endpoints"
)

type GitHub struct{ base }

func NewGitHub(c Config) *GitHub {
	return &GitHub{newBase(domain.ProviderGitHub, "GitHub", c,
		endpoints.GitHub, "https://api.github.com",
		[]string{"read:user", "user:email"},
	)}
}

func (g *GitHub) FetchUser(ctx context.Context, code, verifier string) (domain.OAuthIdentity, error) {
	tok, err := g.exchange(ctx, code, verifier)
	if err != nil {
		return domain.OAuthIdentity{}, err
	}

	var user struct {
		ID      int64  `json:"id"`
		Login   string `json:"login"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		HTMLURL string `json:"html_url"`
	}
	if err := g.getJSON(ctx, tok, "/user", &user); err != nil {
		return domain.OAuthIdentity{}, err
	}

	// Private emails are not on /user; fall back to the primary verified one.
	email := user.Email
	if email == "" {
		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		if err := g.getJSON(ctx, tok, "/user/emails", &emails); err != nil {
			return domain.OAuthIdentity{}, err
		}
		for _, e := range emails {
			if e.Primary && e.Verified {
				email = e.Email
				break
			}
		}
	}
	if email == "" {
		return domain.OAuthIdentity{}, ErrMissingEmail
	}

	name := user.Name
	if name == "" {
		name = user.Login
	}
	return g.identity(tok, strconv.FormatInt(user.ID, 10), email, name, user.HTMLURL), nil
}
