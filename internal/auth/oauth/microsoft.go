package oauth

import (
	"context"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"golang.org/x/oauth2/endpoints"
)

type Microsoft struct{ base }

func NewMicrosoft(c Config) *Microsoft {
	return &Microsoft{newBase(domain.ProviderMicrosoft, "Microsoft", c,
		endpoints.AzureAD("common"), "https://graph.microsoft.com",
		[]string{"openid", "email", "profile", "User.Read"},
	)}
}

func (m *Microsoft) FetchUser(ctx context.Context, code, verifier string) (domain.OAuthIdentity, error) {
	tok, err := m.exchange(ctx, code, verifier)
	if err != nil {
		return domain.OAuthIdentity{}, err
	}

	var me struct {
		ID                string `json:"id"`
		DisplayName       string `json:"displayName"`
		Mail              string `json:"mail"`
		UserPrincipalName string `json:"userPrincipalName"`
	}
	if err := m.getJSON(ctx, tok, "/v1.0/me", &me); err != nil {
		return domain.OAuthIdentity{}, err
	}

	email := me.Mail
	if email == "" {
		email = me.UserPrincipalName
	}
	if email == "" {
		return domain.OAuthIdentity{}, ErrMissingEmail
	}
	return m.identity(tok, me.ID, email, me.DisplayName, ""), nil
}
