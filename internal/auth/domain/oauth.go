package domain

import "time"

type OAuthProvider string

const (
	ProviderGoogle    OAuthProvider = "google"
	ProviderGitHub    OAuthProvider = "github"
	ProviderMicrosoft OAuthProvider = "microsoft"
)

func (p OAuthProvider) Valid() bool {
	switch p {
	case ProviderGoogle, ProviderGitHub, ProviderMicrosoft:
		return true
	}
	return false
}

// OAuthAccount links an external identity to a user. A provider account maps
// to exactly one user and a user has at most one account per provider.
type OAuthAccount struct {
	ProviderAccountID string
	Provider          OAuthProvider
	UserID            string
	DisplayName       *string
	ProfileURL        *string
	AccessToken       *string
	RefreshToken      *string
	Scopes            *string
	ExpiresAt         *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// OAuthIdentity is the normalised profile returned by a provider.
type OAuthIdentity struct {
	Provider    OAuthProvider
	AccountID   string
	Email       string
	Name        string
	ProfileURL  string
	AccessToken string
	Scopes      string
	ExpiresAt   *time.Time
}
