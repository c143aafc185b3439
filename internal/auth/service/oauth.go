package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
	"github.com/aussiebroadwan/gatehouse/pkg/idx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

// Connection is one row of the connected-accounts list.
type Connection struct {
	Provider    domain.OAuthProvider `json:"provider"`
	DisplayName string               `json:"displayName"`
	Connected   bool                 `json:"connected"`
	ConnectedAt *time.Time           `json:"connectedAt"`
}

// ProviderCatalog lists the configured providers. *oauth.Registry
// satisfies it.
type ProviderCatalog interface {
	Configured() []domain.OAuthProvider
	DisplayName(domain.OAuthProvider) string
}

type OAuthService struct {
	Store     store.Store
	Providers ProviderCatalog
	Clock     func() time.Time
}

// Link signs in or connects the external identity. With currentUserID set
// the identity is attached to that user. Otherwise an existing mapping wins,
// then a user with the same email, and finally a new user is created.
func (s *OAuthService) Link(ctx context.Context, identity domain.OAuthIdentity, currentUserID *string) (domain.SessionUser, error) {
	log := slogx.FromContext(ctx)

	if !identity.Provider.Valid() {
		return domain.SessionUser{}, ErrUnknownProvider
	}
	if identity.AccountID == "" || identity.Email == "" {
		return domain.SessionUser{}, ErrOAuthFailed
	}
	email := NormalizeEmail(identity.Email)
	now := nowFrom(s.Clock)

	var (
		user    domain.User
		created bool
	)
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		// 1. Who already owns this provider account, if anyone.
		mapped, err := tx.OAuthAccounts().GetOAuthAccount(ctx, identity.Provider, identity.AccountID)
		hasMapping := err == nil
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("get oauth account: %w", err)
		}

		// 2. Resolve the target user.
		targetID := ""
		switch {
		case currentUserID != nil:
			targetID = *currentUserID
		case hasMapping:
			targetID = mapped.UserID
		}

		if targetID != "" {
			user, err = tx.Users().GetUserByID(ctx, targetID)
		} else {
			user, err = tx.Users().GetUserByEmail(ctx, email)
		}
		switch {
		case errors.Is(err, store.ErrNotFound) && targetID != "":
			return ErrUserNotFound
		case errors.Is(err, store.ErrNotFound):
			// 3. Nobody yet: the provider vouches for the email.
			user = domain.User{
				ID:              idx.NewAt(now).String(),
				Email:           email,
				Name:            identity.Name,
				Role:            domain.DefaultRole,
				EmailVerifiedAt: &now,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if user.Name == "" {
				user.Name = email
			}
			if err := tx.Users().CreateUser(ctx, user); err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			created = true
		case err != nil:
			return fmt.Errorf("get user: %w", err)
		default:
			if hasMapping && mapped.UserID != user.ID {
				return ErrOAuthLinkedElsewhere
			}
			if !user.EmailVerified() && user.Email == email {
				if err := tx.Users().MarkEmailVerified(ctx, user.ID, now); err != nil {
					return fmt.Errorf("mark email verified: %w", err)
				}
				user.EmailVerifiedAt = &now
			}
		}

		// 4. Record the link. Replays are no-ops.
		inserted, err := tx.OAuthAccounts().CreateOAuthAccount(ctx, domain.OAuthAccount{
			ProviderAccountID: identity.AccountID,
			Provider:          identity.Provider,
			UserID:            user.ID,
			DisplayName:       optionalString(identity.Name),
			ProfileURL:        optionalString(identity.ProfileURL),
			AccessToken:       optionalString(identity.AccessToken),
			Scopes:            optionalString(identity.Scopes),
			ExpiresAt:         identity.ExpiresAt,
			CreatedAt:         now,
			UpdatedAt:         now,
		})
		if err != nil {
			return fmt.Errorf("create oauth account: %w", err)
		}
		if !inserted && !hasMapping {
			// The user already links a different account of this provider.
			return ErrOAuthLinkedElsewhere
		}
		return nil
	})
	recordEvent("oauth_link", err)
	if err != nil {
		log.Warn("oauth link failed",
			slog.String("provider", string(identity.Provider)),
			slog.Any("error", err),
		)
		return domain.SessionUser{}, err
	}

	if err := s.Store.Users().TouchLastSignIn(ctx, user.ID, now); err != nil {
		log.Warn("failed to stamp last sign in", slog.String("user_id", user.ID), slog.Any("error", err))
	}

	log.Info("oauth account linked",
		slog.String("user_id", user.ID),
		slog.String("provider", string(identity.Provider)),
		slog.Bool("user_created", created),
	)
	return user.Session(), nil
}

// Disconnect removes the provider link unless it is the user's only way to
// sign in.
func (s *OAuthService) Disconnect(ctx context.Context, userID string, provider domain.OAuthProvider) error {
	log := slogx.FromContext(ctx)

	if !provider.Valid() {
		return ErrUnknownProvider
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.OAuthAccounts().GetOAuthAccountForUser(ctx, userID, provider); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrOAuthNotLinked
			}
			return fmt.Errorf("get oauth account: %w", err)
		}

		hasPassword := true
		if _, err := tx.Credentials().GetCredentialByUserID(ctx, userID); err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("get credential: %w", err)
			}
			hasPassword = false
		}

		accounts, err := tx.OAuthAccounts().ListOAuthAccountsForUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("list oauth accounts: %w", err)
		}
		if !hasPassword && len(accounts) <= 1 {
			return ErrOnlySignInMethod
		}

		if err := tx.OAuthAccounts().DeleteOAuthAccount(ctx, userID, provider); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrOAuthNotLinked
			}
			return fmt.Errorf("delete oauth account: %w", err)
		}
		return nil
	})
	recordEvent("oauth_disconnect", err)
	if err != nil {
		log.Info("oauth disconnect rejected",
			slog.String("user_id", userID),
			slog.String("provider", string(provider)),
			slog.Any("error", err),
		)
		return err
	}

	log.Info("oauth account disconnected",
		slog.String("user_id", userID),
		slog.String("provider", string(provider)),
	)
	return nil
}

// ListConnections returns every configured provider plus any provider the
// user is still linked to, each marked connected or not.
func (s *OAuthService) ListConnections(ctx context.Context, userID string) ([]Connection, error) {
	accounts, err := s.Store.OAuthAccounts().ListOAuthAccountsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list oauth accounts: %w", err)
	}

	linked := make(map[domain.OAuthProvider]domain.OAuthAccount, len(accounts))
	for _, a := range accounts {
		linked[a.Provider] = a
	}

	set := make(map[domain.OAuthProvider]struct{})
	if s.Providers != nil {
		for _, p := range s.Providers.Configured() {
			set[p] = struct{}{}
		}
	}
	for p := range linked {
		set[p] = struct{}{}
	}

	out := make([]Connection, 0, len(set))
	for p := range set {
		c := Connection{Provider: p, DisplayName: displayName(s.Providers, p)}
		if a, ok := linked[p]; ok {
			at := a.CreatedAt
			c.Connected = true
			c.ConnectedAt = &at
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out, nil
}

var providerDisplayNames = map[domain.OAuthProvider]string{
	domain.ProviderGoogle:    "Google",
	domain.ProviderGitHub:    "GitHub",
	domain.ProviderMicrosoft: "Microsoft",
}

func displayName(c ProviderCatalog, p domain.OAuthProvider) string {
	if c != nil {
		if name := c.DisplayName(p); name != "" {
			return name
		}
	}
	return providerDisplayNames[p]
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
