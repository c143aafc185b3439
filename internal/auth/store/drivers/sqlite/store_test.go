package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/gatehouse/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.NewStore(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedUser(t *testing.T, s store.Store, email string) domain.User {
	t.Helper()
	now := time.Now().UTC()
	u := domain.User{
		ID:        idx.New().String(),
		Email:     email,
		Name:      "Test User",
		Role:      domain.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func TestMigrationsAreIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(context.Background()))
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	u := seedUser(t, s, "a@x.com")

	got, err := s.Users().GetUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.Equal(t, domain.RoleUser, got.Role)
	require.False(t, got.EmailVerified())

	err = s.Users().CreateUser(ctx, domain.User{
		ID: idx.New().String(), Email: "a@x.com", Name: "Dup", Role: domain.RoleUser,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	now := time.Now().UTC()
	require.NoError(t, s.Users().UpdateName(ctx, u.ID, "Renamed", now))
	require.NoError(t, s.Users().MarkEmailVerified(ctx, u.ID, now))
	require.NoError(t, s.Users().TouchLastSignIn(ctx, u.ID, now))

	got, err = s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "Renamed", got.Name)
	require.True(t, got.EmailVerified())
	require.NotNil(t, got.LastSignInAt)
	require.WithinDuration(t, now, *got.LastSignInAt, time.Millisecond)

	_, err = s.Users().GetUserByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.ErrorIs(t, s.Users().UpdateName(ctx, "missing", "x", now), store.ErrNotFound)
}

func TestUpdateEmailConflict(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a := seedUser(t, s, "a@x.com")
	seedUser(t, s, "b@x.com")

	err := s.Users().UpdateEmail(ctx, a.ID, "b@x.com", time.Now())
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	require.NoError(t, s.Users().UpdateEmail(ctx, a.ID, "c@x.com", time.Now()))
	got, err := s.Users().GetUserByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, "c@x.com", got.Email)
	require.True(t, got.EmailVerified())
}

func TestCredentials(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "a@x.com")
	now := time.Now().UTC()

	_, err := s.Credentials().GetCredentialByUserID(ctx, u.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
	require.ErrorIs(t, s.Credentials().UpdatePassword(ctx, u.ID, "h", "s", now), store.ErrNotFound)

	c := domain.Credential{
		ID: idx.New().String(), UserID: u.ID, PasswordHash: "h1", PasswordSalt: "s1",
		MustChangePassword: true, LastChangedAt: now, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.Credentials().CreateCredential(ctx, c))

	c.ID = idx.New().String()
	require.ErrorIs(t, s.Credentials().CreateCredential(ctx, c), store.ErrAlreadyExists)

	require.NoError(t, s.Credentials().UpdatePassword(ctx, u.ID, "h2", "s2", now))
	got, err := s.Credentials().GetCredentialByUserID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "h2", got.PasswordHash)
	require.Equal(t, "s2", got.PasswordSalt)
	require.False(t, got.MustChangePassword)

	// upsert over an existing row keeps its id
	require.NoError(t, s.Credentials().UpsertCredential(ctx, domain.Credential{
		ID: idx.New().String(), UserID: u.ID, PasswordHash: "h3", PasswordSalt: "s3",
		LastChangedAt: now, CreatedAt: now, UpdatedAt: now,
	}))
	got2, err := s.Credentials().GetCredentialByUserID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, got.ID, got2.ID)
	require.Equal(t, "h3", got2.PasswordHash)
}

func TestTokens(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "a@x.com")
	now := time.Now().UTC()

	mk := func(hash string, ttl time.Duration) domain.Token {
		tok := domain.Token{
			ID:        idx.New().String(),
			UserID:    &u.ID,
			TokenHash: hash,
			Type:      domain.TokenTypeEmailVerification,
			ExpiresAt: now.Add(ttl),
			Metadata:  domain.TokenMetadata{EmailVerify: &domain.EmailVerifyMetadata{Email: u.Email}},
			CreatedAt: now,
		}
		require.NoError(t, s.Tokens().CreateToken(ctx, tok))
		return tok
	}

	t1 := mk("hash-1", time.Hour)
	t2 := mk("hash-2", time.Hour)
	expired := mk("hash-3", -time.Minute)

	got, err := s.Tokens().GetTokenByHash(ctx, "hash-1", domain.TokenTypeEmailVerification)
	require.NoError(t, err)
	require.Equal(t, t1.ID, got.ID)
	require.NotNil(t, got.Metadata.EmailVerify)
	require.Equal(t, "a@x.com", got.Metadata.EmailVerify.Email)

	_, err = s.Tokens().GetTokenByHash(ctx, "hash-1", domain.TokenTypePasswordReset)
	require.ErrorIs(t, err, store.ErrNotFound)

	latest, err := s.Tokens().GetLatestTokenForUser(ctx, u.ID, domain.TokenTypeEmailVerification)
	require.NoError(t, err)
	require.Equal(t, expired.ID, latest.ID)

	require.NoError(t, s.Tokens().MarkConsumed(ctx, t2.ID, now))
	require.ErrorIs(t, s.Tokens().MarkConsumed(ctx, t2.ID, now), store.ErrNotFound)

	n, err := s.Tokens().DeleteExpiredTokens(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	n, err = s.Tokens().DeleteConsumedTokens(ctx, now.Add(time.Second))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	mk("hash-4", time.Hour)
	n, err = s.Tokens().DeleteSiblingTokens(ctx, u.ID, domain.TokenTypeEmailVerification, t1.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, err = s.Tokens().GetTokenByHash(ctx, "hash-1", domain.TokenTypeEmailVerification)
	require.NoError(t, err)

	// duplicate hashes are rejected
	dup := t1
	dup.ID = idx.New().String()
	require.ErrorIs(t, s.Tokens().CreateToken(ctx, dup), store.ErrAlreadyExists)
}

func TestOAuthAccounts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a := seedUser(t, s, "a@x.com")
	b := seedUser(t, s, "b@x.com")
	now := time.Now().UTC()

	acct := domain.OAuthAccount{
		ProviderAccountID: "gh-1", Provider: domain.ProviderGitHub, UserID: a.ID,
		CreatedAt: now, UpdatedAt: now,
	}
	inserted, err := s.OAuthAccounts().CreateOAuthAccount(ctx, acct)
	require.NoError(t, err)
	require.True(t, inserted)

	// same provider account again: ignored
	inserted, err = s.OAuthAccounts().CreateOAuthAccount(ctx, acct)
	require.NoError(t, err)
	require.False(t, inserted)

	// same provider account for another user: ignored, still mapped to a
	acct.UserID = b.ID
	inserted, err = s.OAuthAccounts().CreateOAuthAccount(ctx, acct)
	require.NoError(t, err)
	require.False(t, inserted)

	got, err := s.OAuthAccounts().GetOAuthAccount(ctx, domain.ProviderGitHub, "gh-1")
	require.NoError(t, err)
	require.Equal(t, a.ID, got.UserID)

	list, err := s.OAuthAccounts().ListOAuthAccountsForUser(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, s.OAuthAccounts().DeleteOAuthAccount(ctx, a.ID, domain.ProviderGitHub))
	require.ErrorIs(t, s.OAuthAccounts().DeleteOAuthAccount(ctx, a.ID, domain.ProviderGitHub), store.ErrNotFound)
}

func TestPasskeys(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "a@x.com")
	now := time.Now().UTC()

	p := domain.Passkey{
		ID: idx.New().String(), UserID: u.ID, CredentialID: "cred-1", PublicKey: "pk",
		Transports: []string{"internal", "hybrid"}, SignCount: 3, AttestationType: "none",
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.Passkeys().CreatePasskey(ctx, p))

	got, err := s.Passkeys().GetPasskeyByCredentialID(ctx, "cred-1")
	require.NoError(t, err)
	require.Equal(t, []string{"internal", "hybrid"}, got.Transports)
	require.EqualValues(t, 3, got.SignCount)

	require.NoError(t, s.Passkeys().UpdatePasskeyUsage(ctx, store.PasskeyUsage{
		ID: p.ID, SignCount: 9, IsBackupEligible: true, IsBackupState: true, IsUserVerified: true, UsedAt: now,
	}))
	label := "Laptop"
	require.NoError(t, s.Passkeys().UpdatePasskeyLabel(ctx, u.ID, p.ID, &label, now))
	require.ErrorIs(t, s.Passkeys().UpdatePasskeyLabel(ctx, "someone-else", p.ID, &label, now), store.ErrNotFound)

	list, err := s.Passkeys().ListPasskeysForUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.EqualValues(t, 9, list[0].SignCount)
	require.True(t, list[0].IsBackupState)
	require.Equal(t, "Laptop", *list[0].Label)
	require.NotNil(t, list[0].LastUsedAt)

	require.ErrorIs(t, s.Passkeys().DeletePasskey(ctx, "someone-else", p.ID), store.ErrNotFound)
	require.NoError(t, s.Passkeys().DeletePasskeyByCredentialID(ctx, "cred-1"))
	_, err = s.Passkeys().GetPasskeyByCredentialID(ctx, "cred-1")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx store.Tx) error {
		now := time.Now()
		require.NoError(t, tx.Users().CreateUser(ctx, domain.User{
			ID: idx.New().String(), Email: "tx@x.com", Name: "Tx", Role: domain.RoleUser,
			CreatedAt: now, UpdatedAt: now,
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Users().GetUserByEmail(ctx, "tx@x.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestNestedTxRejected(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	err := s.WithTx(ctx, func(tx store.Tx) error {
		return tx.WithTx(ctx, func(store.Tx) error { return nil })
	})
	require.Error(t, err)
}

func TestDeleteUserCascades(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "a@x.com")
	now := time.Now().UTC()

	require.NoError(t, s.Tokens().CreateToken(ctx, domain.Token{
		ID: idx.New().String(), UserID: &u.ID, TokenHash: "h", Type: domain.TokenTypeOTP,
		ExpiresAt: now.Add(time.Hour), CreatedAt: now,
	}))
	require.NoError(t, s.Users().DeleteUser(ctx, u.ID))

	_, err := s.Tokens().GetTokenByHash(ctx, "h", domain.TokenTypeOTP)
	require.ErrorIs(t, err, store.ErrNotFound)
}
