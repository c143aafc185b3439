package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement it and
// expose one sub-repository per table. Sub-repositories obtained from a Tx
// run inside that transaction, and a Tx cannot start another one.
type Store interface {
	Users() Users
	Credentials() Credentials
	Tokens() Tokens
	OAuthAccounts() OAuthAccounts
	Passkeys() Passkeys

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. It commits when fn returns
	// nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail expects an already normalised address.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser returns ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	UpdateName(ctx context.Context, userID, name string, at time.Time) error

	// UpdateEmail replaces the address and marks it verified at the same time.
	UpdateEmail(ctx context.Context, userID, email string, verifiedAt time.Time) error

	MarkEmailVerified(ctx context.Context, userID string, at time.Time) error
	TouchLastSignIn(ctx context.Context, userID string, at time.Time) error

	// DeleteUser cascades to every credential, token and link.
	DeleteUser(ctx context.Context, userID string) error
}

type Credentials interface {
	GetCredentialByUserID(ctx context.Context, userID string) (domain.Credential, error)

	// CreateCredential returns ErrAlreadyExists if the user has one already.
	CreateCredential(ctx context.Context, c domain.Credential) error

	// UpdatePassword replaces hash and salt and clears must_change_password.
	UpdatePassword(ctx context.Context, userID, hash, salt string, at time.Time) error

	// UpsertCredential inserts or replaces the user's password.
	UpsertCredential(ctx context.Context, c domain.Credential) error
}

type Tokens interface {
	CreateToken(ctx context.Context, t domain.Token) error
	GetTokenByHash(ctx context.Context, hash string, typ domain.TokenType) (domain.Token, error)

	// GetLatestTokenForUser returns the most recently issued token of typ.
	GetLatestTokenForUser(ctx context.Context, userID string, typ domain.TokenType) (domain.Token, error)

	// MarkConsumed returns ErrNotFound when the token is gone or already consumed.
	MarkConsumed(ctx context.Context, id string, at time.Time) error

	DeleteToken(ctx context.Context, id string) error
	DeleteTokenByHash(ctx context.Context, hash string) error
	DeleteUserTokens(ctx context.Context, userID string, typ domain.TokenType) (int64, error)
	DeleteSiblingTokens(ctx context.Context, userID string, typ domain.TokenType, keepID string) (int64, error)

	// Housekeeping.
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error)
	DeleteConsumedTokens(ctx context.Context, before time.Time) (int64, error)
}

type OAuthAccounts interface {
	GetOAuthAccount(ctx context.Context, provider domain.OAuthProvider, providerAccountID string) (domain.OAuthAccount, error)
	GetOAuthAccountForUser(ctx context.Context, userID string, provider domain.OAuthProvider) (domain.OAuthAccount, error)
	ListOAuthAccountsForUser(ctx context.Context, userID string) ([]domain.OAuthAccount, error)

	// CreateOAuthAccount ignores conflicts and reports whether a row was written.
	CreateOAuthAccount(ctx context.Context, a domain.OAuthAccount) (bool, error)

	DeleteOAuthAccount(ctx context.Context, userID string, provider domain.OAuthProvider) error
}

type Passkeys interface {
	ListPasskeysForUser(ctx context.Context, userID string) ([]domain.Passkey, error)
	GetPasskeyByCredentialID(ctx context.Context, credentialID string) (domain.Passkey, error)
	CreatePasskey(ctx context.Context, p domain.Passkey) error
	UpdatePasskeyUsage(ctx context.Context, u PasskeyUsage) error
	UpdatePasskeyLabel(ctx context.Context, userID, id string, label *string, at time.Time) error
	DeletePasskey(ctx context.Context, userID, id string) error
	DeletePasskeyByCredentialID(ctx context.Context, credentialID string) error
}

// PasskeyUsage is written after a successful authentication.
type PasskeyUsage struct {
	ID               string
	SignCount        uint32
	IsBackupEligible bool
	IsBackupState    bool
	IsUserVerified   bool
	UsedAt           time.Time
}
