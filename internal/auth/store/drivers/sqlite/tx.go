package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store/drivers/sqlite/gen"
)

type txStore struct {
	tx *sql.Tx
	q  *gen.Queries
}

func newTx(tx *sql.Tx) *txStore {
	return &txStore{
		tx: tx,
		q:  gen.New(tx),
	}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

// Close is a no-op; the outer Store owns the handle.
func (t *txStore) Close() error { return nil }

func (t *txStore) Ping(ctx context.Context) error { return nil }

// Nested transactions are not supported.
func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

func (t *txStore) Users() store.Users                 { return &usersRepo{q: t.q} }
func (t *txStore) Credentials() store.Credentials     { return &credentialsRepo{q: t.q} }
func (t *txStore) Tokens() store.Tokens               { return &tokensRepo{q: t.q} }
func (t *txStore) OAuthAccounts() store.OAuthAccounts { return &oauthAccountsRepo{q: t.q} }
func (t *txStore) Passkeys() store.Passkeys           { return &passkeysRepo{q: t.q} }

func (t *txStore) ApplyMigrations() error { return nil }
