package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store/drivers/sqlite/gen"
	_ "modernc.org/sqlite"
)

type Store struct {
	db  *sql.DB
	q   *gen.Queries
	dsn string
}

// NewStore opens the sqlite database at path. Foreign keys, WAL and a busy
// timeout are set per connection through the DSN so every pooled
// connection gets them.
func NewStore(path string) (*Store, error) {
	dsn := buildDSN(path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}

	s := NewStoreFromDB(db)
	s.dsn = dsn
	return s, nil
}

// NewStoreFromDB wraps an existing handle, e.g. a sqlmock connection.
func NewStoreFromDB(db *sql.DB) *Store {
	return &Store{
		db: db,
		q:  gen.New(db),
	}
}

func buildDSN(path string) string {
	v := url.Values{}
	v.Add("_pragma", "foreign_keys(1)")
	v.Add("_pragma", "busy_timeout(5000)")
	v.Add("_pragma", "journal_mode(WAL)")
	return "file:" + path + "?" + v.Encode()
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Tx starts a read/write transaction and returns a Tx-scoped Store.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return newTx(tx), nil
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}

	// Rollback after Commit is a no-op returning sql.ErrTxDone.
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) Users() store.Users                 { return &usersRepo{q: s.q} }
func (s *Store) Credentials() store.Credentials     { return &credentialsRepo{q: s.q} }
func (s *Store) Tokens() store.Tokens               { return &tokensRepo{q: s.q} }
func (s *Store) OAuthAccounts() store.OAuthAccounts { return &oauthAccountsRepo{q: s.q} }
func (s *Store) Passkeys() store.Passkeys           { return &passkeysRepo{q: s.q} }
