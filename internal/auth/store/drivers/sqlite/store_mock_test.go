package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*sqlite.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlite.NewStoreFromDB(db), mock
}

func TestMockGetUserNoRows(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id, email, name, role").
		WithArgs("u1").
		WillReturnError(sql.ErrNoRows)

	_, err := s.Users().GetUserByID(context.Background(), "u1")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMockDriverErrorPassesThrough(t *testing.T) {
	s, mock := newMockStore(t)
	boom := errors.New("disk I/O error")

	mock.ExpectQuery("SELECT id, email, name, role").WillReturnError(boom)

	_, err := s.Users().GetUserByEmail(context.Background(), "a@x.com")
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, store.ErrNotFound)
}

func TestMockUniqueViolationMapsToAlreadyExists(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)"))

	err := s.Users().CreateUser(context.Background(), domain.User{
		ID: "u1", Email: "a@x.com", Name: "A", Role: domain.RoleUser,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestMockZeroRowsIsNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("UPDATE user_tokens SET consumed_at").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Tokens().MarkConsumed(context.Background(), "t1", time.Now())
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestMockWithTxRollbackOnError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM user_tokens WHERE id").WillReturnError(errors.New("locked"))
	mock.ExpectRollback()

	err := s.WithTx(context.Background(), func(tx store.Tx) error {
		return tx.Tokens().DeleteToken(context.Background(), "t1")
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMockWithTxCommit(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM user_tokens WHERE user_id").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := s.WithTx(context.Background(), func(tx store.Tx) error {
		n, err := tx.Tokens().DeleteUserTokens(context.Background(), "u1", domain.TokenTypePasswordReset)
		require.EqualValues(t, 2, n)
		return err
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMockBadMetadataSurfaces(t *testing.T) {
	s, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "user_id", "token_hash", "type", "expires_at", "consumed_at", "metadata", "created_at"}).
		AddRow("t1", "u1", "h", "otp", time.Now(), nil, `{"operation":"teleport"}`, time.Now())
	mock.ExpectQuery("FROM user_tokens").WillReturnRows(rows)

	_, err := s.Tokens().GetTokenByHash(context.Background(), "h", domain.TokenTypeOTP)
	require.ErrorIs(t, err, domain.ErrUnknownTokenOperation)
}
