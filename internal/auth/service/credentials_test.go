package service

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/gatehouse/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u := e.seedUser(t, "a@x.com", testPassword)

	before, err := e.store.Credentials().GetCredentialByUserID(ctx, u.ID)
	require.NoError(t, err)

	res, err := e.credentials.ChangePassword(ctx, u.ID, testPassword, "NewSecret2@")
	require.NoError(t, err)
	require.True(t, res.RefreshSession)
	require.Equal(t, u.ID, res.User.ID)

	after, err := e.store.Credentials().GetCredentialByUserID(ctx, u.ID)
	require.NoError(t, err)
	require.NotEqual(t, before.PasswordSalt, after.PasswordSalt)
	require.NoError(t, cryptox.VerifyPassword("NewSecret2@", after.PasswordHash, after.PasswordSalt))
	require.ErrorIs(t, cryptox.VerifyPassword(testPassword, after.PasswordHash, after.PasswordSalt), cryptox.ErrPasswordMismatch)
}

func TestChangePasswordFailures(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	withPw := e.seedUser(t, "a@x.com", testPassword)
	withoutPw := e.seedUser(t, "b@x.com", "")

	tests := []struct {
		name    string
		userID  string
		current string
		next    string
		want    error
	}{
		{"wrong current", withPw.ID, "Wrong1!x", "NewSecret2@", ErrCurrentPassword},
		{"no password", withoutPw.ID, testPassword, "NewSecret2@", ErrPasswordNotSet},
		{"weak new", withPw.ID, testPassword, "short", ErrValidation},
		{"unknown user", "missing", testPassword, "NewSecret2@", ErrUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.credentials.ChangePassword(ctx, tt.userID, tt.current, tt.next)
			require.ErrorIs(t, err, tt.want)
		})
	}

	// Nothing changed.
	cred, err := e.store.Credentials().GetCredentialByUserID(ctx, withPw.ID)
	require.NoError(t, err)
	require.NoError(t, cryptox.VerifyPassword(testPassword, cred.PasswordHash, cred.PasswordSalt))
}

func TestCreatePassword(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u := e.seedUser(t, "a@x.com", "")

	has, err := e.credentials.HasPassword(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, has)

	res, err := e.credentials.CreatePassword(ctx, u.ID, "NewSecret2@")
	require.NoError(t, err)
	require.True(t, res.RefreshSession)

	has, err = e.credentials.HasPassword(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, has)

	_, err = e.credentials.CreatePassword(ctx, u.ID, "Another3#")
	require.ErrorIs(t, err, ErrPasswordAlreadySet)
	require.ErrorIs(t, err, ErrConflict)
}
