package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestEmailVerification(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u := e.seedUser(t, "a@x.com", "")

	require.NoError(t, e.email.SendVerification(ctx, u.ID))
	require.Equal(t, "Test User", e.mailer.verification[0].Name)
	raw := e.mailer.lastVerificationToken(t)

	res, err := e.email.ConsumeEmailToken(ctx, raw)
	require.NoError(t, err)
	require.Equal(t, domain.OpEmailVerify, res.Operation)
	require.Equal(t, u.ID, res.User.ID)

	got, err := e.store.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, got.EmailVerified())

	_, err = e.email.ConsumeEmailToken(ctx, raw)
	require.ErrorIs(t, err, ErrInvalidEmailLink)

	require.ErrorIs(t, e.email.SendVerification(ctx, u.ID), ErrEmailAlreadyVerified)
}

func TestEmailVerificationExpires(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u := e.seedUser(t, "a@x.com", "")

	require.NoError(t, e.email.SendVerification(ctx, u.ID))
	raw := e.mailer.lastVerificationToken(t)

	e.clock.Advance(EmailTokenTTL)
	_, err := e.email.ConsumeEmailToken(ctx, raw)
	require.ErrorIs(t, err, ErrInvalidEmailLink)
}

func TestEmailDeliveryFailureDeletesToken(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u := e.seedUser(t, "a@x.com", "")
	e.mailer.fail = true

	err := e.email.SendVerification(ctx, u.ID)
	require.ErrorIs(t, err, ErrDelivery)
	require.ErrorIs(t, err, errSMTPDown)

	_, err = e.tokens.LatestForUser(ctx, u.ID, domain.TokenTypeEmailVerification)
	require.ErrorIs(t, err, ErrTokenInvalid)

	err = e.email.RequestEmailChange(ctx, u.ID, "new@x.com")
	require.ErrorIs(t, err, ErrDelivery)

	_, err = e.tokens.LatestForUser(ctx, u.ID, domain.TokenTypeEmailVerification)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestEmailChange(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u := e.seedUser(t, "a@x.com", "")

	require.NoError(t, e.email.RequestEmailChange(ctx, u.ID, " New@X.com "))
	msg := e.mailer.change[0]
	require.Equal(t, "New@X.com", msg.To)
	require.Equal(t, "a@x.com", msg.CurrentEmail)

	res, err := e.email.ConsumeEmailToken(ctx, e.mailer.lastChangeToken(t))
	require.NoError(t, err)
	require.Equal(t, domain.OpEmailChange, res.Operation)
	require.Equal(t, "new@x.com", res.Email)

	got, err := e.store.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "new@x.com", got.Email)
	require.True(t, got.EmailVerified())
}

func TestEmailChangeRejectedUpFront(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u := e.seedUser(t, "a@x.com", "")
	e.seedUser(t, "taken@x.com", "")

	require.ErrorIs(t, e.email.RequestEmailChange(ctx, u.ID, "A@x.com"), ErrEmailUnchanged)
	require.ErrorIs(t, e.email.RequestEmailChange(ctx, u.ID, "TAKEN@x.com"), ErrEmailInUse)
	require.ErrorIs(t, e.email.RequestEmailChange(ctx, u.ID, "nope"), ErrValidation)
	require.Empty(t, e.mailer.change)
}

func TestEmailChangeCollisionAfterIssue(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u := e.seedUser(t, "a@x.com", "")

	require.NoError(t, e.email.RequestEmailChange(ctx, u.ID, "new@x.com"))
	raw := e.mailer.lastChangeToken(t)

	// Someone else claims the address before the link is opened.
	e.seedUser(t, "new@x.com", "")

	_, err := e.email.ConsumeEmailToken(ctx, raw)
	require.ErrorIs(t, err, ErrEmailInUse)
	require.ErrorIs(t, err, ErrConflict)

	got, err := e.store.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "a@x.com", got.Email)

	// The link is dead afterwards.
	_, err = e.email.ConsumeEmailToken(ctx, raw)
	require.ErrorIs(t, err, ErrInvalidEmailLink)
}

func TestEmailChangeSupersedesVerifyLink(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u := e.seedUser(t, "a@x.com", "")

	require.NoError(t, e.email.SendVerification(ctx, u.ID))
	verify := e.mailer.lastVerificationToken(t)

	e.clock.Advance(time.Minute)
	require.NoError(t, e.email.RequestEmailChange(ctx, u.ID, "new@x.com"))

	_, err := e.email.ConsumeEmailToken(ctx, verify)
	require.ErrorIs(t, err, ErrInvalidEmailLink)
}
