package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/internal/auth/mail"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
	"github.com/aussiebroadwan/gatehouse/pkg/cryptox"
	"github.com/aussiebroadwan/gatehouse/pkg/idx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

const (
	PasswordResetTTL       = 10 * time.Minute
	PasswordResetOTPLength = 6

	// DefaultResetResponseFloor covers a token write plus an SMTP round trip.
	DefaultResetResponseFloor = 300 * time.Millisecond
)

type PasswordResetService struct {
	Store  store.Store
	Tokens *TokenStore
	Mailer mail.Sender
	Clock  func() time.Time

	// ResponseFloor is the least time RequestReset takes, whatever the
	// outcome, so unknown and known emails answer in similar time.
	ResponseFloor time.Duration
}

type resetRequestInput struct {
	Email string `json:"email" validate:"required,email"`
}

type resetSubmitInput struct {
	Email    string `json:"email" validate:"required,email"`
	Code     string `json:"code" validate:"required,otp"`
	Password string `json:"password" validate:"required,password"`
}

// resetTokenValue binds a code to the account's normalised email so a code
// is useless without the address it was sent to.
func resetTokenValue(normalizedEmail, code string) string {
	return normalizedEmail + ":" + code
}

// RequestReset mails a one-time code. Unknown emails return nil so callers
// cannot tell whether an account exists.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	log := slogx.FromContext(ctx)
	defer s.waitFloor(ctx, time.Now())

	email = strings.TrimSpace(email)
	if err := Validate(resetRequestInput{Email: email}); err != nil {
		return err
	}
	normalized := NormalizeEmail(email)

	user, err := s.Store.Users().GetUserByEmail(ctx, normalized)
	if errors.Is(err, store.ErrNotFound) {
		recordEvent("password_reset_requested", nil)
		log.Debug("password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	code, err := cryptox.GenerateNumericCode(PasswordResetOTPLength)
	if err != nil {
		return fmt.Errorf("generate reset code: %w", err)
	}

	_, tok, err := s.Tokens.Issue(ctx, IssueParams{
		UserID: &user.ID,
		Type:   domain.TokenTypePasswordReset,
		Metadata: domain.TokenMetadata{PasswordReset: &domain.PasswordResetMetadata{
			Email:           user.Email,
			NormalizedEmail: normalized,
			OTPLength:       PasswordResetOTPLength,
		}},
		TTL: PasswordResetTTL,
		Raw: resetTokenValue(normalized, code),
	})
	if err != nil {
		return err
	}

	err = s.Mailer.SendPasswordResetCode(ctx, mail.PasswordResetMessage{
		To:               user.Email,
		Name:             user.Name,
		Code:             code,
		ExpiresInMinutes: int(PasswordResetTTL / time.Minute),
	})
	recordEvent("password_reset_requested", err)
	if err != nil {
		log.Error("failed to send password reset code",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
		if derr := s.Tokens.Revoke(ctx, tok.ID); derr != nil {
			log.Error("failed to delete undelivered reset token", slog.Any("error", derr))
		}
		return fmt.Errorf("%w: %w", ErrEmailDelivery, err)
	}

	log.Info("password reset code sent", slog.String("user_id", user.ID))
	return nil
}

// waitFloor blocks until ResponseFloor has passed since start or ctx ends.
func (s *PasswordResetService) waitFloor(ctx context.Context, start time.Time) {
	remaining := s.ResponseFloor - time.Since(start)
	if remaining <= 0 {
		return
	}
	t := time.NewTimer(remaining)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// ResetPassword sets a new password for the account the code was sent to.
// Every rejection is ErrInvalidResetCode.
func (s *PasswordResetService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	log := slogx.FromContext(ctx)

	email = strings.TrimSpace(email)
	if err := Validate(resetSubmitInput{Email: email, Code: code, Password: newPassword}); err != nil {
		var verr *ValidationError
		// Password policy failures are the caller's to fix; code shape
		// failures are not distinguished from wrong codes.
		if errors.As(err, &verr) {
			if msg, ok := verr.Fields["password"]; ok {
				return &ValidationError{Fields: map[string]string{"password": msg}}
			}
		}
		return ErrInvalidResetCode
	}
	normalized := NormalizeEmail(email)

	// Hash before the transaction; argon2 is slow.
	hash, salt, err := hashNewPassword(newPassword)
	if err != nil {
		return err
	}

	_, err = s.Tokens.ConsumeWith(ctx, resetTokenValue(normalized, code), domain.TokenTypePasswordReset,
		func(tx store.Tx, tok domain.Token) error {
			meta := tok.Metadata.PasswordReset
			if meta == nil || meta.NormalizedEmail != normalized || tok.UserID == nil {
				return ErrInvalidResetCode
			}

			user, err := tx.Users().GetUserByID(ctx, *tok.UserID)
			if err != nil {
				return ErrInvalidResetCode
			}
			if user.Email != normalized {
				return ErrInvalidResetCode
			}

			now := nowFrom(s.Clock)
			err = tx.Credentials().UpsertCredential(ctx, domain.Credential{
				ID:            idx.NewAt(now).String(),
				UserID:        user.ID,
				PasswordHash:  hash,
				PasswordSalt:  salt,
				LastChangedAt: now,
				CreatedAt:     now,
				UpdatedAt:     now,
			})
			if err != nil {
				return fmt.Errorf("upsert credential: %w", err)
			}
			return nil
		})
	recordEvent("password_reset", err)
	if err != nil {
		var se *Error
		if errors.As(err, &se) {
			log.Info("password reset rejected", slog.Any("error", err))
			return ErrInvalidResetCode
		}
		log.Error("password reset failed", slog.Any("error", err))
		return err
	}

	log.Info("password reset completed")
	return nil
}
