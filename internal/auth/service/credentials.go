package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
	"github.com/aussiebroadwan/gatehouse/pkg/cryptox"
	"github.com/aussiebroadwan/gatehouse/pkg/idx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

// PasswordChangeResult tells the caller to reissue the session for User.
// Existing sessions elsewhere stay valid until they expire.
type PasswordChangeResult struct {
	RefreshSession bool
	User           domain.SessionUser
}

type CredentialService struct {
	Store store.Store
	Clock func() time.Time
}

type changePasswordInput struct {
	Current string `json:"currentPassword" validate:"required"`
	New     string `json:"newPassword" validate:"required,password"`
}

type createPasswordInput struct {
	New string `json:"newPassword" validate:"required,password"`
}

// hashNewPassword salts and hashes password with a fresh salt.
func hashNewPassword(password string) (hash, salt string, err error) {
	salt, err = cryptox.GenerateSalt()
	if err != nil {
		return "", "", fmt.Errorf("generate salt: %w", err)
	}
	hash, err = cryptox.HashPassword(password, salt)
	if err != nil {
		return "", "", fmt.Errorf("hash password: %w", err)
	}
	return hash, salt, nil
}

// HasPassword reports whether userID has a password credential.
func (s *CredentialService) HasPassword(ctx context.Context, userID string) (bool, error) {
	_, err := s.Store.Credentials().GetCredentialByUserID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get credential: %w", err)
	}
	return true, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *CredentialService) ChangePassword(ctx context.Context, userID, current, next string) (PasswordChangeResult, error) {
	log := slogx.FromContext(ctx)

	// 1. Validate input before touching storage.
	if err := Validate(changePasswordInput{Current: current, New: next}); err != nil {
		return PasswordChangeResult{}, err
	}

	var user domain.User
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		user, err = tx.Users().GetUserByID(ctx, userID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}

		// 2. Verify the current password.
		cred, err := tx.Credentials().GetCredentialByUserID(ctx, userID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrPasswordNotSet
		}
		if err != nil {
			return fmt.Errorf("get credential: %w", err)
		}
		if err := cryptox.VerifyPassword(current, cred.PasswordHash, cred.PasswordSalt); err != nil {
			if errors.Is(err, cryptox.ErrPasswordMismatch) {
				return ErrCurrentPassword
			}
			return fmt.Errorf("verify password: %w", err)
		}

		// 3. Replace hash and salt together.
		hash, salt, err := hashNewPassword(next)
		if err != nil {
			return err
		}
		if err := tx.Credentials().UpdatePassword(ctx, userID, hash, salt, nowFrom(s.Clock)); err != nil {
			return fmt.Errorf("update password: %w", err)
		}
		return nil
	})
	recordEvent("password_change", err)
	if err != nil {
		log.Warn("password change failed",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
		return PasswordChangeResult{}, err
	}

	log.Info("password changed", slog.String("user_id", userID))
	return PasswordChangeResult{RefreshSession: true, User: user.Session()}, nil
}

// CreatePassword adds a password to an account that signs in some other way.
func (s *CredentialService) CreatePassword(ctx context.Context, userID, next string) (PasswordChangeResult, error) {
	log := slogx.FromContext(ctx)

	if err := Validate(createPasswordInput{New: next}); err != nil {
		return PasswordChangeResult{}, err
	}

	hash, salt, err := hashNewPassword(next)
	if err != nil {
		return PasswordChangeResult{}, err
	}

	var user domain.User
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		user, err = tx.Users().GetUserByID(ctx, userID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}

		now := nowFrom(s.Clock)
		err = tx.Credentials().CreateCredential(ctx, domain.Credential{
			ID:            idx.NewAt(now).String(),
			UserID:        userID,
			PasswordHash:  hash,
			PasswordSalt:  salt,
			LastChangedAt: now,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
		if errors.Is(err, store.ErrAlreadyExists) {
			return ErrPasswordAlreadySet
		}
		if err != nil {
			return fmt.Errorf("create credential: %w", err)
		}
		return nil
	})
	recordEvent("password_create", err)
	if err != nil {
		log.Warn("password creation failed",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
		return PasswordChangeResult{}, err
	}

	log.Info("password created", slog.String("user_id", userID))
	return PasswordChangeResult{RefreshSession: true, User: user.Session()}, nil
}
