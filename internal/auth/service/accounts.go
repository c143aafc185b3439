package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
	"github.com/aussiebroadwan/gatehouse/pkg/cryptox"
	"github.com/aussiebroadwan/gatehouse/pkg/idx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

type SignUpInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,password"`
}

type signInInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AccountService struct {
	Store store.Store
	// Email sends the verification mail after sign-up. Optional.
	Email *EmailService
	Clock func() time.Time

	dummyOnce sync.Once
	dummyHash string
	dummySalt string
}

// SignUp creates a user with a password credential and returns the session
// projection for the new account.
func (s *AccountService) SignUp(ctx context.Context, in SignUpInput) (domain.SessionUser, error) {
	log := slogx.FromContext(ctx)

	// 1. Validate and normalise.
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := Validate(in); err != nil {
		return domain.SessionUser{}, err
	}
	email := NormalizeEmail(in.Email)

	// 2. Hash outside the transaction; argon2 is slow.
	hash, salt, err := hashNewPassword(in.Password)
	if err != nil {
		return domain.SessionUser{}, err
	}

	now := nowFrom(s.Clock)
	user := domain.User{
		ID:        idx.NewAt(now).String(),
		Email:     email,
		Name:      in.Name,
		Role:      domain.DefaultRole,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// 3. User and credential land together or not at all.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailExists
			}
			return fmt.Errorf("create user: %w", err)
		}
		err := tx.Credentials().CreateCredential(ctx, domain.Credential{
			ID:            idx.NewAt(now).String(),
			UserID:        user.ID,
			PasswordHash:  hash,
			PasswordSalt:  salt,
			LastChangedAt: now,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
		if err != nil {
			return fmt.Errorf("create credential: %w", err)
		}
		return tx.Users().TouchLastSignIn(ctx, user.ID, now)
	})
	recordEvent("sign_up", err)
	if err != nil {
		log.Warn("sign up failed", slog.Any("error", err))
		return domain.SessionUser{}, err
	}

	log.Info("user signed up", slog.String("user_id", user.ID))

	// 4. Verification mail is best effort; the account already exists.
	if s.Email != nil {
		if err := s.Email.SendVerification(ctx, user.ID); err != nil {
			log.Warn("failed to send verification email after sign up",
				slog.String("user_id", user.ID),
				slog.Any("error", err),
			)
		}
	}

	return user.Session(), nil
}

// SignIn checks an email and password. Unknown emails and wrong passwords
// return the same error.
func (s *AccountService) SignIn(ctx context.Context, email, password string) (domain.SessionUser, error) {
	log := slogx.FromContext(ctx)

	email = strings.TrimSpace(email)
	if err := Validate(signInInput{Email: email, Password: password}); err != nil {
		return domain.SessionUser{}, err
	}
	email = NormalizeEmail(email)

	user, err := s.authenticate(ctx, email, password)
	recordEvent("sign_in", err)
	if err != nil {
		log.Info("sign in rejected", slog.Any("error", err))
		return domain.SessionUser{}, err
	}

	if err := s.Store.Users().TouchLastSignIn(ctx, user.ID, nowFrom(s.Clock)); err != nil {
		log.Warn("failed to stamp last sign in", slog.String("user_id", user.ID), slog.Any("error", err))
	}

	log.Info("user signed in", slog.String("user_id", user.ID))
	return user.Session(), nil
}

func (s *AccountService) authenticate(ctx context.Context, email, password string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		s.burnVerify(password)
		return domain.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}

	cred, err := s.Store.Credentials().GetCredentialByUserID(ctx, user.ID)
	if errors.Is(err, store.ErrNotFound) {
		s.burnVerify(password)
		return domain.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get credential: %w", err)
	}

	if err := cryptox.VerifyPassword(password, cred.PasswordHash, cred.PasswordSalt); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, fmt.Errorf("verify password: %w", err)
	}
	return user, nil
}

// burnVerify spends the same argon2 work as a real check so unknown accounts
// answer in comparable time.
func (s *AccountService) burnVerify(password string) {
	s.dummyOnce.Do(func() {
		salt, err := cryptox.GenerateSalt()
		if err != nil {
			return
		}
		hash, err := cryptox.HashPassword("gatehouse-dummy-password", salt)
		if err != nil {
			return
		}
		s.dummyHash, s.dummySalt = hash, salt
	})
	if s.dummyHash != "" {
		_ = cryptox.VerifyPassword(password, s.dummyHash, s.dummySalt)
	}
}

// GetUser loads a user by id.
func (s *AccountService) GetUser(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// UpdateProfile sets the display name.
func (s *AccountService) UpdateProfile(ctx context.Context, userID, name string) (domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.User{}, ErrNameRequired
	}
	if len(name) > 100 {
		return domain.User{}, &ValidationError{Fields: map[string]string{"name": "Value is too long"}}
	}

	err := s.Store.Users().UpdateName(ctx, userID, name, nowFrom(s.Clock))
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("update name: %w", err)
	}

	slogx.FromContext(ctx).Info("profile updated", slog.String("user_id", userID))
	return s.GetUser(ctx, userID)
}

// DeleteUser removes a user and everything that hangs off it.
func (s *AccountService) DeleteUser(ctx context.Context, userID string) error {
	err := s.Store.Users().DeleteUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	slogx.FromContext(ctx).Info("user deleted", slog.String("user_id", userID))
	return nil
}
