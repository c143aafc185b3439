package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/internal/auth/mail"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

const EmailTokenTTL = 24 * time.Hour

// EmailTokenResult describes a redeemed email link.
type EmailTokenResult struct {
	Operation string
	User      domain.SessionUser
	Email     string
}

// EmailService runs the verify and change-email link protocols. Both share
// the email_verification token type and are told apart by the metadata
// operation.
type EmailService struct {
	Store   store.Store
	Tokens  *TokenStore
	Mailer  mail.Sender
	BaseURL string
	Clock   func() time.Time
}

type changeEmailInput struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

func (s *EmailService) verifyURL(raw string) string {
	return strings.TrimRight(s.BaseURL, "/") + "/verify-email?token=" + url.QueryEscape(raw)
}

func (s *EmailService) loadUser(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// SendVerification mails a link confirming the user's current address.
func (s *EmailService) SendVerification(ctx context.Context, userID string) error {
	log := slogx.FromContext(ctx)

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.EmailVerified() {
		return ErrEmailAlreadyVerified
	}

	raw, tok, err := s.Tokens.Issue(ctx, IssueParams{
		UserID:   &user.ID,
		Type:     domain.TokenTypeEmailVerification,
		Metadata: domain.TokenMetadata{EmailVerify: &domain.EmailVerifyMetadata{Email: user.Email}},
		TTL:      EmailTokenTTL,
	})
	if err != nil {
		return err
	}

	err = s.Mailer.SendVerification(ctx, mail.VerificationMessage{
		To:   user.Email,
		Name: user.Name,
		URL:  s.verifyURL(raw),
	})
	recordEvent("email_verification_sent", err)
	if err != nil {
		return s.deliveryFailed(ctx, tok, err)
	}

	log.Info("verification email sent", slog.String("user_id", user.ID))
	return nil
}

// RequestEmailChange mails a confirmation link to newEmail. The address is
// only changed once the link is redeemed.
func (s *EmailService) RequestEmailChange(ctx context.Context, userID, newEmail string) error {
	log := slogx.FromContext(ctx)

	newEmail = strings.TrimSpace(newEmail)
	if err := Validate(changeEmailInput{Email: newEmail}); err != nil {
		return err
	}
	normalized := NormalizeEmail(newEmail)

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if normalized == user.Email {
		return ErrEmailUnchanged
	}

	// Checked again when the link is redeemed.
	if _, err := s.Store.Users().GetUserByEmail(ctx, normalized); err == nil {
		return ErrEmailInUse
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("lookup email: %w", err)
	}

	raw, tok, err := s.Tokens.Issue(ctx, IssueParams{
		UserID: &user.ID,
		Type:   domain.TokenTypeEmailVerification,
		Metadata: domain.TokenMetadata{EmailChange: &domain.EmailChangeMetadata{
			NewEmail:           newEmail,
			NormalizedNewEmail: normalized,
			CurrentEmail:       user.Email,
		}},
		TTL: EmailTokenTTL,
	})
	if err != nil {
		return err
	}

	err = s.Mailer.SendEmailChange(ctx, mail.EmailChangeMessage{
		To:           newEmail,
		Name:         user.Name,
		URL:          s.verifyURL(raw),
		CurrentEmail: user.Email,
	})
	recordEvent("email_change_requested", err)
	if err != nil {
		return s.deliveryFailed(ctx, tok, err)
	}

	log.Info("email change requested", slog.String("user_id", user.ID))
	return nil
}

// deliveryFailed removes a token whose email never went out.
func (s *EmailService) deliveryFailed(ctx context.Context, tok domain.Token, cause error) error {
	log := slogx.FromContext(ctx)
	log.Error("failed to send email",
		slog.String("token_id", tok.ID),
		slog.Any("error", cause),
	)
	if err := s.Tokens.Revoke(ctx, tok.ID); err != nil {
		log.Error("failed to delete undelivered token",
			slog.String("token_id", tok.ID),
			slog.Any("error", err),
		)
	}
	return fmt.Errorf("%w: %w", ErrEmailDelivery, cause)
}

// ConsumeEmailToken redeems a link from SendVerification or
// RequestEmailChange.
func (s *EmailService) ConsumeEmailToken(ctx context.Context, raw string) (EmailTokenResult, error) {
	log := slogx.FromContext(ctx)

	var result EmailTokenResult
	_, err := s.Tokens.ConsumeWith(ctx, raw, domain.TokenTypeEmailVerification, func(tx store.Tx, tok domain.Token) error {
		if tok.UserID == nil {
			return ErrInvalidEmailLink
		}

		user, err := tx.Users().GetUserByID(ctx, *tok.UserID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidEmailLink
		}
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}

		now := nowFrom(s.Clock)
		meta := tok.Metadata
		switch {
		case meta.EmailVerify != nil:
			// The address changed since the link was sent.
			if meta.EmailVerify.Email != user.Email {
				return ErrInvalidEmailLink
			}
			if err := tx.Users().MarkEmailVerified(ctx, user.ID, now); err != nil {
				return fmt.Errorf("mark email verified: %w", err)
			}
			result = EmailTokenResult{Operation: domain.OpEmailVerify, User: user.Session(), Email: user.Email}

		case meta.EmailChange != nil:
			target := meta.EmailChange.NormalizedNewEmail
			other, err := tx.Users().GetUserByEmail(ctx, target)
			if err == nil && other.ID != user.ID {
				return ErrEmailInUse
			}
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("lookup email: %w", err)
			}

			err = tx.Users().UpdateEmail(ctx, user.ID, target, now)
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailInUse
			}
			if err != nil {
				return fmt.Errorf("update email: %w", err)
			}
			result = EmailTokenResult{Operation: domain.OpEmailChange, User: user.Session(), Email: target}

		default:
			return ErrInvalidEmailLink
		}
		return nil
	})
	recordEvent("email_token_consumed", err)
	if errors.Is(err, ErrTokenInvalid) {
		return EmailTokenResult{}, ErrInvalidEmailLink
	}
	if err != nil {
		log.Warn("email token rejected", slog.Any("error", err))
		return EmailTokenResult{}, err
	}

	log.Info("email token consumed",
		slog.String("user_id", result.User.ID),
		slog.String("operation", result.Operation),
	)
	return result, nil
}
