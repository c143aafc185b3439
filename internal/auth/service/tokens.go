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

// nowFrom reads clock, or the wall clock when nil. Times are always UTC so
// the store compares them consistently.
func nowFrom(clock func() time.Time) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock().UTC()
}

// IssueParams describes a token to mint.
type IssueParams struct {
	UserID   *string
	Type     domain.TokenType
	Metadata domain.TokenMetadata
	TTL      time.Duration

	// Raw is hashed instead of a freshly generated value when set. Password
	// reset uses it to bind the code to an email; passkeys bind the
	// WebAuthn challenge.
	Raw string
}

// TokenStore issues and consumes hashed single-use tokens. At most one token
// per (user, type) exists at any time.
type TokenStore struct {
	Store store.Store
	Clock func() time.Time
}

// Issue stores a new token and returns its raw value. The raw value is never
// persisted or logged.
func (s *TokenStore) Issue(ctx context.Context, p IssueParams) (string, domain.Token, error) {
	log := slogx.FromContext(ctx)

	if !p.Type.Valid() || p.TTL <= 0 {
		return "", domain.Token{}, fmt.Errorf("issue token: invalid type %q or ttl %s", p.Type, p.TTL)
	}

	// 1. Generate the raw value unless the caller supplied one.
	raw := p.Raw
	if raw == "" {
		var err error
		raw, err = cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return "", domain.Token{}, fmt.Errorf("generate token: %w", err)
		}
	}

	now := nowFrom(s.Clock)
	tok := domain.Token{
		ID:        idx.NewAt(now).String(),
		UserID:    p.UserID,
		TokenHash: cryptox.FingerprintToken(raw),
		Type:      p.Type,
		ExpiresAt: now.Add(p.TTL),
		Metadata:  p.Metadata,
		CreatedAt: now,
	}

	// 2. Replace any token of the same type for this user.
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if p.UserID != nil {
			if _, err := tx.Tokens().DeleteUserTokens(ctx, *p.UserID, p.Type); err != nil {
				return fmt.Errorf("delete previous tokens: %w", err)
			}
		}
		// A pre-auth token with the same raw value replaces the old row.
		if err := tx.Tokens().DeleteTokenByHash(ctx, tok.TokenHash); err != nil {
			return fmt.Errorf("delete token with same hash: %w", err)
		}
		if err := tx.Tokens().CreateToken(ctx, tok); err != nil {
			return fmt.Errorf("create token: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Error("failed to issue token",
			slog.String("type", string(p.Type)),
			slog.Any("error", err),
		)
		return "", domain.Token{}, err
	}

	log.Debug("token issued",
		slog.String("token_id", tok.ID),
		slog.String("type", string(tok.Type)),
		slog.Time("expires_at", tok.ExpiresAt),
	)
	return raw, tok, nil
}

// Consume redeems raw once. Missing, consumed and expired tokens all return
// ErrTokenInvalid.
func (s *TokenStore) Consume(ctx context.Context, raw string, typ domain.TokenType) (domain.Token, error) {
	return s.ConsumeWith(ctx, raw, typ, nil)
}

// ConsumeWith redeems raw and runs fn in the same transaction. When fn fails
// nothing fn wrote is kept and the token is deleted.
func (s *TokenStore) ConsumeWith(
	ctx context.Context,
	raw string,
	typ domain.TokenType,
	fn func(tx store.Tx, tok domain.Token) error,
) (domain.Token, error) {
	log := slogx.FromContext(ctx)

	if raw == "" {
		return domain.Token{}, ErrTokenInvalid
	}

	hash := cryptox.FingerprintToken(raw)
	now := nowFrom(s.Clock)

	var (
		consumed domain.Token
		expired  bool
		fnFailed bool
	)
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		tok, err := tx.Tokens().GetTokenByHash(ctx, hash, typ)
		if errors.Is(err, store.ErrNotFound) {
			return ErrTokenInvalid
		}
		if err != nil {
			return fmt.Errorf("lookup token: %w", err)
		}

		if tok.ConsumedAt != nil {
			return ErrTokenInvalid
		}

		// Expired rows are removed on sight. The delete commits.
		if !now.Before(tok.ExpiresAt) {
			expired = true
			return tx.Tokens().DeleteToken(ctx, tok.ID)
		}

		if err := tx.Tokens().MarkConsumed(ctx, tok.ID, now); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrTokenInvalid
			}
			return fmt.Errorf("mark token consumed: %w", err)
		}
		tok.ConsumedAt = &now

		if tok.UserID != nil {
			if _, err := tx.Tokens().DeleteSiblingTokens(ctx, *tok.UserID, typ, tok.ID); err != nil {
				return fmt.Errorf("delete sibling tokens: %w", err)
			}
		}

		if fn != nil {
			if err := fn(tx, tok); err != nil {
				fnFailed = true
				return err
			}
		}

		consumed = tok
		return nil
	})

	switch {
	case err != nil && fnFailed:
		// Terminal failure after a valid lookup: drop the token so it cannot
		// be retried.
		if derr := s.Store.Tokens().DeleteTokenByHash(ctx, hash); derr != nil {
			log.Warn("failed to delete token after failed consume", slog.Any("error", derr))
		}
		return domain.Token{}, err
	case err != nil:
		return domain.Token{}, err
	case expired:
		log.Debug("expired token removed", slog.String("type", string(typ)))
		return domain.Token{}, ErrTokenInvalid
	}

	log.Debug("token consumed",
		slog.String("token_id", consumed.ID),
		slog.String("type", string(typ)),
	)
	return consumed, nil
}

// Revoke deletes a token unconditionally.
func (s *TokenStore) Revoke(ctx context.Context, id string) error {
	if err := s.Store.Tokens().DeleteToken(ctx, id); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// RevokeByHash deletes the token whose raw value hashes to hash.
func (s *TokenStore) RevokeByHash(ctx context.Context, hash string) error {
	if err := s.Store.Tokens().DeleteTokenByHash(ctx, hash); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// Lookup returns the usable token for raw without consuming it.
func (s *TokenStore) Lookup(ctx context.Context, raw string, typ domain.TokenType) (domain.Token, error) {
	tok, err := s.Store.Tokens().GetTokenByHash(ctx, cryptox.FingerprintToken(raw), typ)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Token{}, ErrTokenInvalid
	}
	if err != nil {
		return domain.Token{}, fmt.Errorf("lookup token: %w", err)
	}
	if !tok.Usable(nowFrom(s.Clock)) {
		return domain.Token{}, ErrTokenInvalid
	}
	return tok, nil
}

// LatestForUser returns the active token of typ for userID.
func (s *TokenStore) LatestForUser(ctx context.Context, userID string, typ domain.TokenType) (domain.Token, error) {
	tok, err := s.Store.Tokens().GetLatestTokenForUser(ctx, userID, typ)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Token{}, ErrTokenInvalid
	}
	if err != nil {
		return domain.Token{}, fmt.Errorf("lookup latest token: %w", err)
	}
	if !tok.Usable(nowFrom(s.Clock)) {
		return domain.Token{}, ErrTokenInvalid
	}
	return tok, nil
}
