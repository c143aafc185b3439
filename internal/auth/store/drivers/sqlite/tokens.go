package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store/drivers/sqlite/gen"
)

type tokensRepo struct {
	q *gen.Queries
}

func (r *tokensRepo) CreateToken(ctx context.Context, t domain.Token) error {
	meta, err := encodeMetadata(t.Metadata)
	if err != nil {
		return fmt.Errorf("encode token metadata: %w", err)
	}

	err = r.q.CreateToken(ctx, gen.CreateTokenParams{
		ID:        t.ID,
		UserID:    mapOptionalString(t.UserID),
		TokenHash: t.TokenHash,
		Type:      string(t.Type),
		ExpiresAt: t.ExpiresAt.UTC(),
		Metadata:  meta,
		CreatedAt: t.CreatedAt.UTC(),
	})
	return mapConstraint(err)
}

func (r *tokensRepo) GetTokenByHash(ctx context.Context, hash string, typ domain.TokenType) (domain.Token, error) {
	row, err := r.q.GetTokenByHash(ctx, gen.GetTokenByHashParams{
		TokenHash: hash,
		Type:      string(typ),
	})
	if err != nil {
		return domain.Token{}, mapNotFound(err)
	}
	return mapToken(row)
}

func (r *tokensRepo) GetLatestTokenForUser(
	ctx context.Context,
	userID string,
	typ domain.TokenType,
) (domain.Token, error) {
	row, err := r.q.GetLatestTokenForUser(ctx, gen.GetLatestTokenForUserParams{
		UserID: mapStringNull(userID),
		Type:   string(typ),
	})
	if err != nil {
		return domain.Token{}, mapNotFound(err)
	}
	return mapToken(row)
}

func (r *tokensRepo) MarkConsumed(ctx context.Context, id string, at time.Time) error {
	return requireRows(r.q.MarkTokenConsumed(ctx, gen.MarkTokenConsumedParams{
		ConsumedAt: mapTime(at),
		ID:         id,
	}))
}

func (r *tokensRepo) DeleteToken(ctx context.Context, id string) error {
	_, err := r.q.DeleteToken(ctx, id)
	return err
}

func (r *tokensRepo) DeleteTokenByHash(ctx context.Context, hash string) error {
	_, err := r.q.DeleteTokenByHash(ctx, hash)
	return err
}

func (r *tokensRepo) DeleteUserTokens(ctx context.Context, userID string, typ domain.TokenType) (int64, error) {
	return r.q.DeleteUserTokensByType(ctx, gen.DeleteUserTokensByTypeParams{
		UserID: mapStringNull(userID),
		Type:   string(typ),
	})
}

func (r *tokensRepo) DeleteSiblingTokens(
	ctx context.Context,
	userID string,
	typ domain.TokenType,
	keepID string,
) (int64, error) {
	return r.q.DeleteSiblingTokens(ctx, gen.DeleteSiblingTokensParams{
		UserID: mapStringNull(userID),
		Type:   string(typ),
		ID:     keepID,
	})
}

func (r *tokensRepo) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	return r.q.DeleteExpiredTokens(ctx, now.UTC())
}

func (r *tokensRepo) DeleteConsumedTokens(ctx context.Context, before time.Time) (int64, error) {
	return r.q.DeleteConsumedTokens(ctx, mapTime(before))
}
