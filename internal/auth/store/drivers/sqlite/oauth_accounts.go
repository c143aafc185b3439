package sqlite

import (
	"context"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store/drivers/sqlite/gen"
)

type oauthAccountsRepo struct {
	q *gen.Queries
}

func (r *oauthAccountsRepo) GetOAuthAccount(
	ctx context.Context,
	provider domain.OAuthProvider,
	providerAccountID string,
) (domain.OAuthAccount, error) {
	row, err := r.q.GetOAuthAccount(ctx, gen.GetOAuthAccountParams{
		Provider:          string(provider),
		ProviderAccountID: providerAccountID,
	})
	if err != nil {
		return domain.OAuthAccount{}, mapNotFound(err)
	}
	return mapOAuthAccount(row), nil
}

func (r *oauthAccountsRepo) GetOAuthAccountForUser(
	ctx context.Context,
	userID string,
	provider domain.OAuthProvider,
) (domain.OAuthAccount, error) {
	row, err := r.q.GetOAuthAccountForUser(ctx, gen.GetOAuthAccountForUserParams{
		UserID:   userID,
		Provider: string(provider),
	})
	if err != nil {
		return domain.OAuthAccount{}, mapNotFound(err)
	}
	return mapOAuthAccount(row), nil
}

func (r *oauthAccountsRepo) ListOAuthAccountsForUser(ctx context.Context, userID string) ([]domain.OAuthAccount, error) {
	rows, err := r.q.ListOAuthAccountsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.OAuthAccount, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapOAuthAccount(row))
	}
	return out, nil
}

func (r *oauthAccountsRepo) CreateOAuthAccount(ctx context.Context, a domain.OAuthAccount) (bool, error) {
	n, err := r.q.CreateOAuthAccount(ctx, gen.CreateOAuthAccountParams{
		ProviderAccountID: a.ProviderAccountID,
		Provider:          string(a.Provider),
		UserID:            a.UserID,
		DisplayName:       mapOptionalString(a.DisplayName),
		ProfileUrl:        mapOptionalString(a.ProfileURL),
		AccessToken:       mapOptionalString(a.AccessToken),
		RefreshToken:      mapOptionalString(a.RefreshToken),
		Scopes:            mapOptionalString(a.Scopes),
		ExpiresAt:         mapOptionalTime(a.ExpiresAt),
		CreatedAt:         a.CreatedAt.UTC(),
		UpdatedAt:         a.UpdatedAt.UTC(),
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *oauthAccountsRepo) DeleteOAuthAccount(
	ctx context.Context,
	userID string,
	provider domain.OAuthProvider,
) error {
	return requireRows(r.q.DeleteOAuthAccount(ctx, gen.DeleteOAuthAccountParams{
		UserID:   userID,
		Provider: string(provider),
	}))
}
