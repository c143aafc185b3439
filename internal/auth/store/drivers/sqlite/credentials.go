package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store/drivers/sqlite/gen"
)

type credentialsRepo struct {
	q *gen.Queries
}

func (r *credentialsRepo) GetCredentialByUserID(ctx context.Context, userID string) (domain.Credential, error) {
	row, err := r.q.GetCredentialByUserID(ctx, userID)
	if err != nil {
		return domain.Credential{}, mapNotFound(err)
	}
	return mapCredential(row), nil
}

func (r *credentialsRepo) CreateCredential(ctx context.Context, c domain.Credential) error {
	err := r.q.CreateCredential(ctx, gen.CreateCredentialParams{
		ID:                 c.ID,
		UserID:             c.UserID,
		PasswordHash:       c.PasswordHash,
		PasswordSalt:       c.PasswordSalt,
		ExpiresAt:          mapOptionalTime(c.ExpiresAt),
		MustChangePassword: c.MustChangePassword,
		LastChangedAt:      c.LastChangedAt.UTC(),
		CreatedAt:          c.CreatedAt.UTC(),
		UpdatedAt:          c.UpdatedAt.UTC(),
	})
	return mapConstraint(err)
}

func (r *credentialsRepo) UpdatePassword(ctx context.Context, userID, hash, salt string, at time.Time) error {
	return requireRows(r.q.UpdateCredentialPassword(ctx, gen.UpdateCredentialPasswordParams{
		PasswordHash:  hash,
		PasswordSalt:  salt,
		LastChangedAt: at.UTC(),
		UpdatedAt:     at.UTC(),
		UserID:        userID,
	}))
}

func (r *credentialsRepo) UpsertCredential(ctx context.Context, c domain.Credential) error {
	return r.q.UpsertCredential(ctx, gen.UpsertCredentialParams{
		ID:            c.ID,
		UserID:        c.UserID,
		PasswordHash:  c.PasswordHash,
		PasswordSalt:  c.PasswordSalt,
		LastChangedAt: c.LastChangedAt.UTC(),
		CreatedAt:     c.CreatedAt.UTC(),
		UpdatedAt:     c.UpdatedAt.UTC(),
	})
}
