package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store/drivers/sqlite/gen"
)

type passkeysRepo struct {
	q *gen.Queries
}

func (r *passkeysRepo) ListPasskeysForUser(ctx context.Context, userID string) ([]domain.Passkey, error) {
	rows, err := r.q.ListPasskeysForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Passkey, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapPasskey(row))
	}
	return out, nil
}

func (r *passkeysRepo) GetPasskeyByCredentialID(ctx context.Context, credentialID string) (domain.Passkey, error) {
	row, err := r.q.GetPasskeyByCredentialID(ctx, credentialID)
	if err != nil {
		return domain.Passkey{}, mapNotFound(err)
	}
	return mapPasskey(row), nil
}

func (r *passkeysRepo) CreatePasskey(ctx context.Context, p domain.Passkey) error {
	err := r.q.CreatePasskey(ctx, gen.CreatePasskeyParams{
		ID:               p.ID,
		UserID:           p.UserID,
		CredentialID:     p.CredentialID,
		PublicKey:        p.PublicKey,
		Label:            mapOptionalString(p.Label),
		Transports:       encodeTransports(p.Transports),
		SignCount:        int64(p.SignCount),
		Aaguid:           mapOptionalString(p.AAGUID),
		AttestationType:  p.AttestationType,
		IsBackupEligible: p.IsBackupEligible,
		IsBackupState:    p.IsBackupState,
		IsUserVerified:   p.IsUserVerified,
		CreatedAt:        p.CreatedAt.UTC(),
		UpdatedAt:        p.UpdatedAt.UTC(),
	})
	return mapConstraint(err)
}

func (r *passkeysRepo) UpdatePasskeyUsage(ctx context.Context, u store.PasskeyUsage) error {
	return requireRows(r.q.UpdatePasskeyUsage(ctx, gen.UpdatePasskeyUsageParams{
		SignCount:        int64(u.SignCount),
		IsBackupEligible: u.IsBackupEligible,
		IsBackupState:    u.IsBackupState,
		IsUserVerified:   u.IsUserVerified,
		LastUsedAt:       mapTime(u.UsedAt),
		UpdatedAt:        u.UsedAt.UTC(),
		ID:               u.ID,
	}))
}

func (r *passkeysRepo) UpdatePasskeyLabel(
	ctx context.Context,
	userID, id string,
	label *string,
	at time.Time,
) error {
	return requireRows(r.q.UpdatePasskeyLabel(ctx, gen.UpdatePasskeyLabelParams{
		Label:     mapOptionalString(label),
		UpdatedAt: at.UTC(),
		ID:        id,
		UserID:    userID,
	}))
}

func (r *passkeysRepo) DeletePasskey(ctx context.Context, userID, id string) error {
	return requireRows(r.q.DeletePasskey(ctx, gen.DeletePasskeyParams{
		ID:     id,
		UserID: userID,
	}))
}

func (r *passkeysRepo) DeletePasskeyByCredentialID(ctx context.Context, credentialID string) error {
	_, err := r.q.DeletePasskeyByCredentialID(ctx, credentialID)
	return err
}
