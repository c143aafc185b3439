package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store/drivers/sqlite/gen"
)

type usersRepo struct {
	q *gen.Queries
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row, err := r.q.GetUserByID(ctx, id)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row, err := r.q.GetUserByEmail(ctx, email)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	err := r.q.CreateUser(ctx, gen.CreateUserParams{
		ID:              u.ID,
		Email:           u.Email,
		Name:            u.Name,
		Role:            string(u.Role),
		EmailVerifiedAt: mapOptionalTime(u.EmailVerifiedAt),
		CreatedAt:       u.CreatedAt.UTC(),
		UpdatedAt:       u.UpdatedAt.UTC(),
	})
	return mapConstraint(err)
}

func (r *usersRepo) UpdateName(ctx context.Context, userID, name string, at time.Time) error {
	return requireRows(r.q.UpdateUserName(ctx, gen.UpdateUserNameParams{
		Name:      name,
		UpdatedAt: at.UTC(),
		ID:        userID,
	}))
}

func (r *usersRepo) UpdateEmail(ctx context.Context, userID, email string, verifiedAt time.Time) error {
	n, err := r.q.UpdateUserEmail(ctx, gen.UpdateUserEmailParams{
		Email:           email,
		EmailVerifiedAt: mapTime(verifiedAt),
		UpdatedAt:       verifiedAt.UTC(),
		ID:              userID,
	})
	return requireRows(n, mapConstraint(err))
}

func (r *usersRepo) MarkEmailVerified(ctx context.Context, userID string, at time.Time) error {
	return requireRows(r.q.MarkUserEmailVerified(ctx, gen.MarkUserEmailVerifiedParams{
		EmailVerifiedAt: mapTime(at),
		UpdatedAt:       at.UTC(),
		ID:              userID,
	}))
}

func (r *usersRepo) TouchLastSignIn(ctx context.Context, userID string, at time.Time) error {
	return requireRows(r.q.TouchUserLastSignIn(ctx, gen.TouchUserLastSignInParams{
		LastSignInAt: mapTime(at),
		ID:           userID,
	}))
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID string) error {
	return requireRows(r.q.DeleteUser(ctx, userID))
}
