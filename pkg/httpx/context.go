package httpx

import "context"

type ctxKey string

const (
	CtxKeyUserID   ctxKey = "user_id"
	CtxKeyUserRole ctxKey = "user_role"
)

// WithUser stores the authenticated user's id and role on ctx.
func WithUser(ctx context.Context, id, role string) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, id)
	return context.WithValue(ctx, CtxKeyUserRole, role)
}

// UserFromContext returns the user placed by WithUser.
func UserFromContext(ctx context.Context) (id, role string, ok bool) {
	id, _ = ctx.Value(CtxKeyUserID).(string)
	role, _ = ctx.Value(CtxKeyUserRole).(string)
	return id, role, id != ""
}
