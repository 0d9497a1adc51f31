package middleware

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/domain"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/pkg/reqctx"
)

type roleKey struct{}

// WithCaller attaches the verified token's subject and role.
func WithCaller(ctx context.Context, subject string, role domain.Role) context.Context {
	ctx = reqctx.WithCaller(ctx, subject)
	return context.WithValue(ctx, roleKey{}, role)
}

func SubjectFromContext(ctx context.Context) (string, bool) {
	v := reqctx.Caller(ctx)
	return v, v != ""
}

func RoleFromContext(ctx context.Context) (domain.Role, bool) {
	v, ok := ctx.Value(roleKey{}).(domain.Role)
	return v, ok && v != ""
}
