package auth

import (
	"context"

	"carpool/internal/domain"
)

type userKey struct{}

// WithUser 把已认证用户放进请求 context
func WithUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFrom 未认证时返回 (nil, false)
func UserFrom(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(userKey{}).(*domain.User)
	return u, ok && u != nil
}
