package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"carpool/internal/core/auth"
	"carpool/internal/domain"
	resp "carpool/internal/transport/http/response"
)

// Authenticator 由用户服务实现
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	Principal(ctx context.Context, id string) (*domain.User, error)
}

// Authenticate 支持两种 Authorization 头：
//
//	Bearer <jwt>
//	<username> <password>
//
// 成功后用户写入 request context，并同步 userId/role 给 CRUD 使用。
func Authenticate(j *auth.JWTer, users Authenticator, l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := resolve(c, j, users)
		if err != nil {
			if domain.KindOf(err) == domain.KindUnknown {
				l.Error("authenticate", zap.String("rid", c.GetString(KeyRequestID)), zap.Error(err))
				resp.Abort(c, resp.CodeServerError, "")
				return
			}
			resp.Abort(c, resp.CodeUnauthorized, domain.ErrAuthenticationFailure.Error())
			return
		}
		c.Request = c.Request.WithContext(auth.WithUser(c.Request.Context(), u))
		c.Set("userId", u.ID)
		c.Set("role", string(u.Role))
		c.Next()
	}
}

func resolve(c *gin.Context, j *auth.JWTer, users Authenticator) (*domain.User, error) {
	ah := strings.TrimSpace(c.GetHeader("Authorization"))
	if ah == "" {
		return nil, domain.ErrAuthenticationFailure
	}
	if tok, ok := strings.CutPrefix(ah, "Bearer "); ok {
		claims, err := j.Parse(strings.TrimSpace(tok))
		if err != nil {
			return nil, err
		}
		return users.Principal(c.Request.Context(), claims.UserID())
	}
	parts := strings.Fields(ah)
	if len(parts) != 2 {
		return nil, domain.ErrAuthenticationFailure
	}
	return users.Authenticate(c.Request.Context(), parts[0], parts[1])
}

// RequireRole 需放在 Authenticate 之后
func RequireRole(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := auth.UserFrom(c.Request.Context())
		if !ok {
			resp.Abort(c, resp.CodeUnauthorized, domain.ErrAuthenticationFailure.Error())
			return
		}
		if u.Role != role {
			resp.Abort(c, resp.CodeUnauthorized, domain.ErrAuthorization.Error())
			return
		}
		c.Next()
	}
}
