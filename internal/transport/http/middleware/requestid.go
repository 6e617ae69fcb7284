package middleware

import (
	"context"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const KeyRequestID = "X-Request-ID"

type ridKey struct{}

// 客户端传入的 id 只接受短的安全字符，否则重新生成
var ridPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// RequestID 同时写入 gin 上下文和 request context，服务层日志可通过 RequestIDFrom 取到
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.Request.Header.Get(KeyRequestID)
		if !ridPattern.MatchString(rid) {
			rid = uuid.NewString()
		}
		c.Writer.Header().Set(KeyRequestID, rid)
		c.Set(KeyRequestID, rid)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), ridKey{}, rid))
		c.Next()
	}
}

func RequestIDFrom(ctx context.Context) string {
	rid, _ := ctx.Value(ridKey{}).(string)
	return rid
}
