package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carpool/internal/service"
	"carpool/internal/transport/http/ez"
)

// AuthHandler 注册、登录、当前用户、邮箱验证
type AuthHandler struct {
	Users  *service.UserService
	Verify *service.VerificationService
}

func (h *AuthHandler) Priority() int { return 10 }

type loginIn struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) MountPublic(g *gin.RouterGroup) {
	e := ez.New(g)
	ez.POST(e, "/auth/register", func(c *gin.Context, in service.RegisterInput) (any, error) {
		return h.Users.Register(c.Request.Context(), in)
	})
	ez.POST(e, "/auth/login", func(c *gin.Context, in loginIn) (any, error) {
		return h.Users.Login(c.Request.Context(), in.Username, in.Password)
	})
}

func (h *AuthHandler) MountAPI(g *gin.RouterGroup) {
	e := ez.New(g)
	e.GET("/me", func(c *gin.Context) (any, error) { return ez.Me(c), nil })

	ez.RegisterAction(e, ez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/verification/resend",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			if err := h.Verify.Resend(c.Request.Context(), ez.Me(c)); err != nil {
				return nil, err
			}
			return gin.H{"sent": true}, nil
		},
	})
}

type validateQ struct {
	Token string `form:"token" binding:"required"`
}

// MountRoot 邮件中的验证链接不带 /api/v1 前缀
func (h *AuthHandler) MountRoot(g *gin.RouterGroup) {
	ez.RegisterAction(ez.New(g), ez.Action[validateQ, gin.H]{
		Method: http.MethodGet,
		Path:   "/verification/validate",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *validateQ) (gin.H, error) {
			u, err := h.Verify.Validate(c.Request.Context(), in.Token)
			if err != nil {
				return nil, err
			}
			return gin.H{"id": u.ID, "username": u.Username, "validated": u.Validated}, nil
		},
	})
}
