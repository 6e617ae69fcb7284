package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"carpool/internal/domain"
	"carpool/internal/service"
	"carpool/internal/transport/http/ez"
	resp "carpool/internal/transport/http/response"
)

const maxAvatarBytes = 5 << 20

type UserHandler struct {
	Users *service.UserService
}

func (h *UserHandler) MountAPI(g *gin.RouterGroup) {
	e := ez.New(g)
	e.GET("/users/:id", func(c *gin.Context) (any, error) {
		return h.Users.Get(c.Request.Context(), c.Param("id"), ez.Me(c))
	})
	ez.PUT(e, "/users/:id", func(c *gin.Context, in service.ProfileInput) (any, error) {
		return h.Users.UpdateProfile(c.Request.Context(), c.Param("id"), in, ez.Me(c))
	})
	ez.POST(e, "/users/:id/password", func(c *gin.Context, in service.PasswordInput) (any, error) {
		if err := h.Users.ChangePassword(c.Request.Context(), c.Param("id"), in, ez.Me(c)); err != nil {
			return nil, err
		}
		return gin.H{"id": c.Param("id")}, nil
	})
	e.DELETE("/users/:id", func(c *gin.Context) (any, error) {
		return h.Users.Delete(c.Request.Context(), c.Param("id"), ez.Me(c))
	})
	ez.POSTFILE(e, "/users/:id/avatar", "file", maxAvatarBytes, func(c *gin.Context, data []byte) (any, error) {
		return h.Users.UploadAvatar(c.Request.Context(), c.Param("id"), data, ez.Me(c))
	})
}

type userQuery struct {
	Q      string `form:"q"`
	Status string `form:"status" binding:"omitempty,oneof=ACTIVE BLOCKED DELETED"`
	Role   string `form:"role" binding:"omitempty,oneof=USER ADMIN"`
	Offset int    `form:"offset,default=0"`
	Limit  int    `form:"limit,default=20"`
	Sort   string `form:"sort"`
}

func (q userQuery) filter() domain.UserFilter {
	var f domain.UserFilter
	if s := strings.TrimSpace(q.Q); s != "" {
		f.Query = &s
	}
	if q.Status != "" {
		st := domain.UserStatus(q.Status)
		f.Status = &st
	}
	if q.Role != "" {
		r := domain.Role(q.Role)
		f.Role = &r
	}
	return f
}

type lifecycleOp func(ctx context.Context, userID string, editor *domain.User) (*domain.User, error)

func (h *UserHandler) MountAdmin(g *gin.RouterGroup) {
	e := ez.New(g)

	ez.RegisterAction(e, ez.Action[userQuery, resp.Page[domain.User]]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: ez.BindQuery,
		Roles:  []string{string(domain.RoleAdmin)},
		Handler: func(c *gin.Context, in *userQuery) (resp.Page[domain.User], error) {
			p := domain.Page{Offset: in.Offset, Limit: in.Limit, Sort: in.Sort}.Normalize()
			list, total, err := h.Users.List(c.Request.Context(), in.filter(), p, ez.Me(c))
			if err != nil {
				return resp.Page[domain.User]{}, err
			}
			return resp.Page[domain.User]{List: list, Total: total, Offset: p.Offset, Limit: p.Limit}, nil
		},
	})

	ops := []struct {
		name string
		fn   lifecycleOp
	}{
		{"block", h.Users.Block},
		{"unblock", h.Users.Unblock},
		{"delete", h.Users.Delete},
		{"restore", h.Users.Restore},
		{"upgrade", h.Users.Upgrade},
		{"downgrade", h.Users.Downgrade},
	}
	for _, op := range ops {
		ez.RegisterAction(e, ez.Action[struct{}, *domain.User]{
			Method: http.MethodPost,
			Path:   "/users/:id/" + op.name,
			Binder: ez.BindNone,
			Roles:  []string{string(domain.RoleAdmin)},
			Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
				return op.fn(c.Request.Context(), c.Param("id"), ez.Me(c))
			},
		})
	}
}
