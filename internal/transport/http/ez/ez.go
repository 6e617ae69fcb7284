// Package ez 轻封装 gin：一行注册 JSON 接口、动作接口和通用 CRUD。
package ez

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"carpool/internal/core/auth"
	"carpool/internal/domain"
	resp "carpool/internal/transport/http/response"
	"carpool/internal/transport/http/validation"
)

type EZ struct{ g *gin.RouterGroup }

func New(g *gin.RouterGroup) EZ { return EZ{g: g} }

func (e EZ) GET(path string, h func(c *gin.Context) (any, error)) {
	e.g.GET(path, func(c *gin.Context) { reply(c)(h(c)) })
}

func (e EZ) DELETE(path string, h func(c *gin.Context) (any, error)) {
	e.g.DELETE(path, func(c *gin.Context) { reply(c)(h(c)) })
}

// POSTNoBody 动作类接口，不读取请求体
func (e EZ) POSTNoBody(path string, h func(c *gin.Context) (any, error)) {
	e.g.POST(path, func(c *gin.Context) { reply(c)(h(c)) })
}

func POST[T any](e EZ, path string, h func(c *gin.Context, in T) (any, error)) {
	e.g.POST(path, bodyHandler(h))
}

func PUT[T any](e EZ, path string, h func(c *gin.Context, in T) (any, error)) {
	e.g.PUT(path, bodyHandler(h))
}

func bodyHandler[T any](h func(c *gin.Context, in T) (any, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in T
		if err := c.ShouldBindJSON(&in); err != nil {
			badBody(c, err)
			return
		}
		reply(c)(h(c, in))
	}
}

// POSTFILE 处理 multipart/form-data 单文件上传
func POSTFILE(e EZ, path, field string, maxBytes int64, h func(c *gin.Context, data []byte) (any, error)) {
	e.g.POST(path, func(c *gin.Context) {
		fh, err := c.FormFile(field)
		if err != nil {
			resp.Abort(c, resp.CodeBadRequest, "missing file field "+field)
			return
		}
		if fh.Size > maxBytes {
			resp.Abort(c, resp.CodeBadRequest, "file too large")
			return
		}
		f, err := fh.Open()
		if err != nil {
			resp.Abort(c, resp.CodeBadRequest, "invalid upload: "+err.Error())
			return
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, maxBytes))
		if err != nil {
			resp.Abort(c, resp.CodeBadRequest, "invalid upload: "+err.Error())
			return
		}
		reply(c)(h(c, data))
	})
}

func badBody(c *gin.Context, err error) {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		resp.Abort(c, resp.CodeBadRequest, "request body too large")
		return
	}
	resp.Abort(c, resp.CodeBadRequest, validation.Message(err))
}

func reply(c *gin.Context) func(any, error) {
	return func(data any, err error) {
		if err != nil {
			Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, resp.OK(data))
	}
}

// Fail 统一错误出口：AErr 用自带码，领域错误按类别映射
func Fail(c *gin.Context, err error) {
	var ae *AErr
	if errors.As(err, &ae) {
		if ae.Err != nil {
			_ = c.Error(ae.Err)
		}
		resp.Abort(c, ae.Code, ae.Error())
		return
	}
	resp.Fail(c, err)
}

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param / c.PostForm 取
)

// 统一错误对象
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error   { return &AErr{Code: resp.CodeBadRequest, Msg: msg} }
func Unauthorized(msg string) error { return &AErr{Code: resp.CodeUnauthorized, Msg: msg} }
func NotFound(msg string) error     { return &AErr{Code: resp.CodeNotFound, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Code: resp.CodeServerError, Msg: msg, Err: err}
}

// Action 非 CRUD 接口：I 入参，O 出参
type Action[I any, O any] struct {
	Method  string   // "GET" | "POST" | "PUT" | "DELETE"
	Path    string   // 例："/auth/login"、"/requests/:id/approve"
	Binder  Binder   // 绑定方式
	Auth    bool     // 是否要求登录
	Roles   []string // 限定角色（可选）
	Handler func(c *gin.Context, in *I) (O, error)
}

func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		// 1) 鉴权/角色
		if a.Auth || len(a.Roles) > 0 {
			u, ok := auth.UserFrom(c.Request.Context())
			if !ok {
				resp.Abort(c, resp.CodeUnauthorized, domain.ErrAuthenticationFailure.Error())
				return
			}
			if len(a.Roles) > 0 && !hasRole(u, a.Roles) {
				resp.Abort(c, resp.CodeUnauthorized, domain.ErrAuthorization.Error())
				return
			}
		}

		// 2) 绑定入参
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		}
		if bindErr != nil {
			badBody(c, bindErr)
			return
		}

		// 3) 执行 + 统一错误映射
		out, err := a.Handler(c, &in)
		if err != nil {
			Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, resp.OK(out))
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default: // 默认 POST
		e.g.POST(a.Path, h)
	}
}

func hasRole(u *domain.User, roles []string) bool {
	for _, r := range roles {
		if strings.EqualFold(string(u.Role), r) {
			return true
		}
	}
	return false
}

// Me 当前登录用户；未登录返回 nil
func Me(c *gin.Context) *domain.User {
	u, _ := auth.UserFrom(c.Request.Context())
	return u
}
