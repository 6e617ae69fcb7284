package response

import (
	"github.com/gin-gonic/gin"

	"carpool/internal/domain"
)

type Resp struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data"`
}

// New 构造函数（保证 data 不为 null）
func New(code int, msg string, data interface{}) Resp {
	if data == nil {
		data = struct{}{}
	}
	return Resp{Code: code, Msg: msg, Data: data}
}

// OK 成功响应
func OK(data interface{}) Resp {
	return New(CodeOK, CodeMsgMap[CodeOK], data)
}

// Error 失败响应（可以传自定义 msg 覆盖默认）
func Error(code int, customMsg string) Resp {
	msg := CodeMsgMap[code]
	if customMsg != "" {
		msg = customMsg
	}
	return New(code, msg, struct{}{})
}

// Page 列表统一结构
type Page[T any] struct {
	List   []T   `json:"list"`
	Total  int64 `json:"total"`
	Offset int   `json:"offset"`
	Limit  int   `json:"limit"`
}

// CodeOf 领域错误 -> 业务码
func CodeOf(err error) int {
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		return CodeNotFound
	case domain.KindUnauthenticated:
		return CodeUnauthorized
	case domain.KindBadRequest:
		return CodeBadRequest
	}
	return CodeServerError
}

func JSON(c *gin.Context, code int, body Resp) {
	c.JSON(Status(code), body)
}

func Abort(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(Status(code), Error(code, msg))
}

// Fail 未知错误不把内部信息回给客户端
func Fail(c *gin.Context, err error) {
	code := CodeOf(err)
	msg := err.Error()
	if code == CodeServerError {
		msg = ""
		_ = c.Error(err)
	}
	Abort(c, code, msg)
}
