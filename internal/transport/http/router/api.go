package router

import (
	"github.com/gin-gonic/gin"
)

// NewAPIEngine 用户端：/api/v1 公共 + 鉴权分组，根路径放验证链接
func NewAPIEngine(d Deps) *gin.Engine {
	return NewAPIEngineWithLimits(d, defaultLimits)
}

func NewAPIEngineWithLimits(d Deps, lim Limits) *gin.Engine {
	r := newEngine("api", d, lim)

	d.Registry.MountAllRoot(&r.RouterGroup)

	api := r.Group("/api/v1")
	d.Registry.MountAllPublic(api)

	// 鉴权分组（/me 等必须挂这里，才能拿到当前用户）
	authed := api.Group("")
	authed.Use(d.authenticate())
	d.Registry.MountAllAPI(authed)

	return r
}
