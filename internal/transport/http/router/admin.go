package router

import (
	"github.com/gin-gonic/gin"

	"carpool/internal/domain"
	mdw "carpool/internal/transport/http/middleware"
)

// NewAdminEngine 管理端：/admin/v1 统一要求 ADMIN 角色
func NewAdminEngine(d Deps) *gin.Engine {
	r := newEngine("admin", d, defaultLimits)

	admin := r.Group("/admin/v1")
	admin.Use(d.authenticate(), mdw.RequireRole(domain.RoleAdmin))
	d.Registry.MountAllAdmin(admin)

	return r
}
