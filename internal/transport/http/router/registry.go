package router

import (
	"sort"
	"sync"

	"github.com/gin-gonic/gin"
)

// 模块可选择实现其中任意几个接口
type (
	// PublicModule 挂在 /api/v1，无需登录
	PublicModule interface{ MountPublic(*gin.RouterGroup) }
	// APIModule 挂在已鉴权的 /api/v1
	APIModule interface{ MountAPI(*gin.RouterGroup) }
	// AdminModule 挂在 /admin/v1（已要求 ADMIN）
	AdminModule interface{ MountAdmin(*gin.RouterGroup) }
	// RootModule 挂在根路径，例如邮件里的验证链接
	RootModule interface{ MountRoot(*gin.RouterGroup) }
)

// 可选：实现该接口可控制挂载顺序（数值越小越先挂）
// 不实现则默认 100
type prioritizer interface{ Priority() int }

type Registry struct {
	mu         sync.RWMutex
	publicMods []PublicModule
	apiMods    []APIModule
	adminMods  []AdminModule
	rootMods   []RootModule
}

func NewRegistry(mods ...any) *Registry {
	r := &Registry{}
	for _, m := range mods {
		r.Register(m)
	}
	return r
}

// Register 统一注册入口：根据类型断言分发
func (r *Registry) Register(mod any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := mod.(PublicModule); ok {
		r.publicMods = append(r.publicMods, m)
	}
	if m, ok := mod.(APIModule); ok {
		r.apiMods = append(r.apiMods, m)
	}
	if m, ok := mod.(AdminModule); ok {
		r.adminMods = append(r.adminMods, m)
	}
	if m, ok := mod.(RootModule); ok {
		r.rootMods = append(r.rootMods, m)
	}
}

func (r *Registry) MountAllPublic(g *gin.RouterGroup) {
	r.mu.RLock()
	mods := append([]PublicModule(nil), r.publicMods...)
	r.mu.RUnlock()
	for _, m := range byPriority(mods) {
		m.MountPublic(g)
	}
}

// MountAllAPI 在已鉴权的 /api/v1 上挂载所有 API 模块
func (r *Registry) MountAllAPI(g *gin.RouterGroup) {
	r.mu.RLock()
	mods := append([]APIModule(nil), r.apiMods...)
	r.mu.RUnlock()
	for _, m := range byPriority(mods) {
		m.MountAPI(g)
	}
}

// MountAllAdmin 在 /admin/v1 上挂载所有 Admin 模块
func (r *Registry) MountAllAdmin(g *gin.RouterGroup) {
	r.mu.RLock()
	mods := append([]AdminModule(nil), r.adminMods...)
	r.mu.RUnlock()
	for _, m := range byPriority(mods) {
		m.MountAdmin(g)
	}
}

func (r *Registry) MountAllRoot(g *gin.RouterGroup) {
	r.mu.RLock()
	mods := append([]RootModule(nil), r.rootMods...)
	r.mu.RUnlock()
	for _, m := range byPriority(mods) {
		m.MountRoot(g)
	}
}

func byPriority[T any](mods []T) []T {
	sort.SliceStable(mods, func(i, j int) bool {
		return priorityOf(mods[i]) < priorityOf(mods[j])
	})
	return mods
}

func priorityOf(v any) int {
	if p, ok := v.(prioritizer); ok {
		return p.Priority()
	}
	return 100
}
