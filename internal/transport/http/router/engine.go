package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"carpool/internal/core/auth"
	"carpool/internal/core/server"
	mdw "carpool/internal/transport/http/middleware"
	"carpool/internal/transport/http/validation"
)

// Deps 两个引擎共用的依赖
type Deps struct {
	Log      *zap.Logger
	JWT      *auth.JWTer
	Users    mdw.Authenticator
	Registry *Registry
	Mode     string // gin 模式，测试传 gin.TestMode
}

// Limits 入口限流与超时
type Limits struct {
	GlobalRPS   rate.Limit
	RPS         rate.Limit // 每 IP
	Burst       int
	MaxInFlight int64
	QueueWait   time.Duration // 并发满时最多排队多久，<=0 取 2s
	MaxBody     int64
	Timeout     time.Duration
}

var defaultLimits = Limits{GlobalRPS: 500, RPS: 20, Burst: 40, MaxInFlight: 300, MaxBody: 16 << 20, Timeout: 10 * time.Second}

func newEngine(name string, d Deps, lim Limits) *gin.Engine {
	validation.Setup()
	if lim.QueueWait <= 0 {
		lim.QueueWait = 2 * time.Second
	}
	r := server.NewRouter(d.Log, server.Options{Name: name, Mode: d.Mode})

	// 中间件
	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(lim.GlobalRPS, int(lim.GlobalRPS)*2),
		mdw.RateLimitPerIP(lim.RPS, lim.Burst, 10*time.Minute),
		mdw.ConcurrencyLimit(lim.MaxInFlight, lim.QueueWait),
		mdw.MaxBodyBytes(lim.MaxBody),
		mdw.Timeout(lim.Timeout),
		mdw.Recovery(d.Log),
		mdw.Metrics(),
		mdw.AccessLog(d.Log),
	)

	// 健康检查 + 指标
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

func (d Deps) authenticate() gin.HandlerFunc { return mdw.Authenticate(d.JWT, d.Users, d.Log) }
