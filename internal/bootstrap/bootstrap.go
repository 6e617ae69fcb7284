// Package bootstrap 按配置组装数据库、外部客户端、服务和路由注册器，两个进程共用。
package bootstrap

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"carpool/internal/core/auth"
	"carpool/internal/core/cache"
	"carpool/internal/core/config"
	"carpool/internal/core/database"
	"carpool/internal/core/events"
	"carpool/internal/core/geo"
	"carpool/internal/core/imagehost"
	"carpool/internal/core/logger"
	"carpool/internal/core/mailer"
	"carpool/internal/repo"
	"carpool/internal/service"
	"carpool/internal/transport/http/handler"
	"carpool/internal/transport/http/router"
)

type App struct {
	DB       *gorm.DB
	Store    *repo.Store
	JWT      *auth.JWTer
	Users    *service.UserService
	Verify   *service.VerificationService
	Registry *router.Registry

	closers []func() error
}

// Logger 按配置决定是否写文件并切割
func Logger(cfg *config.Config) (*zap.Logger, func()) {
	if cfg.Log.File.Enable {
		return logger.NewWithRotate(cfg.Log.Level, cfg.Log.JSON, logger.FileRotate{
			Filename:   cfg.Log.File.Filename,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		})
	}
	return logger.New(cfg.Log.Level, cfg.Log.JSON)
}

// GinMode 本地环境用 debug，其余 release
func GinMode(cfg *config.Config) string {
	if cfg.App.Env == "local" {
		return gin.DebugMode
	}
	return gin.ReleaseMode
}

// Build 外部依赖缺配置时降级：不算距离、邮件只打日志、事件丢弃、不能传头像
func Build(cfg *config.Config, l *zap.Logger) (*App, error) {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		SlowThresholdMs:    cfg.DB.SlowThresholdMs,
		Logger:             l,
	})
	if err != nil {
		return nil, err
	}
	l.Info("database connected", zap.String("driver", cfg.DB.Driver))

	a := &App{DB: db, Store: repo.NewStore(db)}
	if sqlDB, err := db.DB(); err == nil {
		a.closers = append(a.closers, sqlDB.Close)
	}
	if cfg.DB.AutoMigrate {
		if err := a.Store.Migrate(); err != nil {
			a.Close()
			return nil, err
		}
		l.Info("automigrate done")
	}

	scheme, err := auth.NewPasswordScheme(cfg.Auth.PasswordScheme)
	if err != nil {
		a.Close()
		return nil, err
	}
	if scheme.Name() == "plain" {
		l.Warn("passwords are stored as plain text, set auth.passwordScheme to bcrypt or argon2")
	}
	a.JWT = &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
	}

	pub := a.publisher(cfg, l)
	a.Verify = service.NewVerificationService(a.Store, sender(cfg, l), cfg.App.BaseURL,
		time.Duration(cfg.Verification.TokenTTLMin)*time.Minute, l)
	a.Users = service.NewUserService(service.UserDeps{
		Store:  a.Store,
		Scheme: scheme,
		Tokens: a.JWT,
		Verify: a.Verify,
		Images: images(cfg, l),
		Events: pub,
		Log:    l,
	})

	a.Registry = router.NewRegistry(
		&handler.AuthHandler{Users: a.Users, Verify: a.Verify},
		&handler.UserHandler{Users: a.Users},
		&handler.VehicleHandler{DB: db},
		&handler.TravelHandler{Travels: service.NewTravelService(a.Store, a.routes(cfg, l), pub, l)},
		&handler.RequestHandler{Requests: service.NewRequestService(a.Store, pub, l)},
		&handler.FeedbackHandler{Feedbacks: service.NewFeedbackService(a.Store, pub, l)},
	)
	return a, nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

func (a *App) publisher(cfg *config.Config, l *zap.Logger) events.Publisher {
	if cfg.MQ.URL == "" {
		return events.Noop{}
	}
	p, err := events.DialRabbit(cfg.MQ.URL, cfg.MQ.Exchange, l)
	if err != nil {
		l.Warn("rabbitmq disabled", zap.Error(err))
		return events.Noop{}
	}
	a.closers = append(a.closers, p.Close)
	return p
}

// routes 返回 nil 接口表示不做地理编码
func (a *App) routes(cfg *config.Config, l *zap.Logger) service.RoutePlanner {
	if cfg.Geo.Key == "" {
		return nil
	}
	var c *cache.Cache
	if cfg.Redis.Addr != "" {
		c = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := c.Ping(ctx); err != nil {
			l.Warn("redis unreachable, geo cache disabled", zap.Error(err))
			_ = c.Close()
			c = nil
		} else {
			a.closers = append(a.closers, c.Close)
		}
	}
	return geo.NewClient(cfg.Geo.BaseURL, cfg.Geo.Key,
		time.Duration(cfg.Geo.TimeoutSec)*time.Second, c,
		time.Duration(cfg.Geo.CacheTTLMin)*time.Minute, l)
}

func sender(cfg *config.Config, l *zap.Logger) mailer.Sender {
	if cfg.Mail.Host == "" {
		return mailer.LogSender{L: l}
	}
	m, err := mailer.New(mailer.Config{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
	})
	if err != nil {
		l.Warn("smtp disabled", zap.Error(err))
		return mailer.LogSender{L: l}
	}
	return m
}

func images(cfg *config.Config, l *zap.Logger) service.ImageHost {
	if cfg.Images.CloudName == "" {
		return imagehost.Disabled{}
	}
	c, err := imagehost.NewCloudinary(cfg.Images.CloudName, cfg.Images.APIKey, cfg.Images.APISecret, cfg.Images.Folder)
	if err != nil {
		l.Warn("cloudinary disabled", zap.Error(err))
		return imagehost.Disabled{}
	}
	return c
}
