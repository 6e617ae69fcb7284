package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}
type AdminHTTP struct {
	Host string
	Port int
}

type App struct {
	Name    string
	Env     string
	BaseURL string // 邮件里验证链接的前缀
	HTTP    HTTP
	Admin   AdminHTTP
}

type LogFile struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Log struct {
	Level string
	JSON  bool
	File  LogFile
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
}

type Auth struct {
	PasswordScheme string // plain / bcrypt / argon2
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
	SlowThresholdMs    int
}

type Mail struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type Geo struct {
	BaseURL     string
	Key         string
	TimeoutSec  int
	CacheTTLMin int
}

type Images struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

type MQ struct {
	URL      string
	Exchange string
}

type Verification struct {
	TokenTTLMin      int
	SweepIntervalMin int
}

type Config struct {
	App          App
	Log          Log
	JWT          JWT
	Auth         Auth
	DB           DB
	Redis        Redis `mapstructure:"redis"`
	Mail         Mail
	Geo          Geo
	Images       Images
	MQ           MQ
	Verification Verification
}

func Load(path string) *Config {
	c, err := LoadFrom(path)
	if err != nil {
		log.Fatalf("%v", err)
	}
	return c
}

func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "carpool")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.baseurl", "http://127.0.0.1:8080")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.readtimeoutsec", 5)
	v.SetDefault("app.http.writetimeoutsec", 10)
	v.SetDefault("app.http.idletimeoutsec", 60)
	v.SetDefault("app.admin.host", "0.0.0.0")
	v.SetDefault("app.admin.port", 8081)
	v.SetDefault("log.level", "info")
	v.SetDefault("jwt.issuer", "carpool")
	v.SetDefault("jwt.accesstokenttlmin", 120)
	v.SetDefault("auth.passwordscheme", "plain")
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "file:carpool.db")
	v.SetDefault("db.automigrate", true)
	v.SetDefault("db.loglevel", "warn")
	v.SetDefault("geo.baseurl", "https://dev.virtualearth.net/REST/v1")
	v.SetDefault("geo.timeoutsec", 5)
	v.SetDefault("geo.cachettlmin", 1440)
	v.SetDefault("images.folder", "carpool/avatars")
	v.SetDefault("mq.exchange", "carpool_topic")
	v.SetDefault("verification.tokenttlmin", 60)
	v.SetDefault("verification.sweepintervalmin", 60)
}
