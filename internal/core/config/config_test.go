package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
app:
  name: carpool-test
  baseURL: https://carpool.example
  http:
    port: 9090
jwt:
  secret: abc
db:
  driver: postgres
  dsn: postgres://u:p@db/carpool
redis:
  addr: 127.0.0.1:6379
mail:
  host: smtp.example
  port: 587
`

func writeConfig(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(sample), 0o600))
	return p
}

func TestLoadFromFileWithDefaults(t *testing.T) {
	c, err := LoadFrom(writeConfig(t))
	require.NoError(t, err)

	assert.Equal(t, "carpool-test", c.App.Name)
	assert.Equal(t, "https://carpool.example", c.App.BaseURL)
	assert.Equal(t, 9090, c.App.HTTP.Port)
	assert.Equal(t, "postgres", c.DB.Driver)
	assert.Equal(t, "127.0.0.1:6379", c.Redis.Addr)
	assert.Equal(t, 587, c.Mail.Port)

	// 默认值
	assert.Equal(t, "plain", c.Auth.PasswordScheme)
	assert.Equal(t, 60, c.Verification.TokenTTLMin)
	assert.Equal(t, 8081, c.App.Admin.Port)
	assert.Equal(t, "carpool_topic", c.MQ.Exchange)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("APP_JWT_SECRET", "from-env")
	c, err := LoadFrom(writeConfig(t))
	require.NoError(t, err)
	assert.Equal(t, "from-env", c.JWT.Secret)
}

func TestLoadFromMissingFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
