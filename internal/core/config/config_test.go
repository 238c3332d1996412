package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_FileAndDefaults(t *testing.T) {
	p := writeYAML(t, `
app:
  http:
    port: 8088
  cors_origins: ["https://shop.example"]
jwt:
  access_secret: a-secret
  refresh_secret: r-secret
db:
  driver: sqlite
  dsn: "file::memory:"
`)
	c, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, 8088, c.App.HTTP.Port)
	assert.Equal(t, []string{"https://shop.example"}, c.App.CORSOrigins)
	assert.Equal(t, "sqlite", c.DB.Driver)
	assert.Equal(t, 15*time.Minute, c.JWT.AccessTTL())
	assert.Equal(t, 7*24*time.Hour, c.JWT.RefreshTTL())
	assert.Equal(t, "/uploads", c.Upload.PublicPrefix)
	assert.Equal(t, 10, c.Upload.MaxFiles)
	assert.Equal(t, "@every 1h", c.Jobs.TokenPurgeSpec)
}

func TestLoad_EnvOverridesAndMissingFile(t *testing.T) {
	t.Setenv("APP_JWT_ACCESS_SECRET", "env-access")
	t.Setenv("APP_JWT_REFRESH_SECRET", "env-refresh")
	t.Setenv("APP_DB_DSN", "postgres://u:p@localhost/market")
	t.Setenv("APP_DB_LOCK_TIMEOUT_MS", "1500")

	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "env-access", c.JWT.AccessSecret)
	assert.Equal(t, "postgres", c.DB.Driver)
	assert.Equal(t, "postgres://u:p@localhost/market", c.DB.DSN)
	assert.Equal(t, 1500, c.DB.LockTimeoutMs)
}

func TestLoad_RejectsSharedSecrets(t *testing.T) {
	p := writeYAML(t, `
jwt:
  access_secret: same
  refresh_secret: same
db:
  dsn: x
`)
	_, err := Load(p)
	assert.Error(t, err)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	p := writeYAML(t, `
jwt:
  access_secret: a
  refresh_secret: b
db:
  driver: oracle
  dsn: x
`)
	_, err := Load(p)
	assert.ErrorContains(t, err, "oracle")
}
