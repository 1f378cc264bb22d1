package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_ACCESS_TTL", "soon")

	cfg := Load()

	assert.Equal(t, 60*time.Minute, cfg.JWT.ExpiryPeriod, "unparseable duration falls back to default")
	assert.Equal(t, 24*time.Hour, cfg.JWT.RefreshPeriod)
	assert.Equal(t, "t1", cfg.Permify.Tenant)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_SQLITE_PATH", "/tmp/x.db")
	t.Setenv("JWT_ACCESS_TTL", "15m")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("METRICS_ENABLED", "false")

	cfg := Load()

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/x.db", cfg.Database.SQLitePath)
	assert.Equal(t, 15*time.Minute, cfg.JWT.ExpiryPeriod)
	assert.Equal(t, 2525, cfg.SMTP.Port)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{}
	cfg.Database.Host = "db"
	cfg.Database.Port = "5432"
	cfg.Database.User = "u"
	cfg.Database.Password = "p"
	cfg.Database.Name = "n"
	cfg.Database.SSLMode = "disable"
	cfg.Database.SearchPath = "public"

	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable search_path=public", cfg.PostgresDSN())
}
