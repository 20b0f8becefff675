package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	assert.Equal(t, "kthimi-invoicer", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 5, cfg.Log.MaxBackups)
	assert.Equal(t, 10*time.Second, cfg.Queue.PollInterval)
	assert.Equal(t, 5, cfg.Queue.Workers)
	assert.Equal(t, 30*time.Minute, cfg.Queue.StaleTimeout)
	assert.Equal(t, 3, cfg.Mail.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Mail.BaseDelay)
	assert.Equal(t, 9100, cfg.Printer.Port)
	assert.Equal(t, 2*time.Second, cfg.Printer.ProbeTimeout)
	assert.Equal(t, 50, cfg.Printer.ScanWorkers)
	assert.Equal(t, 30*time.Minute, cfg.Printer.CacheTTL)
	assert.Equal(t, "inmemory", cfg.Printer.CacheBackend)
	assert.Equal(t, 2, cfg.Printer.Copies)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	t.Run("defaults pass", func(t *testing.T) {
		require.NoError(t, base().validate())
	})

	t.Run("rejects zero workers", func(t *testing.T) {
		cfg := base()
		cfg.Queue.Workers = -1
		assert.Error(t, cfg.validate())
	})

	t.Run("rejects unknown cache backend", func(t *testing.T) {
		cfg := base()
		cfg.Printer.CacheBackend = "memcached"
		assert.Error(t, cfg.validate())
	})

	t.Run("production requires db password and artifact password", func(t *testing.T) {
		cfg := base()
		cfg.App.Env = "production"
		cfg.Database.SSLMode = "require"
		assert.Error(t, cfg.validate())

		cfg.Database.Password = "secret"
		assert.Error(t, cfg.validate())

		cfg.Artifact.Password = "secret"
		cfg.SMTP.Host = "mail.example.com"
		assert.NoError(t, cfg.validate())
	})

	t.Run("production rejects sslmode disable", func(t *testing.T) {
		cfg := base()
		cfg.App.Env = "production"
		cfg.Database.Password = "secret"
		cfg.Artifact.Password = "secret"
		cfg.SMTP.Host = "mail.example.com"
		assert.Error(t, cfg.validate())
	})
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "worker",
		Password: "p@ss/word",
		DBName:   "printimi",
		SSLMode:  "require",
	}
	dsn := d.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "db.internal:5432")
	assert.Contains(t, dsn, "sslmode=require")
	assert.NotContains(t, dsn, "p@ss/word", "password must be escaped")
}
