package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "pasarlink-backend", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "PPN 11%", cfg.Order.DefaultTaxName)
	assert.Equal(t, 5, cfg.Order.MaxCascadeDepth)
	assert.Equal(t, "memory", cfg.Order.TaxCacheBackend)
	assert.Equal(t, "https://api.xendit.co", cfg.Xendit.BaseURL)
	assert.Equal(t, "order-events", cfg.Kafka.Topic)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("PASARLINK_APP_PORT", "9090")
	t.Setenv("PASARLINK_ORDER_MAX_CASCADE_DEPTH", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, 3, cfg.Order.MaxCascadeDepth)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	t.Run("rejects idle conns above open conns", func(t *testing.T) {
		cfg := base()
		cfg.Database.MaxIdleConns = cfg.Database.MaxOpenConns + 1
		assert.Error(t, cfg.validate())
	})

	t.Run("rejects cascade depth out of range", func(t *testing.T) {
		cfg := base()
		cfg.Order.MaxCascadeDepth = 6
		assert.Error(t, cfg.validate())
	})

	t.Run("rejects unknown tax cache backend", func(t *testing.T) {
		cfg := base()
		cfg.Order.TaxCacheBackend = "memcached"
		assert.Error(t, cfg.validate())
	})

	t.Run("production requires gateway credentials", func(t *testing.T) {
		cfg := base()
		cfg.App.Env = "production"
		cfg.Database.Password = "secret"
		cfg.Database.SSLMode = "require"
		assert.Error(t, cfg.validate())

		cfg.Xendit.APIKey = "xnd_development_key"
		cfg.Xendit.CallbackToken = "token"
		assert.NoError(t, cfg.validate())
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host: "db.internal", Port: 5432,
		User: "svc", Password: "p@ss/word",
		DBName: "pasarlink", SSLMode: "require",
	}
	dsn := d.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "db.internal:5432")
	assert.Contains(t, dsn, "sslmode=require")
	assert.NotContains(t, dsn, "p@ss/word", "password must be escaped")
}
