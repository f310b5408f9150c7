package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Addr:         defaultAddr,
		DatabaseURL:  "postgres://localhost/pos",
		APIKeyPepper: "pepper",
		RateLimit:    RateLimitConfig{Max: 10, Window: time.Minute},
	}
}

func TestLoadConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("POS_DATABASE_URL", "postgres://db/pos")
	t.Setenv("POS_API_KEY_PEPPER", "s3cret")

	cfg, err := loadConfig([]string{"--low-stock-threshold=5"})
	require.NoError(t, err)

	assert.Equal(t, "postgres://db/pos", cfg.DatabaseURL)
	assert.Equal(t, "s3cret", cfg.APIKeyPepper)
	assert.Equal(t, 5, cfg.LowStockThreshold)
	assert.Equal(t, defaultAddr, cfg.Addr)
	assert.Equal(t, 300, cfg.RateLimit.Max)
	assert.Equal(t, 15*time.Second, cfg.Graceful.ShutdownTimeout)
	assert.Equal(t, 256, cfg.Terminals.Max)
	assert.Equal(t, 12*time.Hour, cfg.Terminals.IdleTTL)
}

func TestApplyPlatformDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://platform/pos")
	t.Setenv("PORT", "9090")

	cfg := Config{Addr: defaultAddr}
	cfg.applyPlatformDefaults()
	assert.Equal(t, "postgres://platform/pos", cfg.DatabaseURL)
	assert.Equal(t, "0.0.0.0:9090", cfg.Addr)

	custom := Config{Addr: "127.0.0.1:7000", DatabaseURL: "postgres://mine"}
	custom.applyPlatformDefaults()
	assert.Equal(t, "postgres://mine", custom.DatabaseURL)
	assert.Equal(t, "127.0.0.1:7000", custom.Addr, "explicit address wins over PORT")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "no database", mutate: func(c *Config) { c.DatabaseURL = "" }, wantErr: "database URL is required"},
		{name: "no pepper", mutate: func(c *Config) { c.APIKeyPepper = "" }, wantErr: "pepper is required"},
		{name: "zero rate", mutate: func(c *Config) { c.RateLimit.Max = 0 }, wantErr: "rate limit must be positive"},
		{name: "negative terminal cap", mutate: func(c *Config) { c.Terminals.Max = -1 }, wantErr: "terminal limits must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
