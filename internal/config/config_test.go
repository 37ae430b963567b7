package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:           "10000",
		LogLevel:       "info",
		DataDir:        "/data",
		GatewayBaseURL: "https://script.example.com/exec",
		GatewayTimeout: 30 * time.Second,
		DeployMode:     DeployModeGateway,
		MaxImageBytes:  1 << 20,
		SessionTTL:     2 * time.Hour,
		SessionSweep:   10 * time.Minute,
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvGatewayBaseURL, "https://script.example.com/exec")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "10000", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, DeployModeGateway, cfg.DeployMode)
	assert.Equal(t, int64(1<<20), cfg.MaxImageBytes)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "prometheus", cfg.MetricsUsername)
	assert.False(t, cfg.HasLLMProvider())
	assert.False(t, cfg.HasArchive())
	assert.True(t, strings.HasSuffix(cfg.SQLitePath(), "studio.db"))
}

func TestLoadRequiresGatewayURL(t *testing.T) {
	t.Setenv(EnvGatewayBaseURL, "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvGatewayBaseURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv(EnvGatewayBaseURL, "https://script.example.com/exec")
	t.Setenv(EnvDeployMode, DeployModeDirect)
	t.Setenv(EnvSessionTTL, "45m")
	t.Setenv(EnvMaxImageBytes, "524288")
	t.Setenv(EnvUserRateLimitBurst, "3.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DeployModeDirect, cfg.DeployMode)
	assert.Equal(t, 45*time.Minute, cfg.SessionTTL)
	assert.Equal(t, int64(524288), cfg.MaxImageBytes)
	assert.InDelta(t, 3.5, cfg.UserRateLimitBurst, 1e-9)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv(EnvGatewayBaseURL, "https://script.example.com/exec")
	t.Setenv(EnvSessionTTL, "not-a-duration")
	t.Setenv(EnvMaxImageBytes, "lots")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, int64(1<<20), cfg.MaxImageBytes)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "relative gateway url",
			mutate:  func(c *Config) { c.GatewayBaseURL = "/exec" },
			wantErr: EnvGatewayBaseURL,
		},
		{
			name:    "unknown deploy mode",
			mutate:  func(c *Config) { c.DeployMode = "both" },
			wantErr: EnvDeployMode,
		},
		{
			name:    "zero image cap",
			mutate:  func(c *Config) { c.MaxImageBytes = 0 },
			wantErr: EnvMaxImageBytes,
		},
		{
			name:    "negative session ttl",
			mutate:  func(c *Config) { c.SessionTTL = -time.Minute },
			wantErr: EnvSessionTTL,
		},
		{
			name:    "missing data dir",
			mutate:  func(c *Config) { c.DataDir = "" },
			wantErr: EnvDataDir,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateJoinsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Port = ""
	cfg.GatewayBaseURL = ""
	cfg.MaxImageBytes = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvPort)
	assert.Contains(t, err.Error(), EnvGatewayBaseURL)
	assert.Contains(t, err.Error(), EnvMaxImageBytes)
}

func TestHasArchive(t *testing.T) {
	cfg := validConfig()
	assert.False(t, cfg.HasArchive())

	cfg.R2Endpoint = "https://acc.r2.cloudflarestorage.com"
	cfg.R2AccessKeyID = "key"
	cfg.R2SecretKey = "secret"
	assert.False(t, cfg.HasArchive())

	cfg.R2Bucket = "richmenu-archive"
	assert.True(t, cfg.HasArchive())
}
