package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := writeConfig(t, `
server:
  port: "9090"
storage:
  type: local
  local_path: `+filepath.Join(t.TempDir(), "uploads")+`
jwt:
  secret: dev-secret
  expire_hours: 2
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 2*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, 50, cfg.Simulator.MaxHistory)
	assert.Equal(t, 15, cfg.Simulator.SessionMinutes)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Retry.InitialDelay)
	assert.Equal(t, "log", cfg.Mail.Provider)
}

func TestLoadConfig_ReleaseRequiresLongSecret(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: release
jwt:
  secret: short
storage:
  type: minio
`)

	_, err := LoadConfig(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT secret is too short")
}

func TestConfig_Validate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:    ServerConfig{Mode: "debug"},
			Database:  DatabaseConfig{Driver: "postgres"},
			Storage:   StorageConfig{Type: "local"},
			Mail:      MailConfig{Provider: "log"},
			Simulator: SimulatorConfig{MaxHistory: 50, SessionMinutes: 15},
			Retry:     RetryConfig{MaxAttempts: 3},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "mysql driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "sqlserver" }, wantErr: "unsupported database driver"},
		{name: "unknown storage", mutate: func(c *Config) { c.Storage.Type = "s3" }, wantErr: "unsupported storage type"},
		{name: "unknown mail provider", mutate: func(c *Config) { c.Mail.Provider = "smtp" }, wantErr: "unsupported mail provider"},
		{name: "history too small", mutate: func(c *Config) { c.Simulator.MaxHistory = 1 }, wantErr: "max_history"},
		{name: "no session time", mutate: func(c *Config) { c.Simulator.SessionMinutes = 0 }, wantErr: "session_minutes"},
		{name: "no retry attempts", mutate: func(c *Config) { c.Retry.MaxAttempts = 0 }, wantErr: "max_attempts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
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
