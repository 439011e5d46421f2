package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	return Load(fs, args)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(t)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "mock", cfg.Auth.Mode)
	assert.Equal(t, 5, cfg.Auth.MaxAttempts)
	assert.Equal(t, 15*time.Minute, cfg.Auth.LockoutWindow)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 2*time.Second, cfg.Generation.Delay)
	assert.False(t, cfg.Records.ReseedMissingTypes)
	assert.Equal(t, "gpt-3.5-turbo", cfg.OpenAI.Model)
	assert.Equal(t, 1000, cfg.OpenAI.MaxTokens)
}

func TestLoad_FileEnvAndFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  driver: memory
auth:
  mode: remote
  lockout_window: 1m
records:
  reseed_missing_types: true
`), 0o600))

	t.Setenv("DASH_AUTH_MAX_ATTEMPTS", "3")
	t.Setenv("DASH_OPENAI_API_KEY", "sk-test")

	cfg, err := load(t, "--config", path, "--auth-mode", "mock", "--log-level", "debug")
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "mock", cfg.Auth.Mode, "flag beats file")
	assert.Equal(t, time.Minute, cfg.Auth.LockoutWindow)
	assert.Equal(t, 3, cfg.Auth.MaxAttempts)
	assert.True(t, cfg.Records.ReseedMissingTypes)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Errors(t *testing.T) {
	_, err := load(t, "--help")
	assert.True(t, errors.Is(err, pflag.ErrHelp))

	_, err = load(t, "--store-driver", "redis")
	assert.Error(t, err)

	_, err = load(t, "--config", "/does/not/exist.yaml")
	assert.Error(t, err)

	_, err = load(t, "--no-such-flag")
	assert.Error(t, err)
}
