package config

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_Defaults(t *testing.T) {
	t.Setenv("SERVICEBOARD_API_KEY", "secret")

	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "3100", env.HTTPPort)
	assert.Equal(t, "local", env.StorageEnv.Type)
	assert.Equal(t, "localhost:6379", env.RedisAddr)
	assert.Equal(t, slog.LevelDebug, env.SlogLevel())
}

func TestLoadEnv_RequiresAPIKey(t *testing.T) {
	t.Setenv("SERVICEBOARD_API_KEY", "")
	require.NoError(t, os.Unsetenv("SERVICEBOARD_API_KEY"))
	t.Setenv("API_KEY", "")
	require.NoError(t, os.Unsetenv("API_KEY"))

	_, err := LoadEnv()
	assert.Error(t, err)
}

func TestLoadClientEnv_Intervals(t *testing.T) {
	t.Setenv("SERVICEBOARD_HIDDEN_INTERVAL", "45s")
	t.Setenv("SERVICEBOARD_LOG_LEVEL", "warn")

	env, err := LoadClientEnv()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, env.VisibleInterval)
	assert.Equal(t, 45*time.Second, env.HiddenInterval)
	assert.Equal(t, slog.LevelWarn, env.SlogLevel())
}

func TestSlogLevel_InvalidFallsBack(t *testing.T) {
	e := &BaseEnv{LogLevel: "loud"}
	assert.Equal(t, slog.LevelDebug, e.SlogLevel())
}
