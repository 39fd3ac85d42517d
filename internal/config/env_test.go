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
	t.Setenv("TWOMINUTE_AUTH_SECRET", "s3cret")

	env, err := LoadEnv()
	require.NoError(t, err)

	assert.Equal(t, "local", env.Env)
	assert.Equal(t, "3100", env.HTTPPort)
	assert.Equal(t, "local", env.StorageEnv.Type)
	assert.Equal(t, 20*time.Second, env.GeminiEnv.CallTimeout)
	assert.Equal(t, 720*time.Hour, env.AuthEnv.TokenTTL)
	assert.False(t, env.GeminiEnv.RemoteEnabled())
	assert.Equal(t, []string{
		"gemini-2.5-flash",
		"gemini-3-flash",
		"gemini-1.5-flash-latest",
		"gemini-1.5-flash",
		"gemini-pro",
	}, env.GeminiEnv.Candidates())
}

func TestLoadEnv_Overrides(t *testing.T) {
	t.Setenv("TWOMINUTE_AUTH_SECRET", "s3cret")
	t.Setenv("TWOMINUTE_GEMINI_API_KEY", "key")
	t.Setenv("TWOMINUTE_GEMINI_MODEL", "gemini-exp")
	t.Setenv("TWOMINUTE_GEMINI_FALLBACKS", "gemini-pro")
	t.Setenv("TWOMINUTE_STORAGE_TYPE", "sqlite")
	t.Setenv("TWOMINUTE_LOG_LEVEL", "warn")

	env, err := LoadEnv()
	require.NoError(t, err)

	assert.True(t, env.GeminiEnv.RemoteEnabled())
	assert.Equal(t, []string{"gemini-exp", "gemini-pro"}, env.GeminiEnv.Candidates())
	assert.Equal(t, "sqlite", StorageEnvFromEnv(env).Type)
	assert.Equal(t, slog.LevelWarn, env.SlogLevel())
}

func TestLoadEnv_MissingSecret(t *testing.T) {
	t.Setenv("TWOMINUTE_AUTH_SECRET", "")
	require.NoError(t, os.Unsetenv("TWOMINUTE_AUTH_SECRET"))
	_, err := LoadEnv()
	assert.Error(t, err)
}

func TestSlogLevel_Fallback(t *testing.T) {
	var nilEnv *BaseEnv
	assert.Equal(t, slog.LevelDebug, nilEnv.SlogLevel())
	assert.Equal(t, slog.LevelDebug, (&BaseEnv{LogLevel: "chatty"}).SlogLevel())
}

func TestLoadGeminiEnv_WithoutSecret(t *testing.T) {
	t.Setenv("TWOMINUTE_AUTH_SECRET", "")
	require.NoError(t, os.Unsetenv("TWOMINUTE_AUTH_SECRET"))
	t.Setenv("TWOMINUTE_GEMINI_CALL_TIMEOUT", "5s")

	env, err := LoadGeminiEnv()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, env.CallTimeout)
	assert.Equal(t, "gemini-2.5-flash", env.Model)
}
