package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	t.Setenv("CONFIG_FILE", path)
}

func TestLoadAppliesDefaults(t *testing.T) {
	writeConfig(t, `
youtube:
  api_key: test-yt-key
ai:
  gemini_api_key: test-gemini-key
`)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-yt-key", cfg.YouTube.APIKey)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 5, cfg.Breaker.FailureThreshold)
	assert.Equal(t, 500, cfg.Cache.Capacity)
	assert.Equal(t, 21600, cfg.Cache.TTLSeconds["shorts"])
	assert.Equal(t, 120, cfg.Cache.TTLSeconds["error"])
	assert.Equal(t, 50, cfg.Enrichment.DailyQuota)
	assert.Equal(t, 50000, cfg.Parser.MaxInputChars)
	assert.Equal(t, "@every 5m", cfg.Maintenance.CleanupSchedule)
}

func TestLoadOverridesDefaults(t *testing.T) {
	writeConfig(t, `
youtube:
  api_key: test-yt-key
  timeout_seconds: 5
ai:
  gemini_api_key: test-gemini-key
retry:
  max_attempts: 7
  base_delay_ms: 100
breaker:
  failure_threshold: 2
  reset_timeout_seconds: 30
cache:
  capacity: 50
  ttl_seconds:
    shorts: 60
`)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Retry.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Retry.BaseDelay())
	assert.Equal(t, 2, cfg.Breaker.FailureThreshold)
	assert.Equal(t, 30*time.Second, cfg.Breaker.ResetTimeout())
	assert.Equal(t, 5*time.Second, cfg.MetadataTimeout())
	assert.Equal(t, 50, cfg.Cache.Capacity)
	assert.Equal(t, 60, cfg.Cache.TTLSeconds["shorts"])
	// Unspecified categories still get their defaults.
	assert.Equal(t, 43200, cfg.Cache.TTLSeconds["video"])
}

func TestLoadEnvFallback(t *testing.T) {
	writeConfig(t, `{}`)
	t.Setenv("YOUTUBE_API_KEY", "env-yt-key")
	t.Setenv("GEMINI_API_KEY", "env-gemini-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "env-yt-key", cfg.YouTube.APIKey)
	assert.Equal(t, "env-gemini-key", cfg.AI.GeminiAPIKey)
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadRejectsMissingCredentials(t *testing.T) {
	writeConfig(t, `
ai:
  gemini_api_key: test-gemini-key
`)
	t.Setenv("YOUTUBE_API_KEY", "")
	t.Setenv("GOOGLE_CLIENT_ID", "")
	t.Setenv("GOOGLE_CLIENT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YouTube credentials")
}

func TestLoadRejectsInvertedPitchBounds(t *testing.T) {
	writeConfig(t, `
youtube:
  api_key: test-yt-key
ai:
  gemini_api_key: test-gemini-key
parser:
  min_pitch_chars: 500
  max_pitch_chars: 100
`)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min_pitch_chars")
}

func TestLoadAcceptsOAuthCredentials(t *testing.T) {
	writeConfig(t, `
youtube:
  client_id: test-client
  client_secret: test-secret
ai:
  gemini_api_key: test-gemini-key
`)
	t.Setenv("YOUTUBE_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.YouTube.APIKey)
	assert.Equal(t, "test-client", cfg.YouTube.ClientID)
}

func TestApplyDefaultsStandalone(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	assert.Equal(t, 10*time.Second, cfg.MetadataTimeout())
	assert.Equal(t, 60*time.Second, cfg.AITimeout())
	assert.Equal(t, 8*time.Second, cfg.Retry.MaxDelay())
	assert.Equal(t, 1000, cfg.Monitoring.EventRetention)
}
