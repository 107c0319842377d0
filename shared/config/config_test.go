package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "GEMINI_API_KEY", "YOUTUBE_API_KEY", "GOOGLE_CLIENT_ID",
		"GOOGLE_CLIENT_SECRET", "EMAIL_USERNAME", "EMAIL_PASSWORD", "PORT", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "ai:\n  gemini_api_key: test-key\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.5-flash", cfg.AI.Model)
	assert.Equal(t, cfg.AI.Model, cfg.AI.SearchModel)
	assert.Equal(t, 3, cfg.AI.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.AI.InitialBackoff)
	assert.Equal(t, 10, cfg.Batch.MaxURLs)
	assert.Equal(t, time.Second, cfg.Batch.ItemDelay)
	assert.Equal(t, 1, cfg.Batch.Lanes)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 3, cfg.Watchlist.FeedItems)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Email.Enabled())
	assert.False(t, cfg.YouTube.Enabled())
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
ai:
  gemini_api_key: file-key
  model: gemini-2.5-pro
  initial_backoff: 1500ms
batch:
  max_urls: 5
  item_delay: 250ms
  lanes: 2
watchlist:
  urls:
    - https://www.youtube.com/watch?v=abc123def45
  feeds:
    - https://www.youtube.com/feeds/videos.xml?channel_id=UC123
schedule: "0 0 9 * * *"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.AI.GeminiAPIKey)
	assert.Equal(t, "gemini-2.5-pro", cfg.AI.Model)
	assert.Equal(t, 1500*time.Millisecond, cfg.AI.InitialBackoff)
	assert.Equal(t, 5, cfg.Batch.MaxURLs)
	assert.Equal(t, 250*time.Millisecond, cfg.Batch.ItemDelay)
	assert.Equal(t, 2, cfg.Batch.Lanes)
	assert.Len(t, cfg.Watchlist.URLs, 1)
	assert.Len(t, cfg.Watchlist.Feeds, 1)
	assert.False(t, cfg.Watchlist.Empty())
	assert.Equal(t, "0 0 9 * * *", cfg.Schedule)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("YOUTUBE_API_KEY", "yt-key")
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	path := writeConfig(t, "server:\n  port: \"8081\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.AI.GeminiAPIKey)
	assert.Equal(t, "yt-key", cfg.YouTube.APIKey)
	assert.True(t, cfg.YouTube.Enabled())
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)

	t.Run("ExplicitPathMustExist", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "env-key")
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("DefaultPathIsOptional", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "env-key")
		t.Chdir(t.TempDir())
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "env-key", cfg.AI.GeminiAPIKey)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing api key",
			body:    "ai:\n  model: x\n",
			wantErr: "GEMINI_API_KEY",
		},
		{
			name:    "negative lanes",
			body:    "ai:\n  gemini_api_key: k\nbatch:\n  lanes: -1\n",
			wantErr: "batch.lanes",
		},
		{
			name:    "incomplete email",
			body:    "ai:\n  gemini_api_key: k\nemail:\n  smtp_server: smtp.test.com\n",
			wantErr: "EMAIL_USERNAME",
		},
		{
			name:    "bad schedule",
			body:    "ai:\n  gemini_api_key: k\nschedule: \"not a cron\"\n",
			wantErr: "invalid schedule",
		},
		{
			name:    "bad port",
			body:    "ai:\n  gemini_api_key: k\nserver:\n  port: http\n",
			wantErr: "server.port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
