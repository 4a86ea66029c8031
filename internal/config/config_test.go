package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultLogLevel, cfg.Logger.Level)
	assert.Equal(t, DefaultLogBufferCapacity, cfg.Logger.BufferCapacity)
	assert.Equal(t, DefaultServerAddr, cfg.Server.Addr)
	assert.Equal(t, DefaultGeminiModels, cfg.Gemini.Models)
	assert.Equal(t, DefaultAssistantCity, cfg.Assistant.City)
	assert.Equal(t, time.Hour, cfg.Conversation.TTL)
	assert.Equal(t, 50, cfg.Conversation.MaxHistory)
	assert.Contains(t, cfg.Scheduler.Tasks, "conversation_sweep")
	assert.True(t, cfg.Scheduler.Tasks["journal_maintenance"].Enabled)
}

func TestLoadConfigFileOverrides(t *testing.T) {
	path := writeConfig(t, `
logger:
  level: debug
  json: true
server:
  addr: ":8081"
assistant:
  city: Haifa
conversation:
  ttl: 30m
gemini:
  models: ["gemini-2.5-flash"]
  max_retries: 0
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.True(t, cfg.Logger.JSON)
	assert.Equal(t, ":8081", cfg.Server.Addr)
	assert.Equal(t, "Haifa", cfg.Assistant.City)
	assert.Equal(t, 30*time.Minute, cfg.Conversation.TTL)
	assert.Equal(t, []string{"gemini-2.5-flash"}, cfg.Gemini.Models)
	assert.Equal(t, 0, cfg.Gemini.MaxRetries)
}

func TestLoadConfigEnvironment(t *testing.T) {
	t.Setenv("CITYGUIDE_ASSISTANT_CITY", "Jerusalem")
	t.Setenv("GOOGLE_AI_API_KEY", "test-key")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "Jerusalem", cfg.Assistant.City)
	assert.Equal(t, "test-key", cfg.Gemini.APIKey)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "bad log level", body: "logger:\n  level: verbose\n"},
		{name: "temperature out of range", body: "gemini:\n  temperature: 3\n"},
		{name: "zero max history", body: "conversation:\n  max_history: 0\n"},
		{name: "malformed yaml", body: "logger: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfiguration))
		})
	}
}
