package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"chatdocs/backend/internal/config"
)

func TestLoadConfig(t *testing.T) {
	// Set env var directly to test envconfig logic
	os.Setenv("DB_HOST", "test-host")
	defer os.Unsetenv("DB_HOST")

	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.Equal(t, "test-host", cfg.DBHost)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.Equal(t, "ollama", cfg.ModelProvider)
	assert.Equal(t, "nomic-embed-text", cfg.ModelName)
	assert.Equal(t, 1000, cfg.PollIntervalMS)
	assert.Equal(t, 60, cfg.MaxAttempts)
	assert.Equal(t, "memory", cfg.JobStore)
	assert.Equal(t, 8085, cfg.ServerPort)
}

func TestLoadConfig_FromEnvFile(t *testing.T) {
	content := []byte("MODEL_NAME=loaded-from-file")
	err := os.WriteFile(".env", content, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(".env")

	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.Equal(t, "loaded-from-file", cfg.ModelName)
}

func TestLoadConfig_GeminiRequiresKey(t *testing.T) {
	os.Setenv("MODEL_PROVIDER", "gemini")
	defer os.Unsetenv("MODEL_PROVIDER")

	_, err := config.Load()
	assert.ErrorIs(t, err, config.ErrMissingRequired)

	os.Setenv("GEMINI_API_KEY", "test-key")
	defer os.Unsetenv("GEMINI_API_KEY")

	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.Equal(t, "gemini", cfg.ModelProvider)
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	os.Setenv("JOB_STORE", "mongodb")
	_, err := config.Load()
	assert.Error(t, err)
	os.Unsetenv("JOB_STORE")

	os.Setenv("MAX_ATTEMPTS", "0")
	_, err = config.Load()
	assert.Error(t, err)
	os.Unsetenv("MAX_ATTEMPTS")

	os.Setenv("POLL_INTERVAL_MS", "-5")
	_, err = config.Load()
	assert.Error(t, err)
	os.Unsetenv("POLL_INTERVAL_MS")
}
