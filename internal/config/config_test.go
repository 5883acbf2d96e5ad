package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "3001", cfg.App.Port)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "logs/app.log", cfg.App.LogFilePath)
	assert.Equal(t, "http://localhost:3000", cfg.App.CorsAllowedOrigins)
	assert.Equal(t, "http://127.0.0.1:11434", cfg.Ai.OllamaBaseURL)
	assert.Equal(t, "gemma3:1b", cfg.Ai.OllamaModel)
	assert.Equal(t, 0.7, cfg.Ai.Temperature)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("OLLAMA_MODEL", "llama3:8b")
	t.Setenv("OLLAMA_TEMPERATURE", "0.2")

	cfg := Load()

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "llama3:8b", cfg.Ai.OllamaModel)
	assert.Equal(t, 0.2, cfg.Ai.Temperature)
}

func TestGetEnvAsFloatIgnoresGarbage(t *testing.T) {
	t.Setenv("OLLAMA_TEMPERATURE", "not-a-number")

	cfg := Load()

	assert.Equal(t, 0.7, cfg.Ai.Temperature)
}
