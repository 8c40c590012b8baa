// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the application configuration. Every external credential is
// optional: missing ones switch the corresponding component into its
// documented offline fallback instead of failing startup.
type Config struct {
	DatabasePath string
	LogLevel     string
	ListenAddr   string

	// Web search.
	ExaAPIKey string

	// LLM adjudication and summarization (OpenRouter-compatible chat API).
	OpenRouterAPIKey  string
	OpenRouterModelID string

	// Embeddings (OpenAI-compatible endpoint, e.g. a local Ollama).
	EmbeddingBaseURL string
	EmbeddingModelID string

	// Notifications.
	SMTPURL          string
	FromEmail        string
	UIBaseURL        string
	APIBaseURL       string
	TelegramBotToken string
	TelegramChatID   int64

	// Google Sheets import.
	SheetsID           string
	ServiceAccountJSON string

	// Coverage scheduler.
	CheckIntervalMinutes int
	RunDueLimit          int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		DatabasePath:         envOr("DATABASE_PATH", "./data/quotewatch.db"),
		LogLevel:             envOr("LOG_LEVEL", "info"),
		ListenAddr:           envOr("LISTEN_ADDR", ":8080"),
		ExaAPIKey:            os.Getenv("EXA_API_KEY"),
		OpenRouterAPIKey:     os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterModelID:    envOr("OPENROUTER_MODEL_ID", "anthropic/claude-3.7-sonnet"),
		EmbeddingBaseURL:     envOr("EMBEDDING_BASE_URL", "http://localhost:11434/v1"),
		EmbeddingModelID:     envOr("EMBEDDING_MODEL_ID", "nomic-embed-text"),
		SMTPURL:              os.Getenv("SMTP_URL"),
		FromEmail:            envOr("FROM_EMAIL", "coverage@quotewatch.local"),
		UIBaseURL:            envOr("UI_BASE_URL", "http://localhost:5173"),
		APIBaseURL:           envOr("API_BASE_URL", "http://localhost:8080"),
		TelegramBotToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
		SheetsID:             os.Getenv("GOOGLE_SHEETS_ID"),
		ServiceAccountJSON:   os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		CheckIntervalMinutes: 10,
		RunDueLimit:          20,
	}

	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", raw, err)
		}
		cfg.TelegramChatID = id
	}

	if raw := os.Getenv("CHECK_INTERVAL_MINUTES"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid CHECK_INTERVAL_MINUTES %q", raw)
		}
		cfg.CheckIntervalMinutes = n
	}

	if raw := os.Getenv("RUN_DUE_LIMIT"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid RUN_DUE_LIMIT %q", raw)
		}
		cfg.RunDueLimit = n
	}

	return cfg, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
