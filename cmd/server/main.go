package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"quotewatch/internal/config"
	"quotewatch/internal/embedding"
	"quotewatch/internal/importer"
	"quotewatch/internal/llm"
	"quotewatch/internal/match"
	"quotewatch/internal/notify"
	"quotewatch/internal/pipeline"
	"quotewatch/internal/scheduler"
	"quotewatch/internal/search"
	"quotewatch/internal/server"
	"quotewatch/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	embedder, err := embedding.NewOpenAI(cfg.EmbeddingBaseURL, cfg.EmbeddingModelID, log)
	if err != nil {
		log.Error("create embedder", "error", err)
		os.Exit(1)
	}

	adjudicator, err := llm.NewAdjudicator(cfg.OpenRouterAPIKey, cfg.OpenRouterModelID, log)
	if err != nil {
		log.Error("create adjudicator", "error", err)
		os.Exit(1)
	}
	summarizer, err := llm.NewSummarizer(cfg.OpenRouterAPIKey, cfg.OpenRouterModelID, log)
	if err != nil {
		log.Error("create summarizer", "error", err)
		os.Exit(1)
	}

	provider := newSearchProvider(cfg, log)

	var telegram *notify.Telegram
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != 0 {
		telegram, err = notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID, log)
		if err != nil {
			log.Error("create telegram channel", "error", err)
			os.Exit(1)
		}
	}
	mailer := notify.NewSMTPMailer(cfg.SMTPURL, cfg.FromEmail, log)
	notifier := notify.NewNotifier(store, mailer, telegram, cfg.UIBaseURL, cfg.APIBaseURL, log)

	engine := match.NewEngine(embedder, adjudicator, log)
	pipe := pipeline.New(store, provider, engine, embedder, summarizer, notifier, log)
	imp := importer.New(store, embedder, log)

	sched := scheduler.New(pipe, time.Duration(cfg.CheckIntervalMinutes)*time.Minute, cfg.RunDueLimit, log)

	srv := server.New(store, pipe, imp, server.Config{
		ListenAddr:  cfg.ListenAddr,
		RunDueLimit: cfg.RunDueLimit,
		Sheets: importer.SheetsConfig{
			SpreadsheetID:      cfg.SheetsID,
			ServiceAccountJSON: cfg.ServiceAccountJSON,
		},
	}, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("starting quotewatch", "addr", cfg.ListenAddr)

	go sched.Run(ctx)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Error("http server", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown http server", "error", err)
	}

	log.Info("quotewatch stopped")
}

// newSearchProvider prefers Exa when a key is configured and degrades to
// the credential-free Google News RSS search otherwise.
func newSearchProvider(cfg *config.Config, log *slog.Logger) search.Provider {
	if cfg.ExaAPIKey != "" {
		return search.NewExa(cfg.ExaAPIKey, http.DefaultClient, log)
	}
	log.Info("no EXA_API_KEY set, using Google News RSS search")
	return search.NewGoogleNews(http.DefaultClient, log)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
