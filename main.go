package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nsqio/go-nsq"

	"chatdocs/backend/internal/adapter/gemini"
	"chatdocs/backend/internal/adapter/ollama"
	"chatdocs/backend/internal/app"
	"chatdocs/backend/internal/config"
	"chatdocs/backend/internal/logger"
	"chatdocs/backend/internal/model"
)

func main() {
	// Structured logger; the context handler stamps every record with the
	// request correlation id.
	base := slog.NewJSONHandler(os.Stdout, nil)
	slog.SetDefault(slog.New(logger.NewContextHandler(base)))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	if deps.DB != nil {
		defer deps.DB.Close()
	}

	var backend model.Backend
	switch cfg.ModelProvider {
	case "gemini":
		backend = gemini.NewEmbedder(cfg.GeminiAPIKey, cfg.ModelName)
	default:
		backend = ollama.NewClient(ollama.Config{BaseURL: cfg.OllamaURL, Model: cfg.ModelName})
	}

	application, err := app.New(cfg, deps.Jobs, backend, deps.VectorStore, deps.NSQProducer)
	if err != nil {
		slog.Error("failed to build app", "error", err)
		os.Exit(1)
	}

	// NSQ Consumer for queued ingestion tasks
	consumer, err := nsq.NewConsumer(config.TopicIngestFile, "backend", nsq.NewConfig())
	if err != nil {
		slog.Error("failed to create NSQ consumer", "error", err)
		os.Exit(1)
	}
	consumer.AddHandler(nsq.HandlerFunc(func(m *nsq.Message) error {
		return application.IngestConsumer.HandleMessage(m)
	}))
	if err := consumer.ConnectToNSQLookupd(cfg.NSQLookupd); err != nil {
		slog.Error("failed to connect to NSQLookupd", "error", err)
	} else {
		slog.Info("NSQ ingest consumer connected", "topic", config.TopicIngestFile)
	}
	defer consumer.Stop()

	if err := application.Run(ctx); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
