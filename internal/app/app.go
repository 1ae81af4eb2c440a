package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"chatdocs/backend/features/embedding"
	"chatdocs/backend/features/ingest"
	"chatdocs/backend/features/stats"
	"chatdocs/backend/internal/config"
	"chatdocs/backend/internal/middleware"
	"chatdocs/backend/internal/model"
	"chatdocs/backend/internal/worker"
)

type TaskPublisher interface {
	Publish(topic string, body []byte) error
}

// VectorStore is everything the app needs from the vector database: writes
// from the pipeline and the aggregate count for /stats.
type VectorStore interface {
	StoreChunk(ctx context.Context, chunk worker.Chunk) error
	DeleteChunksByFileID(ctx context.Context, fileID string) error
	CountChunks(ctx context.Context) (int, error)
}

type App struct {
	Handler        http.Handler
	Model          *model.Service
	IngestService  *ingest.Service
	IngestConsumer *worker.IngestConsumer

	port int
}

func New(
	cfg *config.Config,
	jobs ingest.Store,
	backend model.Backend,
	vecStore VectorStore,
	taskPub TaskPublisher,
) (*App, error) {

	// The singleton model instance everything embeds through.
	modelService := model.NewService(backend)

	// Feature: Embedding
	embeddingHandler := embedding.NewHandler(modelService)

	// Feature: Ingest
	ingestService := ingest.NewService(jobs, taskPub, cfg.UploadDir)
	ingestHandler := ingest.NewHandler(ingestService, cfg.MaxUploadSizeMB*1024*1024)

	// Feature: Stats
	statsHandler := stats.NewHandler(jobs, vecStore)

	// Middleware: CORS
	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	// Routes
	mux := http.NewServeMux()

	mux.Handle("POST /embed", middleware.CorrelationID(enableCORS(embeddingHandler.Embed)))
	mux.Handle("GET /health", middleware.CorrelationID(enableCORS(embeddingHandler.Health)))

	mux.Handle("POST /api/upload", middleware.CorrelationID(enableCORS(ingestHandler.Upload)))
	mux.Handle("GET /api/file/status/{file_id}", middleware.CorrelationID(enableCORS(ingestHandler.Status)))

	mux.Handle("GET /stats", middleware.CorrelationID(enableCORS(statsHandler.GetStats)))

	// Worker (Ingest Consumer) Setup
	ingestConsumer := worker.NewIngestConsumer(jobs, modelService, vecStore, 1000)

	return &App{
		Handler:        mux,
		Model:          modelService,
		IngestService:  ingestService,
		IngestConsumer: ingestConsumer,
		port:           cfg.ServerPort,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	// Load in the background so the server answers /health immediately; the
	// readiness endpoints report "loading" until this finishes.
	go func() {
		if err := a.Model.EnsureLoaded(ctx); err != nil {
			slog.Error("model load failed", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.port),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
