package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nsqio/go-nsq"

	"chatdocs/backend/features/ingest"
	"chatdocs/backend/internal/extract"
	"chatdocs/backend/internal/middleware"
	"chatdocs/backend/internal/text"
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type VectorStore interface {
	StoreChunk(ctx context.Context, chunk Chunk) error
	DeleteChunksByFileID(ctx context.Context, fileID string) error
}

// IngestConsumer processes queued file-ingestion tasks: extract text, chunk
// it, embed every chunk and write the vectors, advancing the file's record as
// it goes. Returning an error requeues the message; deterministic failures
// (bad payload, unreadable file) mark the record failed and are not retried.
type IngestConsumer struct {
	jobs     ingest.Store
	embedder Embedder
	vectors  VectorStore
	maxChars int
}

func NewIngestConsumer(jobs ingest.Store, e Embedder, v VectorStore, maxChars int) *IngestConsumer {
	if maxChars <= 0 {
		maxChars = 1000
	}
	return &IngestConsumer{jobs: jobs, embedder: e, vectors: v, maxChars: maxChars}
}

func (h *IngestConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var task ingest.Task
	if err := json.Unmarshal(m.Body, &task); err != nil {
		// Poison Pill: Invalid JSON, don't retry
		slog.Error("poison pill: invalid json", "error", err)
		return nil
	}

	ctx := context.Background()
	if task.CorrelationID != "" {
		ctx = middleware.WithCorrelationID(ctx, task.CorrelationID)
	}

	if task.FileID == "" || task.Path == "" {
		slog.ErrorContext(ctx, "missing required fields, dropping", "file_id", task.FileID, "path", task.Path)
		return nil
	}

	slog.InfoContext(ctx, "processing file", "file_id", task.FileID, "name", task.Name)

	content, err := extract.Text(task.Path)
	if err != nil {
		// Extraction failures are deterministic; fail the record instead of
		// cycling through the queue.
		slog.ErrorContext(ctx, "extraction failed", "error", err, "file_id", task.FileID)
		h.fail(ctx, task.FileID, fmt.Sprintf("extraction failed: %v", err))
		return nil
	}

	chunks := text.ChunkDocument(content, h.maxChars)
	if len(chunks) == 0 {
		slog.InfoContext(ctx, "no embeddable content, completing with zero chunks", "file_id", task.FileID)
		h.complete(ctx, task.FileID, 0)
		return nil
	}

	// Redeliveries reprocess from scratch; drop whatever an earlier attempt
	// already wrote so vectors are not duplicated.
	if err := h.vectors.DeleteChunksByFileID(ctx, task.FileID); err != nil {
		slog.ErrorContext(ctx, "failed to delete old chunks", "error", err, "file_id", task.FileID)
		return err
	}

	for i, c := range chunks {
		embedCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
		vector, err := h.embedder.Embed(embedCtx, c)
		cancel()
		if err != nil {
			slog.ErrorContext(ctx, "embedding failed", "error", err, "file_id", task.FileID, "chunk_index", i)
			return err // Retry: the model may still be loading
		}

		chunk := Chunk{
			FileID:     task.FileID,
			Name:       task.Name,
			Content:    c,
			ChunkIndex: i,
			Vector:     vector,
		}
		if err := h.vectors.StoreChunk(ctx, chunk); err != nil {
			slog.ErrorContext(ctx, "store chunk failed", "error", err, "file_id", task.FileID, "chunk_index", i)
			return err // Retry
		}

		if err := h.jobs.Advance(ctx, task.FileID, i+1); err != nil {
			slog.WarnContext(ctx, "failed to advance chunk count", "error", err, "file_id", task.FileID)
		}
	}

	h.complete(ctx, task.FileID, len(chunks))
	slog.InfoContext(ctx, "file processed", "file_id", task.FileID, "chunks", len(chunks))
	return nil
}

func (h *IngestConsumer) complete(ctx context.Context, fileID string, count int) {
	if err := h.jobs.Complete(ctx, fileID, count); err != nil && !errors.Is(err, ingest.ErrTerminal) {
		slog.ErrorContext(ctx, "failed to mark file ready", "error", err, "file_id", fileID)
	}
}

func (h *IngestConsumer) fail(ctx context.Context, fileID, reason string) {
	if err := h.jobs.Fail(ctx, fileID, reason); err != nil && !errors.Is(err, ingest.ErrTerminal) {
		slog.ErrorContext(ctx, "failed to mark file failed", "error", err, "file_id", fileID)
	}
}
