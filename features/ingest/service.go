package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"chatdocs/backend/internal/config"
	"chatdocs/backend/internal/middleware"
)

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

// Task is the payload handed to the background extraction pipeline.
type Task struct {
	FileID        string `json:"file_id"`
	Path          string `json:"path"`
	Name          string `json:"name"`
	CorrelationID string `json:"correlation_id"`
}

type Service struct {
	store     Store
	pub       EventPublisher
	uploadDir string
}

func NewService(store Store, pub EventPublisher, uploadDir string) *Service {
	return &Service{store: store, pub: pub, uploadDir: uploadDir}
}

// Submit persists the uploaded file to disk, creates its processing record
// and queues the extraction task. The record is created before the id is
// returned, so a status query issued right after submission can already see
// it.
func (s *Service) Submit(ctx context.Context, filename string, r io.Reader) (*File, error) {
	if err := os.MkdirAll(s.uploadDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	f, err := s.store.Create(ctx, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}

	dst := filepath.Join(s.uploadDir, f.FileID+"_"+filepath.Base(filename))
	out, err := os.Create(dst) // #nosec G304 -- dst is built from a generated uuid and a sanitized base name
	if err != nil {
		s.markFailed(ctx, f.FileID, "failed to save file")
		return nil, fmt.Errorf("failed to save file: %w", err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		s.markFailed(ctx, f.FileID, "failed to save file")
		return nil, fmt.Errorf("failed to save file: %w", err)
	}
	if err := out.Close(); err != nil {
		s.markFailed(ctx, f.FileID, "failed to save file")
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	task := Task{
		FileID:        f.FileID,
		Path:          dst,
		Name:          filename,
		CorrelationID: middleware.GetCorrelationID(ctx),
	}
	payload, _ := json.Marshal(task)

	if err := s.pub.Publish(config.TopicIngestFile, payload); err != nil {
		slog.ErrorContext(ctx, "failed to publish ingest task", "error", err, "file_id", f.FileID)
		s.markFailed(ctx, f.FileID, "failed to queue file for processing")
		return nil, fmt.Errorf("failed to queue file: %w", err)
	}

	slog.InfoContext(ctx, "file queued for processing", "file_id", f.FileID, "name", filename)
	return f, nil
}

func (s *Service) markFailed(ctx context.Context, fileID, reason string) {
	if err := s.store.Fail(ctx, fileID, reason); err != nil {
		slog.ErrorContext(ctx, "failed to mark file failed", "error", err, "file_id", fileID)
	}
}

// Status returns a transient read-only view of the file's record.
func (s *Service) Status(ctx context.Context, fileID string) (*File, error) {
	return s.store.Get(ctx, fileID)
}
