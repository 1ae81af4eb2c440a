package ingest

import (
	"context"
	"errors"
	"time"
)

// Status is a file's processing lifecycle state. It only moves forward:
// processing -> ready or processing -> failed, never back.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusFailed     Status = "failed"
)

// StatusCompletedAlias is the historical spelling of terminal success,
// accepted on input for compatibility. "ready" is the canonical tag and the
// only one this service emits.
const StatusCompletedAlias = "completed"

func (s Status) Terminal() bool {
	return s == StatusReady || s == StatusFailed
}

// IsTerminalSuccess reports whether a raw status string means success,
// accepting both the canonical and the legacy spelling.
func IsTerminalSuccess(raw string) bool {
	return raw == string(StatusReady) || raw == StatusCompletedAlias
}

// File is one uploaded file's processing record. FileID is generated at
// submission and immutable for the record's lifetime.
type File struct {
	FileID     string    `json:"file_id"`
	Name       string    `json:"file_name"`
	Status     Status    `json:"status"`
	ChunkCount int       `json:"total_chunks"`
	Reason     string    `json:"message,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

var (
	// ErrNotFound covers both "never existed" and "not yet visible"; pollers
	// must treat it as "keep waiting" within their attempt budget.
	ErrNotFound = errors.New("file not found")

	// ErrTerminal rejects progress updates on an already-terminal file.
	ErrTerminal = errors.New("file already in a terminal state")

	// ErrConflict flags a terminal call contradicting the recorded terminal
	// state. A logic error in the pipeline; reported, not fatal to the store.
	ErrConflict = errors.New("conflicting terminal state")
)

// Store owns IngestionJob records. Single writer per file (the extraction
// pipeline); arbitrarily many concurrent readers. Writes are linearizable so
// a poller never observes a status regress.
type Store interface {
	Create(ctx context.Context, name string) (*File, error)
	Advance(ctx context.Context, fileID string, chunkCount int) error
	Complete(ctx context.Context, fileID string, finalChunkCount int) error
	Fail(ctx context.Context, fileID, reason string) error
	Get(ctx context.Context, fileID string) (*File, error)
	Count(ctx context.Context) (int, error)
}
