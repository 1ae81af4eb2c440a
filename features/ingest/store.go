package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps file records in process memory. Statuses are transient;
// restart loses them, which matches the default deployment where the poll
// protocol re-submits rather than resumes.
type MemoryStore struct {
	mu    sync.RWMutex
	files map[string]*File
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{files: make(map[string]*File)}
}

// Create allocates a record in processing state. The record is visible to
// Get before the generated id is returned to the caller.
func (s *MemoryStore) Create(ctx context.Context, name string) (*File, error) {
	f := &File{
		FileID:    uuid.New().String(),
		Name:      name,
		Status:    StatusProcessing,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.files[f.FileID] = f
	s.mu.Unlock()

	cp := *f
	return &cp, nil
}

// Advance records pipeline progress. Chunk counts are monotonic while
// processing; a stale lower count is ignored.
func (s *MemoryStore) Advance(ctx context.Context, fileID string, chunkCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[fileID]
	if !ok {
		return ErrNotFound
	}
	if f.Status.Terminal() {
		return ErrTerminal
	}
	if chunkCount > f.ChunkCount {
		f.ChunkCount = chunkCount
	}
	return nil
}

// Complete is idempotent; completing an already-ready file is a no-op, while
// completing a failed one is a contradiction and reported as ErrConflict.
func (s *MemoryStore) Complete(ctx context.Context, fileID string, finalChunkCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[fileID]
	if !ok {
		return ErrNotFound
	}
	switch f.Status {
	case StatusReady:
		return nil
	case StatusFailed:
		return ErrConflict
	}
	f.Status = StatusReady
	f.ChunkCount = finalChunkCount
	f.Reason = ""
	return nil
}

func (s *MemoryStore) Fail(ctx context.Context, fileID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[fileID]
	if !ok {
		return ErrNotFound
	}
	switch f.Status {
	case StatusFailed:
		return nil
	case StatusReady:
		return ErrConflict
	}
	f.Status = StatusFailed
	f.Reason = reason
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, fileID string) (*File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[fileID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files), nil
}
