package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
)

// State is the lifecycle of the process-wide embedding model.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateLoading       State = "loading"
	StateReady         State = "ready"
	StateFailed        State = "failed"
)

// ErrInvalidInput is returned for empty (after trimming) embedding input.
// It is rejected before the backend is touched.
var ErrInvalidInput = errors.New("text must not be empty")

// NotReadyError is returned by Embed while the model is not loaded. Loading
// tells the caller whether a load is in flight, so it can decide to retry.
type NotReadyError struct {
	Loading bool
}

func (e *NotReadyError) Error() string {
	if e.Loading {
		return "model is still loading"
	}
	return "model is not loaded"
}

// Info describes a loaded model.
type Info struct {
	Model     string
	Dimension int
}

// Backend is the underlying model runtime. Load is the expensive one-time
// resource acquisition; Forward returns token-level representations (a single
// row for runtimes that pool server-side).
type Backend interface {
	Model() string
	Load(ctx context.Context) (Info, error)
	Forward(ctx context.Context, text string) ([][]float32, error)
}

// Readiness is a side-effect-free snapshot of the model state.
type Readiness struct {
	State     State
	Model     string
	Dimension int
}

// Service owns the singleton model instance. All state mutations funnel
// through EnsureLoaded, which guarantees at most one load in flight; the load
// itself runs outside the lock so readiness queries and Embed calls never
// block behind it.
type Service struct {
	backend Backend

	mu      sync.Mutex
	state   State
	info    Info
	loadErr error
}

func NewService(backend Backend) *Service {
	return &Service{
		backend: backend,
		state:   StateUninitialized,
	}
}

// EnsureLoaded is idempotent. If the model is ready it returns immediately;
// if a load is already in flight it returns without starting a second one.
// From uninitialized or failed it performs the load, suspending the caller
// for its duration. A failed load is retriable by a fresh call.
func (s *Service) EnsureLoaded(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateReady:
		s.mu.Unlock()
		return nil
	case StateLoading:
		s.mu.Unlock()
		return nil
	}
	s.state = StateLoading
	s.mu.Unlock()

	slog.InfoContext(ctx, "loading embedding model", "model", s.backend.Model())
	info, err := s.backend.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateFailed
		s.loadErr = err
		slog.ErrorContext(ctx, "model load failed", "model", s.backend.Model(), "error", err)
		return fmt.Errorf("model load: %w", err)
	}
	s.state = StateReady
	s.info = info
	s.loadErr = nil
	slog.InfoContext(ctx, "embedding model loaded", "model", info.Model, "dimension", info.Dimension)
	return nil
}

// Embed maps text to a fixed-length L2-normalized vector. It requires the
// model to be ready and fails fast otherwise: requests arriving during a load
// are rejected rather than queued.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrInvalidInput
	}

	s.mu.Lock()
	state := s.state
	dim := s.info.Dimension
	s.mu.Unlock()

	if state != StateReady {
		return nil, &NotReadyError{Loading: state == StateLoading}
	}

	reprs, err := s.backend.Forward(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("forward pass: %w", err)
	}
	if len(reprs) == 0 || len(reprs[0]) == 0 {
		return nil, errors.New("backend returned no representations")
	}

	vec := meanPool(reprs)
	if dim > 0 && len(vec) != dim {
		return nil, fmt.Errorf("dimension mismatch: got %d, model reports %d", len(vec), dim)
	}
	l2Normalize(vec)
	return vec, nil
}

// Readiness reports the current state without side effects.
func (s *Service) Readiness() Readiness {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := s.info.Model
	if name == "" {
		name = s.backend.Model()
	}
	return Readiness{
		State:     s.state,
		Model:     name,
		Dimension: s.info.Dimension,
	}
}

// meanPool averages token-level representations into a single vector.
func meanPool(reprs [][]float32) []float32 {
	out := make([]float32, len(reprs[0]))
	for _, r := range reprs {
		for i, v := range r {
			out[i] += v
		}
	}
	n := float32(len(reprs))
	for i := range out {
		out[i] /= n
	}
	return out
}

// l2Normalize scales the vector to unit length, making cosine similarity
// equal to the dot product of two outputs. Zero vectors are left untouched.
func l2Normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}
