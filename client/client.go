// Package client is a small SDK for the chatdocs backend: it uploads a
// document and watches the server-side processing record until it settles.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sync"
	"time"
)

var (
	// ErrMissingFileID means the upload response carried no file id, so there
	// is nothing to poll.
	ErrMissingFileID = errors.New("upload response missing file_id")

	// ErrTimeout means the attempt budget ran out before the record settled.
	ErrTimeout = errors.New("polling attempt budget exhausted")

	// ErrProcessingFailed means the server reported the file's processing as
	// failed. The server-side message, if any, is attached to the outcome.
	ErrProcessingFailed = errors.New("file processing failed")
)

// FileStatus mirrors the status endpoint's response body.
type FileStatus struct {
	FileID      string `json:"file_id"`
	Name        string `json:"file_name"`
	Status      string `json:"status"`
	TotalChunks int    `json:"total_chunks"`
	Message     string `json:"message,omitempty"`
}

// terminalSuccess accepts both the canonical "ready" and the legacy
// "completed" spelling.
func (s FileStatus) terminalSuccess() bool {
	return s.Status == "ready" || s.Status == "completed"
}

// Outcome is the final word on one watched file. Err is nil only for
// successful processing; Status holds the last response seen, when there was
// one.
type Outcome struct {
	Status FileStatus
	Err    error
}

type Client struct {
	BaseURL     string
	HTTPClient  *http.Client
	Interval    time.Duration
	MaxAttempts int
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL:     baseURL,
		HTTPClient:  &http.Client{Timeout: 30 * time.Second},
		Interval:    time.Second,
		MaxAttempts: 60,
	}
}

// Ingest uploads a document and starts watching its processing record. The
// returned Watch owns the poll loop; Cancel stops it without affecting the
// server side.
func (c *Client) Ingest(ctx context.Context, name string, r io.Reader) (*Watch, error) {
	status, err := c.upload(ctx, name, r)
	if err != nil {
		return nil, err
	}
	if status.FileID == "" {
		return nil, ErrMissingFileID
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w := &Watch{
		FileID: status.FileID,
		done:   make(chan Outcome, 1),
		cancel: cancel,
	}
	go c.poll(watchCtx, w)
	return w, nil
}

func (c *Client) upload(ctx context.Context, name string, r io.Reader) (FileStatus, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return FileStatus{}, fmt.Errorf("build upload: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return FileStatus{}, fmt.Errorf("build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return FileStatus{}, fmt.Errorf("build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/upload", &buf)
	if err != nil {
		return FileStatus{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return FileStatus{}, fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return FileStatus{}, fmt.Errorf("upload rejected: status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var status FileStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return FileStatus{}, fmt.Errorf("decode upload response: %w", err)
	}
	return status, nil
}

// Status fetches the current processing record once. A 404 is returned as-is
// in notFound so the poll loop can treat it as an ordinary attempt.
func (c *Client) Status(ctx context.Context, fileID string) (status FileStatus, notFound bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/file/status/"+fileID, nil)
	if err != nil {
		return FileStatus{}, false, err
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return FileStatus{}, false, fmt.Errorf("status request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return FileStatus{}, true, nil
	case resp.StatusCode != http.StatusOK:
		return FileStatus{}, false, fmt.Errorf("status request: server returned %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return FileStatus{}, false, fmt.Errorf("decode status response: %w", err)
	}
	return status, false, nil
}

func (c *Client) poll(ctx context.Context, w *Watch) {
	interval := c.Interval
	if interval <= 0 {
		interval = time.Second
	}
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 60
	}

	var last FileStatus
	for attempt := 1; attempt <= attempts; attempt++ {
		status, notFound, err := c.Status(ctx, w.FileID)
		switch {
		case ctx.Err() != nil:
			w.finish(Outcome{Status: last, Err: ctx.Err()})
			return
		case err != nil:
			// Transport failures and server errors end the watch immediately;
			// the attempt budget only covers healthy-but-not-done responses.
			w.finish(Outcome{Status: last, Err: err})
			return
		case notFound:
			// The record may not be visible yet. An ordinary attempt.
		default:
			last = status
			w.setProgress(status.TotalChunks)
			if status.terminalSuccess() {
				w.finish(Outcome{Status: status})
				return
			}
			if status.Status == "failed" {
				err := ErrProcessingFailed
				if status.Message != "" {
					err = fmt.Errorf("%w: %s", ErrProcessingFailed, status.Message)
				}
				w.finish(Outcome{Status: status, Err: err})
				return
			}
		}

		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			w.finish(Outcome{Status: last, Err: ctx.Err()})
			return
		case <-time.After(interval):
		}
	}

	w.finish(Outcome{Status: last, Err: ErrTimeout})
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// Watch is a handle on one in-flight ingestion.
type Watch struct {
	FileID string

	done   chan Outcome
	cancel context.CancelFunc

	mu       sync.Mutex
	progress int
	finished bool
}

// Done yields exactly one Outcome, then stays closed.
func (w *Watch) Done() <-chan Outcome {
	return w.done
}

// Cancel stops the poll loop. The pending Outcome reports context.Canceled.
// Calling Cancel after the watch settled is a no-op.
func (w *Watch) Cancel() {
	w.cancel()
}

// Progress returns the highest chunk count observed so far.
func (w *Watch) Progress() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.progress
}

func (w *Watch) setProgress(n int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if n > w.progress {
		w.progress = n
	}
}

func (w *Watch) finish(o Outcome) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.finished {
		return
	}
	w.finished = true
	w.cancel()
	w.done <- o
	close(w.done)
}
