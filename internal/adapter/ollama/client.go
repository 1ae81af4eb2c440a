package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chatdocs/backend/internal/model"
)

const (
	defaultBaseURL = "http://localhost:11434/v1"
	defaultModel   = "nomic-embed-text"
	requestTimeout = 60 * time.Second
)

// Client is a model backend speaking the OpenAI-compatible /v1/embeddings
// protocol served by a local Ollama runtime. The runtime pools token
// representations server-side, so Forward returns a single row.
type Client struct {
	baseURL string
	modelID string
	client  *http.Client
}

type Config struct {
	BaseURL string
	Model   string
}

func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	modelID := cfg.Model
	if modelID == "" {
		modelID = defaultModel
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		modelID: modelID,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

func (c *Client) Model() string { return c.modelID }

// Load issues a warm-up request. Ollama pages model weights into memory on
// first use, so this carries the full cost of the one-time acquisition and
// reports the model's output dimension.
func (c *Client) Load(ctx context.Context) (model.Info, error) {
	vec, err := c.embed(ctx, "warmup")
	if err != nil {
		return model.Info{}, fmt.Errorf("warm-up: %w", err)
	}
	return model.Info{Model: c.modelID, Dimension: len(vec)}, nil
}

func (c *Client) Forward(ctx context.Context, text string) ([][]float32, error) {
	vec, err := c.embed(ctx, text)
	if err != nil {
		return nil, err
	}
	return [][]float32{vec}, nil
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (c *Client) embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embeddingRequest{Model: c.modelID, Input: []string{text}})
	if err != nil {
		return nil, fmt.Errorf("marshalling embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var embResp embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&embResp); err != nil {
		return nil, fmt.Errorf("decoding embedding response: %w", err)
	}
	if len(embResp.Data) == 0 || len(embResp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding returned")
	}
	return embResp.Data[0].Embedding, nil
}
