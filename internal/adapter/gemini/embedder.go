package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"chatdocs/backend/internal/model"
)

const defaultModel = "gemini-embedding-001"

// Embedder is a model backend over the Gemini embedding API. The remote
// service pools token representations, so Forward returns a single row.
type Embedder struct {
	apiKey  string
	modelID string
	client  *genai.Client
}

func NewEmbedder(apiKey, modelID string) *Embedder {
	if modelID == "" {
		modelID = defaultModel
	}
	return &Embedder{apiKey: apiKey, modelID: modelID}
}

func (e *Embedder) Model() string { return e.modelID }

// Load constructs the API client and verifies the model with a warm-up call.
func (e *Embedder) Load(ctx context.Context) (model.Info, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(e.apiKey))
	if err != nil {
		return model.Info{}, fmt.Errorf("gemini client: %w", err)
	}
	e.client = client

	vec, err := e.embed(ctx, "warmup")
	if err != nil {
		return model.Info{}, fmt.Errorf("warm-up: %w", err)
	}
	return model.Info{Model: e.modelID, Dimension: len(vec)}, nil
}

func (e *Embedder) Forward(ctx context.Context, text string) ([][]float32, error) {
	vec, err := e.embed(ctx, text)
	if err != nil {
		return nil, err
	}
	return [][]float32{vec}, nil
}

func (e *Embedder) embed(ctx context.Context, text string) ([]float32, error) {
	slog.DebugContext(ctx, "embedding content", "model", e.modelID, "length", len(text))
	em := e.client.EmbeddingModel(e.modelID)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		slog.ErrorContext(ctx, "embedding failed", "error", err)
		return nil, err
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("empty embedding returned")
	}
	return res.Embedding.Values, nil
}
