package ai

import (
	"context"
	"fmt"

	"notes-qa-platform/internal/config"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Embedder maps batches of texts to fixed-dimension vectors. Implementations
// must be deterministic for identical input text and model version.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// GeminiEmbedder produces embeddings through the Google Generative AI API.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
	dim    int
}

func NewGeminiEmbedder(ctx context.Context, cfg *config.Config) (*GeminiEmbedder, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY for embeddings")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiEmbedder{
		client: client,
		model:  cfg.GoogleEmbeddingsModel,
		dim:    cfg.VectorDim,
	}, nil
}

func (e *GeminiEmbedder) Dimension() int { return e.dim }

// EmbedBatch embeds all texts in a single batched API call. Every returned
// vector is checked against the configured dimension before it is handed to
// the caller; a mismatch means the configured model and VECTOR_DIM disagree.
func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	em := e.client.EmbeddingModel(e.model)
	batch := em.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}

	resp, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("batch embedding failed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("no embedding returned for text %d", i)
		}
		if len(emb.Values) != e.dim {
			return nil, fmt.Errorf("embedding dimension %d does not match configured dimension %d (model %s)",
				len(emb.Values), e.dim, e.model)
		}
		vectors[i] = emb.Values
	}

	return vectors, nil
}

func (e *GeminiEmbedder) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}
