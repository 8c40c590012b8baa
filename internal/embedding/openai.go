package embedding

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"quotewatch/internal/model"
)

// OpenAI implements Provider against any OpenAI-compatible embeddings
// endpoint (a local Ollama server works out of the box).
type OpenAI struct {
	embedder embeddings.Embedder
	log      *slog.Logger
}

// NewOpenAI creates a provider for the given base URL and model.
// The token "none" satisfies local services that skip authentication.
func NewOpenAI(baseURL, modelID string, log *slog.Logger) (*OpenAI, error) {
	client, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(modelID),
	)
	if err != nil {
		return nil, fmt.Errorf("create embedding client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}

	return &OpenAI{embedder: embedder, log: log}, nil
}

// EmbedText embeds a single text.
func (o *OpenAI) EmbedText(ctx context.Context, text string) (model.Vector, error) {
	vecs, err := o.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("embedder returned no vectors")
	}
	return vecs[0], nil
}

// EmbedTexts embeds a batch of texts, normalizing each vector.
func (o *OpenAI) EmbedTexts(ctx context.Context, texts []string) ([]model.Vector, error) {
	raw, err := o.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		o.log.Error("embed texts", "count", len(texts), "error", err)
		return nil, fmt.Errorf("embed documents: %w", err)
	}
	out := make([]model.Vector, len(raw))
	for i, v := range raw {
		out[i] = Normalize(model.Vector(v))
	}
	return out, nil
}

var _ Provider = (*OpenAI)(nil)
