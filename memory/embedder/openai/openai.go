// Package openai embeds text through any OpenAI-compatible embeddings
// endpoint using chromem-go's client.
package openai

import (
	"context"

	chromem "github.com/philippgille/chromem-go"
	"github.com/pkg/errors"
)

// Config selects the endpoint and model.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Dimensions int
}

// Embedder calls a remote embeddings API.
type Embedder struct {
	embed      chromem.EmbeddingFunc
	dimensions int
}

// New creates an embedder. BaseURL defaults to the OpenAI API.
func New(cfg Config) *Embedder {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := cfg.Model
	if model == "" {
		model = string(chromem.EmbeddingModelOpenAI3Small)
	}
	normalized := true
	return &Embedder{
		embed:      chromem.NewEmbeddingFuncOpenAICompat(baseURL, cfg.APIKey, model, &normalized),
		dimensions: cfg.Dimensions,
	}
}

// Embed returns the embedding for text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.embed(ctx, text)
	if err != nil {
		return nil, errors.Wrap(err, "embeddings request")
	}
	return vec, nil
}

// Dimensions returns the configured size, or 0 when the model decides.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}
