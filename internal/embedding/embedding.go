// Package embedding provides text embedding for semantic similarity
// scoring. The provider is injected explicitly wherever vectors are
// needed; there is no process-global model instance.
package embedding

import (
	"context"
	"math"

	"quotewatch/internal/model"
)

// Provider maps text to fixed-dimension L2-normalized vectors.
// Implementations must be safe for concurrent use.
type Provider interface {
	EmbedText(ctx context.Context, text string) (model.Vector, error)
	EmbedTexts(ctx context.Context, texts []string) ([]model.Vector, error)
}

// Normalize scales v to unit L2 norm in place and returns it.
// A zero vector is returned unchanged.
func Normalize(v model.Vector) model.Vector {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return v
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}
