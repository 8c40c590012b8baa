package embedding

import (
	"context"
	"hash/fnv"
	"math/rand"

	"quotewatch/internal/model"
)

// Fake is a deterministic in-process Provider for tests and credential-free
// runs. Vectors are seeded from a text hash, so identical texts embed
// identically and different texts are almost surely dissimilar.
type Fake struct {
	Dim int

	// EmbedTextFunc overrides EmbedText when set.
	EmbedTextFunc func(ctx context.Context, text string) (model.Vector, error)
}

// NewFake creates a fake provider with the given dimensionality.
func NewFake(dim int) *Fake {
	return &Fake{Dim: dim}
}

// EmbedText returns a deterministic unit vector derived from the text.
func (f *Fake) EmbedText(ctx context.Context, text string) (model.Vector, error) {
	if f.EmbedTextFunc != nil {
		return f.EmbedTextFunc(ctx, text)
	}
	return f.vectorFor(text), nil
}

// EmbedTexts embeds each text independently.
func (f *Fake) EmbedTexts(ctx context.Context, texts []string) ([]model.Vector, error) {
	out := make([]model.Vector, len(texts))
	for i, t := range texts {
		v, err := f.EmbedText(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *Fake) vectorFor(text string) model.Vector {
	dim := f.Dim
	if dim <= 0 {
		dim = 64
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))
	v := make(model.Vector, dim)
	for i := range v {
		v[i] = float32(rng.NormFloat64())
	}
	return Normalize(v)
}

var _ Provider = (*Fake)(nil)
