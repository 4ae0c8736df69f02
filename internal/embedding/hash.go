// ABOUTME: Deterministic offline embedder built from a text hash
// ABOUTME: Used for local runs without an API key and throughout the tests
package embedding

import (
	"context"
	"hash/fnv"
	"math"
)

// DefaultHashDimensions matches the size of small sentence-transformer models.
const DefaultHashDimensions = 384

// HashProvider derives a unit vector from an FNV hash of the text.
// Equal texts embed identically; different texts are close to orthogonal.
type HashProvider struct {
	dimensions int
}

// NewHash creates a hash embedder; non-positive dimensions use the default
func NewHash(dimensions int) *HashProvider {
	if dimensions <= 0 {
		dimensions = DefaultHashDimensions
	}
	return &HashProvider{dimensions: dimensions}
}

func (h *HashProvider) Embed(ctx context.Context, text string) ([]float32, bool) {
	f := fnv.New64a()
	_, _ = f.Write([]byte(text))
	seed := f.Sum64()

	vec := make([]float32, h.dimensions)
	for i := range vec {
		// LCG step, mapped to [-1, 1]
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(int64(seed)) / float32(math.MaxInt64)
	}

	return normalize(vec), true
}

func (h *HashProvider) Dimensions() int {
	return h.dimensions
}

func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}

	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}
