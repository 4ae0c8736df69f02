// ABOUTME: Embedding provider contract for turning context summaries into vectors
// ABOUTME: A provider reports degradation instead of returning an error
package embedding

import "context"

// Provider embeds text into a fixed-length vector.
//
// Embed returns ok=false when no vector could be produced (quota, network,
// malformed response). Callers treat that as degradation and carry on
// without similarity data; it is never a hard failure.
type Provider interface {
	Embed(ctx context.Context, text string) (vec []float32, ok bool)
	Dimensions() int
}

// DegradedProvider never produces a vector. It stands in when embeddings
// are disabled so that recording and frequency ranking keep working.
type DegradedProvider struct {
	dimensions int
}

// NewDegraded returns a provider that always degrades
func NewDegraded(dimensions int) *DegradedProvider {
	return &DegradedProvider{dimensions: dimensions}
}

func (p *DegradedProvider) Embed(ctx context.Context, text string) ([]float32, bool) {
	return nil, false
}

func (p *DegradedProvider) Dimensions() int {
	return p.dimensions
}
