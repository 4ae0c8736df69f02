// ABOUTME: Retriever maps a live situation to the most similar past situations of a user
// ABOUTME: Skips the store entirely when the embedding provider degrades
package core

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/harper/echomind/internal/embedding"
	"github.com/harper/echomind/internal/models"
	"github.com/harper/echomind/internal/storage"
)

// DefaultRetrieveLimit is the number of similar situations returned by default
const DefaultRetrieveLimit = 3

// Retriever finds past selections made in similar contexts
type Retriever struct {
	store    storage.PhraseStore
	embedder embedding.Provider
	logger   *zap.Logger
}

// NewRetriever creates a new Retriever
func NewRetriever(store storage.PhraseStore, embedder embedding.Provider, logger *zap.Logger) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{
		store:    store,
		embedder: embedder,
		logger:   logger,
	}
}

// Retrieve returns up to limit matches for userID, best first.
//
// An unavailable embedding or store yields an empty result and no error.
// Only programming errors such as a dimension mismatch are returned.
func (r *Retriever) Retrieve(ctx context.Context, userID, category string, fields models.ContextFields, limit int) ([]models.SimilarMatch, error) {
	if limit <= 0 {
		limit = DefaultRetrieveLimit
	}

	summary := models.BuildContextSummary(category, fields)

	vec, ok := r.embedder.Embed(ctx, summary)
	if !ok {
		r.logger.Debug("embedding degraded, skipping similarity search", zap.String("user_id", userID))
		return []models.SimilarMatch{}, nil
	}

	results, err := r.store.SearchByVector(ctx, vec, userID, limit)
	if err != nil {
		if errors.Is(err, storage.ErrStoreUnavailable) || errors.Is(err, storage.ErrCollectionNotFound) {
			r.logger.Warn("similarity search unavailable", zap.String("user_id", userID), zap.Error(err))
			return []models.SimilarMatch{}, nil
		}
		return nil, err
	}

	matches := make([]models.SimilarMatch, 0, len(results))
	for _, res := range results {
		matches = append(matches, models.SimilarMatch{
			Phrase:    res.Record.Phrase,
			Category:  res.Record.Category,
			TimeOfDay: res.Record.TimeOfDay,
			Score:     res.Score,
		})
	}
	return matches, nil
}
