// ABOUTME: Aggregator ranks a user's phrases within a category by how often they were chosen
// ABOUTME: Oversamples the scan because the store has no native aggregation
package core

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/harper/echomind/internal/storage"
)

const (
	// DefaultTopLimit is the number of frequent phrases returned by default
	DefaultTopLimit = 3
	// MinOversample is the smallest allowed scan multiplier
	MinOversample = 5
)

// Aggregator computes most-used phrases
type Aggregator struct {
	store      storage.PhraseStore
	oversample int
	logger     *zap.Logger
}

// NewAggregator creates an Aggregator; oversample below MinOversample is raised to it
func NewAggregator(store storage.PhraseStore, oversample int, logger *zap.Logger) *Aggregator {
	if oversample < MinOversample {
		oversample = MinOversample
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		store:      store,
		oversample: oversample,
		logger:     logger,
	}
}

// TopPhrases returns up to limit phrases of userID in category, most frequent
// first. Ties keep the order in which phrases were first seen. Store failures
// are logged and produce an empty result.
func (a *Aggregator) TopPhrases(ctx context.Context, userID, category string, limit int) []string {
	if limit <= 0 {
		limit = DefaultTopLimit
	}

	records, err := a.store.ScanByFilter(ctx, storage.Filter{UserID: userID, Category: category}, limit*a.oversample)
	if err != nil {
		a.logger.Warn("frequency scan failed",
			zap.String("user_id", userID),
			zap.String("category", category),
			zap.Error(err))
		return []string{}
	}

	counts := make(map[string]int)
	var order []string
	for _, rec := range records {
		if counts[rec.Phrase] == 0 {
			order = append(order, rec.Phrase)
		}
		counts[rec.Phrase]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > limit {
		order = order[:limit]
	}
	if order == nil {
		return []string{}
	}
	return order
}
