// ABOUTME: Engine wires the recorder, retriever, aggregator, and summarizer over one store
// ABOUTME: It is the single entry point used by the CLI, HTTP API, and MCP server
package core

import (
	"context"

	"go.uber.org/zap"

	"github.com/harper/echomind/internal/embedding"
	"github.com/harper/echomind/internal/models"
	"github.com/harper/echomind/internal/storage"
)

// Options tunes retrieval sizes
type Options struct {
	RetrieveLimit int
	TopLimit      int
	Oversample    int
	Logger        *zap.Logger
}

// Engine is the personalization memory
type Engine struct {
	store        storage.PhraseStore
	embedder     embedding.Provider
	recorder     *Recorder
	retriever    *Retriever
	aggregator   *Aggregator
	summarizer   *Summarizer
	personalizer Personalizer
	enabled      bool
	logger       *zap.Logger
}

// Stats summarizes what is stored for a user
type Stats struct {
	UserID     string         `json:"user_id,omitempty"`
	Total      int            `json:"total"`
	ByCategory map[string]int `json:"by_category"`
}

// NewEngine creates an Engine with personalization enabled
func NewEngine(store storage.PhraseStore, embedder embedding.Provider, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	retriever := NewRetriever(store, embedder, logger.Named("retriever"))
	aggregator := NewAggregator(store, opts.Oversample, logger.Named("aggregator"))
	summarizer := NewSummarizer(retriever, aggregator, opts.RetrieveLimit, opts.TopLimit, logger.Named("summarizer"))

	return &Engine{
		store:        store,
		embedder:     embedder,
		recorder:     NewRecorder(store, embedder, logger.Named("recorder")),
		retriever:    retriever,
		aggregator:   aggregator,
		summarizer:   summarizer,
		personalizer: summarizer,
		enabled:      true,
		logger:       logger,
	}
}

// Init prepares the collection for the embedder's dimension. On failure
// personalization is disabled and the error is returned so the caller can
// decide whether it is fatal. A later successful Init enables it again.
func (e *Engine) Init(ctx context.Context, metric storage.Metric) error {
	if err := e.store.EnsureCollection(ctx, e.embedder.Dimensions(), metric); err != nil {
		e.logger.Error("collection unavailable, personalization disabled", zap.Error(err))
		e.DisablePersonalization()
		return err
	}
	e.personalizer = e.summarizer
	e.enabled = true
	return nil
}

// DisablePersonalization makes Personalize return "" from now on.
// Call it before the engine is shared between goroutines.
func (e *Engine) DisablePersonalization() {
	e.personalizer = Disabled{}
	e.enabled = false
}

// PersonalizationEnabled reports whether Personalize can produce hints
func (e *Engine) PersonalizationEnabled() bool {
	return e.enabled
}

// Record stores a selection
func (e *Engine) Record(ctx context.Context, sel models.Selection) (*models.PhraseRecord, error) {
	return e.recorder.Record(ctx, sel)
}

// Similar returns past situations similar to the given one
func (e *Engine) Similar(ctx context.Context, userID, category string, fields models.ContextFields, limit int) ([]models.SimilarMatch, error) {
	return e.retriever.Retrieve(ctx, userID, category, fields, limit)
}

// TopPhrases returns the user's most frequent phrases in category
func (e *Engine) TopPhrases(ctx context.Context, userID, category string, limit int) []string {
	return e.aggregator.TopPhrases(ctx, userID, category, limit)
}

// Personalize returns the personalization hint, or "" when disabled or failing
func (e *Engine) Personalize(ctx context.Context, userID, category string, fields models.ContextFields) string {
	return e.personalizer.Summarize(ctx, userID, category, fields)
}

// Stats counts stored records, optionally for a single user
func (e *Engine) Stats(ctx context.Context, userID string) (*Stats, error) {
	total, err := e.store.Count(ctx, storage.Filter{UserID: userID})
	if err != nil {
		return nil, err
	}

	stats := &Stats{UserID: userID, Total: total, ByCategory: make(map[string]int, len(models.Categories))}
	for _, c := range models.Categories {
		n, err := e.store.Count(ctx, storage.Filter{UserID: userID, Category: c.String()})
		if err != nil {
			return nil, err
		}
		stats.ByCategory[c.String()] = n
	}
	return stats, nil
}

// Dimensions returns the embedding dimension the engine writes
func (e *Engine) Dimensions() int {
	return e.embedder.Dimensions()
}

// Close closes the underlying store
func (e *Engine) Close() error {
	return e.store.Close()
}
