// ABOUTME: Recorder persists a phrase selection with its embedded situational context
// ABOUTME: Falls back to a zero vector when the embedding provider degrades
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/harper/echomind/internal/embedding"
	"github.com/harper/echomind/internal/models"
	"github.com/harper/echomind/internal/storage"
)

// ErrInvalidSelection is returned for selections missing a user, phrase, or
// known category.
var ErrInvalidSelection = errors.New("invalid selection")

// Recorder writes selections to the phrase store
type Recorder struct {
	store    storage.PhraseStore
	embedder embedding.Provider
	logger   *zap.Logger
	now      func() time.Time
}

// NewRecorder creates a new Recorder
func NewRecorder(store storage.PhraseStore, embedder embedding.Provider, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		store:    store,
		embedder: embedder,
		logger:   logger,
		now:      time.Now,
	}
}

// Record validates sel, embeds its context once, and inserts it.
// Store errors are returned unchanged.
func (r *Recorder) Record(ctx context.Context, sel models.Selection) (*models.PhraseRecord, error) {
	userID := strings.TrimSpace(sel.UserID)
	phrase := strings.TrimSpace(sel.Phrase)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidSelection)
	}
	if phrase == "" {
		return nil, fmt.Errorf("%w: phrase is required", ErrInvalidSelection)
	}
	category, err := models.ParseCategory(sel.Category)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSelection, err)
	}

	fields := sel.Context.WithDefaults()
	summary := models.BuildContextSummary(category.String(), fields)

	vec, ok := r.embedder.Embed(ctx, summary)
	if !ok {
		r.logger.Info("embedding degraded, storing without similarity data",
			zap.String("user_id", userID),
			zap.String("category", category.String()))
		vec = storage.ZeroVector(r.embedder.Dimensions())
	}

	captured := sel.CapturedAt
	if captured.IsZero() {
		captured = r.now()
	}

	rec, err := r.store.Insert(ctx, &models.PhraseRecord{
		UserID:         userID,
		Category:       category.String(),
		Phrase:         phrase,
		TimeOfDay:      fields.TimeOfDay,
		DayOfWeek:      fields.DayOfWeek,
		Location:       fields.Location,
		ContextSummary: summary,
		Embedding:      vec,
		Timestamp:      captured.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store phrase: %w", err)
	}

	r.logger.Debug("recorded phrase",
		zap.String("user_id", rec.UserID),
		zap.Int64("seq", rec.Seq),
		zap.Bool("degraded", rec.Degraded))

	return rec, nil
}
