// ABOUTME: Summarizer turns similar situations and frequent phrases into one prompt hint
// ABOUTME: Never fails; the worst outcome is an empty string and no personalization
package core

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/harper/echomind/internal/models"
)

// FirstTimeHint is returned when a user has no history for the situation.
const FirstTimeHint = "This is the child's first time in this category or context. Suggest clear, simple phrases based on the category."

// Personalizer produces the personalization hint for a suggestion request
type Personalizer interface {
	Summarize(ctx context.Context, userID, category string, fields models.ContextFields) string
}

// Summarizer combines a Retriever and an Aggregator
type Summarizer struct {
	retriever     *Retriever
	aggregator    *Aggregator
	retrieveLimit int
	topLimit      int
	logger        *zap.Logger
}

// NewSummarizer creates a Summarizer; non-positive limits use the defaults
func NewSummarizer(retriever *Retriever, aggregator *Aggregator, retrieveLimit, topLimit int, logger *zap.Logger) *Summarizer {
	if retrieveLimit <= 0 {
		retrieveLimit = DefaultRetrieveLimit
	}
	if topLimit <= 0 {
		topLimit = DefaultTopLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Summarizer{
		retriever:     retriever,
		aggregator:    aggregator,
		retrieveLimit: retrieveLimit,
		topLimit:      topLimit,
		logger:        logger,
	}
}

// Summarize builds the hint for userID in category. Similarity and frequency
// lookups run concurrently and neither blocks the other. A retrieval error
// counts as no similar matches; a panic in either lookup yields "".
func (s *Summarizer) Summarize(ctx context.Context, userID, category string, fields models.ContextFields) string {
	var (
		wg       sync.WaitGroup
		similar  []models.SimilarMatch
		frequent []string
		mu       sync.Mutex
		failed   bool
	)

	fail := func(what string, cause interface{}) {
		s.logger.Error("personalization failed",
			zap.String("stage", what),
			zap.String("user_id", userID),
			zap.Any("cause", cause))
		mu.Lock()
		failed = true
		mu.Unlock()
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				fail("retrieve", r)
			}
		}()
		matches, err := s.retriever.Retrieve(ctx, userID, category, fields, s.retrieveLimit)
		if err != nil {
			s.logger.Warn("similarity lookup failed, using frequency only",
				zap.String("user_id", userID),
				zap.Error(err))
			return
		}
		similar = matches
	}()
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				fail("aggregate", r)
			}
		}()
		frequent = s.aggregator.TopPhrases(ctx, userID, category, s.topLimit)
	}()
	wg.Wait()

	if failed {
		return ""
	}

	return composeHint(similar, frequent)
}

func composeHint(similar []models.SimilarMatch, frequent []string) string {
	var parts []string

	if len(similar) > 0 {
		seen := make(map[string]bool, len(similar))
		var phrases []string
		for _, m := range similar {
			if !seen[m.Phrase] {
				seen[m.Phrase] = true
				phrases = append(phrases, m.Phrase)
			}
		}
		parts = append(parts, fmt.Sprintf("In similar situations, this child has said: %s.", strings.Join(phrases, ", ")))
	}

	if len(frequent) > 0 {
		parts = append(parts, fmt.Sprintf("This child frequently uses these phrases in this category: %s.", strings.Join(frequent, ", ")))
	}

	if len(parts) == 0 {
		return FirstTimeHint
	}
	return strings.Join(parts, " ")
}

// Disabled is the Personalizer used when the collection could not be
// prepared at startup. It always returns "".
type Disabled struct{}

func (Disabled) Summarize(ctx context.Context, userID, category string, fields models.ContextFields) string {
	return ""
}

// PromptLine formats a hint as the labeled context line spliced into the
// phrase generator's prompt. An empty hint produces no line.
func PromptLine(hint string) string {
	if hint == "" {
		return ""
	}
	return "Personalization: " + hint
}
