// ABOUTME: Shared fixtures for core tests
// ABOUTME: In-memory SQLite stores, call-counting spies, and a store that is always down
package core

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/harper/echomind/internal/embedding"
	"github.com/harper/echomind/internal/models"
	"github.com/harper/echomind/internal/storage"
	"github.com/harper/echomind/internal/storage/sqlite"
)

const testDim = 16

func newStore(t *testing.T) *sqlite.PhraseStore {
	t.Helper()
	store, err := sqlite.OpenPhraseStoreInMemory("core_test")
	if err != nil {
		t.Fatalf("OpenPhraseStoreInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.EnsureCollection(context.Background(), testDim, storage.MetricCosine); err != nil {
		t.Fatalf("EnsureCollection() error = %v", err)
	}
	return store
}

// spyStore counts calls and records the limits it was asked for
type spyStore struct {
	storage.PhraseStore
	mu         sync.Mutex
	searches   int
	scanLimits []int
}

func (s *spyStore) SearchByVector(ctx context.Context, query []float32, userID string, limit int) ([]models.ScoredRecord, error) {
	s.mu.Lock()
	s.searches++
	s.mu.Unlock()
	return s.PhraseStore.SearchByVector(ctx, query, userID, limit)
}

func (s *spyStore) ScanByFilter(ctx context.Context, filter storage.Filter, limit int) ([]models.PhraseRecord, error) {
	s.mu.Lock()
	s.scanLimits = append(s.scanLimits, limit)
	s.mu.Unlock()
	return s.PhraseStore.ScanByFilter(ctx, filter, limit)
}

// downStore fails every call as if the backend were unreachable
type downStore struct{}

var errConnRefused = errors.New("connection refused")

func (downStore) EnsureCollection(ctx context.Context, dimension int, metric storage.Metric) error {
	return storage.Unavailable("ensure collection", errConnRefused)
}

func (downStore) Insert(ctx context.Context, rec *models.PhraseRecord) (*models.PhraseRecord, error) {
	return nil, storage.Unavailable("insert", errConnRefused)
}

func (downStore) SearchByVector(ctx context.Context, query []float32, userID string, limit int) ([]models.ScoredRecord, error) {
	return nil, storage.Unavailable("search", errConnRefused)
}

func (downStore) ScanByFilter(ctx context.Context, filter storage.Filter, limit int) ([]models.PhraseRecord, error) {
	return nil, storage.Unavailable("scan", errConnRefused)
}

func (downStore) Count(ctx context.Context, filter storage.Filter) (int, error) {
	return 0, storage.Unavailable("count", errConnRefused)
}

func (downStore) Close() error { return nil }

// countingEmbedder counts Embed calls on a wrapped provider
type countingEmbedder struct {
	embedding.Provider
	mu    sync.Mutex
	calls int
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, bool) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.Provider.Embed(ctx, text)
}

func recordAll(t *testing.T, rec *Recorder, userID, category string, fields models.ContextFields, phrases ...string) {
	t.Helper()
	for _, p := range phrases {
		if _, err := rec.Record(context.Background(), models.Selection{
			UserID:   userID,
			Category: category,
			Phrase:   p,
			Context:  fields,
		}); err != nil {
			t.Fatalf("Record(%q) error = %v", p, err)
		}
	}
}
