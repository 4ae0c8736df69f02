// ABOUTME: Tests for the Engine facade
// ABOUTME: Covers startup collection checks, disabled personalization, and stats
package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/harper/echomind/internal/embedding"
	"github.com/harper/echomind/internal/models"
	"github.com/harper/echomind/internal/storage"
	"github.com/harper/echomind/internal/storage/sqlite"
)

func newEngine(t *testing.T, dims int) *Engine {
	t.Helper()
	store, err := sqlite.OpenPhraseStoreInMemory("engine_test")
	if err != nil {
		t.Fatalf("OpenPhraseStoreInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return NewEngine(store, embedding.NewHash(dims), Options{})
}

func TestEngine_EndToEnd(t *testing.T) {
	e := newEngine(t, testDim)
	ctx := context.Background()

	if err := e.Init(ctx, storage.MetricCosine); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if !e.PersonalizationEnabled() {
		t.Fatal("personalization should be enabled")
	}

	fields := models.ContextFields{TimeOfDay: models.Afternoon, DayOfWeek: "Friday", Location: "school"}
	if _, err := e.Record(ctx, models.Selection{UserID: "u1", Category: "Activities & People", Phrase: "play outside", Context: fields}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	hint := e.Personalize(ctx, "u1", "Activities & People", fields)
	if !strings.Contains(hint, "play outside") {
		t.Errorf("Personalize() = %q, want mention of play outside", hint)
	}

	similar, err := e.Similar(ctx, "u1", "Activities & People", fields, 3)
	if err != nil || len(similar) != 1 {
		t.Errorf("Similar() = %v, %v", similar, err)
	}
	if top := e.TopPhrases(ctx, "u1", "Activities & People", 3); len(top) != 1 {
		t.Errorf("TopPhrases() = %v", top)
	}
}

func TestEngine_InitMismatchDisablesPersonalization(t *testing.T) {
	store, err := sqlite.OpenPhraseStoreInMemory("engine_test")
	if err != nil {
		t.Fatalf("OpenPhraseStoreInMemory() error = %v", err)
	}
	defer func() { _ = store.Close() }()
	ctx := context.Background()

	if err := store.EnsureCollection(ctx, 8, storage.MetricCosine); err != nil {
		t.Fatalf("EnsureCollection() error = %v", err)
	}

	e := NewEngine(store, embedding.NewHash(testDim), Options{})
	err = e.Init(ctx, storage.MetricCosine)
	if !errors.Is(err, storage.ErrSchemaMismatch) {
		t.Fatalf("Init() error = %v, want ErrSchemaMismatch", err)
	}
	if e.PersonalizationEnabled() {
		t.Error("personalization should be disabled after a failed Init")
	}
	if got := e.Personalize(ctx, "u1", "Body & Needs", models.ContextFields{}); got != "" {
		t.Errorf("Personalize() = %q, want empty", got)
	}
}

func TestEngine_InitUnavailable(t *testing.T) {
	e := NewEngine(downStore{}, embedding.NewHash(testDim), Options{})
	if err := e.Init(context.Background(), storage.MetricCosine); !errors.Is(err, storage.ErrStoreUnavailable) {
		t.Errorf("Init() error = %v, want ErrStoreUnavailable", err)
	}
	if e.PersonalizationEnabled() {
		t.Error("personalization should be disabled")
	}
}

func TestEngine_Stats(t *testing.T) {
	e := newEngine(t, testDim)
	ctx := context.Background()
	if err := e.Init(ctx, storage.MetricCosine); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	for _, sel := range []models.Selection{
		{UserID: "u1", Category: "Body & Needs", Phrase: "water"},
		{UserID: "u1", Category: "Body & Needs", Phrase: "food"},
		{UserID: "u1", Category: "Help & Safety", Phrase: "help"},
		{UserID: "u2", Category: "Body & Needs", Phrase: "water"},
	} {
		if _, err := e.Record(ctx, sel); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	stats, err := e.Stats(ctx, "u1")
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Total != 3 {
		t.Errorf("Total = %d, want 3", stats.Total)
	}
	if stats.ByCategory["Body & Needs"] != 2 || stats.ByCategory["Help & Safety"] != 1 || stats.ByCategory["Feelings & Sensory"] != 0 {
		t.Errorf("ByCategory = %v", stats.ByCategory)
	}

	all, err := e.Stats(ctx, "")
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if all.Total != 4 {
		t.Errorf("Total across users = %d, want 4", all.Total)
	}
}

// flakyStore is unavailable for the first failures EnsureCollection calls
type flakyStore struct {
	storage.PhraseStore
	failures int
}

func (f *flakyStore) EnsureCollection(ctx context.Context, dimension int, metric storage.Metric) error {
	if f.failures > 0 {
		f.failures--
		return storage.Unavailable("ensure collection", errConnRefused)
	}
	return f.PhraseStore.EnsureCollection(ctx, dimension, metric)
}

func TestEngine_InitRecovers(t *testing.T) {
	e := NewEngine(&flakyStore{PhraseStore: newStore(t), failures: 1}, embedding.NewHash(testDim), Options{})
	ctx := context.Background()

	if err := e.Init(ctx, storage.MetricCosine); err == nil {
		t.Fatal("first Init() should fail")
	}
	if e.PersonalizationEnabled() {
		t.Fatal("personalization should be disabled after the failure")
	}

	if err := e.Init(ctx, storage.MetricCosine); err != nil {
		t.Fatalf("second Init() error = %v", err)
	}
	if !e.PersonalizationEnabled() {
		t.Error("personalization should be enabled again")
	}
	if got := e.Personalize(ctx, "u1", "Help & Safety", models.ContextFields{}); got != FirstTimeHint {
		t.Errorf("Personalize() = %q, want first-time hint", got)
	}
}
