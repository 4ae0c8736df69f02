// ABOUTME: Tests for Retriever similarity lookups
// ABOUTME: Covers degradation, store outages, per-user isolation, and the record-then-retrieve flow
package core

import (
	"context"
	"errors"
	"testing"

	"github.com/harper/echomind/internal/embedding"
	"github.com/harper/echomind/internal/models"
	"github.com/harper/echomind/internal/storage"
)

func TestRetriever_RecordThenRetrieve(t *testing.T) {
	store := newStore(t)
	embedder := embedding.NewHash(testDim)
	morning := models.ContextFields{TimeOfDay: models.Morning}

	recordAll(t, NewRecorder(store, embedder, nil), "u1", "Body & Needs", morning, "I'm hungry")

	matches, err := NewRetriever(store, embedder, nil).Retrieve(context.Background(), "u1", "Body & Needs", morning, 3)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("Retrieve() returned no matches")
	}
	top := matches[0]
	if top.Phrase != "I'm hungry" {
		t.Errorf("top phrase = %q, want I'm hungry", top.Phrase)
	}
	if top.Category != "Body & Needs" || top.TimeOfDay != models.Morning {
		t.Errorf("top match = %+v", top)
	}
	if top.Score < 0.999 {
		t.Errorf("identical context score = %v, want ~1", top.Score)
	}
}

func TestRetriever_PaddedContextMatchesClean(t *testing.T) {
	store := newStore(t)
	embedder := embedding.NewHash(testDim)

	recordAll(t, NewRecorder(store, embedder, nil), "u1", "Body & Needs",
		models.ContextFields{TimeOfDay: " morning ", Location: "kitchen "}, "I'm hungry")

	matches, err := NewRetriever(store, embedder, nil).Retrieve(context.Background(), "u1", "Body & Needs",
		models.ContextFields{TimeOfDay: "morning", Location: "kitchen"}, 3)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("Retrieve() returned no matches")
	}
	if matches[0].TimeOfDay != models.Morning {
		t.Errorf("stored context not trimmed: %+v", matches[0])
	}
	if matches[0].Score < 0.999 {
		t.Errorf("score = %v, want ~1 for the same context", matches[0].Score)
	}
}

func TestRetriever_DegradedEmbeddingSkipsSearch(t *testing.T) {
	spy := &spyStore{PhraseStore: newStore(t)}
	r := NewRetriever(spy, embedding.NewDegraded(testDim), nil)

	matches, err := r.Retrieve(context.Background(), "u1", "Help & Safety", models.ContextFields{}, 3)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("len(matches) = %d, want 0", len(matches))
	}
	if spy.searches != 0 {
		t.Errorf("SearchByVector called %d times, want 0", spy.searches)
	}
}

func TestRetriever_EmbedsOnce(t *testing.T) {
	embedder := &countingEmbedder{Provider: embedding.NewHash(testDim)}
	r := NewRetriever(newStore(t), embedder, nil)

	if _, err := r.Retrieve(context.Background(), "u1", "Body & Needs", models.ContextFields{}, 3); err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if embedder.calls != 1 {
		t.Errorf("Embed called %d times, want 1", embedder.calls)
	}
}

func TestRetriever_StoreUnavailable(t *testing.T) {
	r := NewRetriever(downStore{}, embedding.NewHash(testDim), nil)

	matches, err := r.Retrieve(context.Background(), "u1", "Body & Needs", models.ContextFields{}, 3)
	if err != nil {
		t.Fatalf("Retrieve() error = %v, want nil", err)
	}
	if matches == nil || len(matches) != 0 {
		t.Errorf("matches = %#v, want empty", matches)
	}
}

func TestRetriever_DimensionMismatchPropagates(t *testing.T) {
	r := NewRetriever(newStore(t), embedding.NewHash(testDim*2), nil)

	_, err := r.Retrieve(context.Background(), "u1", "Body & Needs", models.ContextFields{}, 3)
	if !errors.Is(err, storage.ErrDimensionMismatch) {
		t.Errorf("Retrieve() error = %v, want ErrDimensionMismatch", err)
	}
}

func TestRetriever_Isolation(t *testing.T) {
	store := newStore(t)
	embedder := embedding.NewHash(testDim)
	rec := NewRecorder(store, embedder, nil)
	ctx := models.ContextFields{TimeOfDay: models.Evening, Location: "home"}

	recordAll(t, rec, "alice", "Feelings & Sensory", ctx, "too loud", "happy")
	recordAll(t, rec, "bob", "Feelings & Sensory", ctx, "tired")

	matches, err := NewRetriever(store, embedder, nil).Retrieve(context.Background(), "bob", "Feelings & Sensory", ctx, 10)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(matches) != 1 || matches[0].Phrase != "tired" {
		t.Errorf("bob's matches = %+v", matches)
	}
}

func TestRetriever_DefaultLimit(t *testing.T) {
	store := newStore(t)
	embedder := embedding.NewHash(testDim)
	recordAll(t, NewRecorder(store, embedder, nil), "u1", "Activities & People", models.ContextFields{},
		"park", "swing", "mom", "dad", "school")

	matches, err := NewRetriever(store, embedder, nil).Retrieve(context.Background(), "u1", "Activities & People", models.ContextFields{}, 0)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(matches) != DefaultRetrieveLimit {
		t.Errorf("len(matches) = %d, want %d", len(matches), DefaultRetrieveLimit)
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Score > matches[i-1].Score {
			t.Errorf("matches not in descending score order at %d", i)
		}
	}
}
