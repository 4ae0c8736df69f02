// ABOUTME: Tests for configuration-driven wiring
// ABOUTME: Covers provider selection, sqlite startup, and disabled personalization on schema mismatch
package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/harper/echomind/internal/config"
	"github.com/harper/echomind/internal/embedding"
	"github.com/harper/echomind/internal/models"
	"github.com/harper/echomind/internal/storage"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Store.Path = filepath.Join(t.TempDir(), "echomind.db")
	cfg.Embedding.Provider = config.ProviderHash
	cfg.Embedding.Dimensions = 32
	return cfg
}

func TestNewEmbedder(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		apiKey   string
		cache    int64
		wantType interface{}
		wantDims int
	}{
		{"hash", config.ProviderHash, "", 0, &embedding.HashProvider{}, 32},
		{"none", config.ProviderNone, "", 0, &embedding.DegradedProvider{}, 32},
		{"auto without key", config.ProviderAuto, "", 0, &embedding.HashProvider{}, 32},
		{"openai uncached", config.ProviderOpenAI, "k", 0, &embedding.OpenAIProvider{}, 32},
		{"openai cached", config.ProviderOpenAI, "k", 16, &embedding.CachedProvider{}, 32},
		{"auto with key", config.ProviderAuto, "k", 16, &embedding.CachedProvider{}, 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Embedding.Provider = tt.provider
			cfg.Embedding.APIKey = tt.apiKey
			cfg.Embedding.CacheSize = tt.cache

			p, closeFn, err := NewEmbedder(cfg, nil)
			if err != nil {
				t.Fatalf("NewEmbedder() error = %v", err)
			}
			defer closeFn()

			switch tt.wantType.(type) {
			case *embedding.HashProvider:
				_, ok := p.(*embedding.HashProvider)
				if !ok {
					t.Errorf("provider type = %T", p)
				}
			case *embedding.DegradedProvider:
				_, ok := p.(*embedding.DegradedProvider)
				if !ok {
					t.Errorf("provider type = %T", p)
				}
			case *embedding.OpenAIProvider:
				_, ok := p.(*embedding.OpenAIProvider)
				if !ok {
					t.Errorf("provider type = %T", p)
				}
			case *embedding.CachedProvider:
				_, ok := p.(*embedding.CachedProvider)
				if !ok {
					t.Errorf("provider type = %T", p)
				}
			}
			if p.Dimensions() != tt.wantDims {
				t.Errorf("Dimensions() = %d, want %d", p.Dimensions(), tt.wantDims)
			}
		})
	}
}

func TestNew_SQLite(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	a, err := New(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = a.Close() }()

	if a.InitErr != nil {
		t.Fatalf("InitErr = %v", a.InitErr)
	}
	if !a.Engine.PersonalizationEnabled() {
		t.Error("personalization should be enabled")
	}

	if _, err := a.Engine.Record(ctx, models.Selection{UserID: "u1", Category: "Help & Safety", Phrase: "help"}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
}

func TestNew_DimensionChangeDisablesPersonalization(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	first, err := New(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	cfg.Embedding.Dimensions = 64
	second, err := New(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("New() should not fail on schema mismatch: %v", err)
	}
	defer func() { _ = second.Close() }()

	if !errors.Is(second.InitErr, storage.ErrSchemaMismatch) {
		t.Errorf("InitErr = %v, want ErrSchemaMismatch", second.InitErr)
	}
	if second.Engine.PersonalizationEnabled() {
		t.Error("personalization should be disabled")
	}
	if got := second.Engine.Personalize(ctx, "u1", "Help & Safety", models.ContextFields{}); got != "" {
		t.Errorf("Personalize() = %q, want empty", got)
	}
}

func TestNewLogger(t *testing.T) {
	for _, tt := range []struct{ verbose, quiet bool }{{false, false}, {true, false}, {false, true}} {
		logger, err := NewLogger(tt.verbose, tt.quiet)
		if err != nil {
			t.Fatalf("NewLogger(%v, %v) error = %v", tt.verbose, tt.quiet, err)
		}
		if logger == nil {
			t.Fatal("NewLogger() returned nil")
		}
	}
}
