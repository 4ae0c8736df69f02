// ABOUTME: Builds the store, embedding provider, and engine from configuration
// ABOUTME: Shared by every command so the CLI, HTTP API, and MCP server behave identically
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/harper/echomind/internal/config"
	"github.com/harper/echomind/internal/core"
	"github.com/harper/echomind/internal/embedding"
	"github.com/harper/echomind/internal/storage"
	"github.com/harper/echomind/internal/storage/qdrant"
	"github.com/harper/echomind/internal/storage/sqlite"
	"github.com/harper/echomind/internal/util"
)

// Backoff bounds between collection setup attempts
const (
	initBackoff    = 250 * time.Millisecond
	initMaxBackoff = 5 * time.Second
)

// App owns the long-lived components of a process
type App struct {
	Config *config.Config
	Engine *core.Engine
	Logger *zap.Logger

	// InitErr is the collection setup failure, if any. When set,
	// personalization is disabled but recording still works.
	InitErr error

	closers []func()
}

// New opens the configured store and embedding provider and prepares the
// collection, retrying up to Store.InitAttempts times while the store is
// unreachable. A collection failure is recorded in InitErr, not returned.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	embedder, closeEmbedder, err := NewEmbedder(cfg, logger)
	if err != nil {
		return nil, err
	}

	store, err := OpenStore(cfg, logger)
	if err != nil {
		closeEmbedder()
		return nil, err
	}

	engine := core.NewEngine(store, embedder, core.Options{
		RetrieveLimit: cfg.Retrieval.SimilarLimit,
		TopLimit:      cfg.Retrieval.TopLimit,
		Oversample:    cfg.Retrieval.Oversample,
		Logger:        logger,
	})

	a := &App{
		Config:  cfg,
		Engine:  engine,
		Logger:  logger,
		closers: []func(){closeEmbedder},
	}

	attempt := 0
	err = util.Retry(ctx, cfg.Store.InitAttempts, initBackoff, initMaxBackoff,
		func(err error) bool { return errors.Is(err, storage.ErrStoreUnavailable) },
		func() error {
			attempt++
			if attempt > 1 {
				logger.Info("retrying collection setup", zap.Int("attempt", attempt))
			}
			return engine.Init(ctx, cfg.Metric())
		})
	if err != nil {
		a.InitErr = err
	} else {
		logger.Debug("collection ready",
			zap.String("backend", cfg.Store.Backend),
			zap.String("collection", cfg.Store.Collection),
			zap.Int("dimension", embedder.Dimensions()))
	}

	return a, nil
}

// Close releases the store and provider resources
func (a *App) Close() error {
	for _, c := range a.closers {
		c()
	}
	return a.Engine.Close()
}

// OpenStore opens the configured phrase store backend
func OpenStore(cfg *config.Config, logger *zap.Logger) (storage.PhraseStore, error) {
	switch cfg.Store.Backend {
	case config.BackendQdrant:
		store, err := qdrant.Dial(cfg.Store.QdrantHost, cfg.Store.QdrantPort, cfg.Store.Collection, logger)
		if err != nil {
			return nil, fmt.Errorf("connecting to qdrant: %w", err)
		}
		return store, nil
	case config.BackendSQLite, "":
		store, err := sqlite.OpenPhraseStore(cfg.Store.Path, cfg.Store.Collection)
		if err != nil {
			return nil, fmt.Errorf("opening phrase store: %w", err)
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

// NewEmbedder builds the configured embedding provider. The returned
// function releases its resources.
func NewEmbedder(cfg *config.Config, logger *zap.Logger) (embedding.Provider, func(), error) {
	noop := func() {}
	dims := cfg.Embedding.Dimensions

	switch provider := cfg.EmbeddingProvider(); provider {
	case config.ProviderHash:
		return embedding.NewHash(dims), noop, nil

	case config.ProviderNone:
		if dims <= 0 {
			dims = embedding.DefaultDimensions
		}
		return embedding.NewDegraded(dims), noop, nil

	case config.ProviderOpenAI:
		p, err := embedding.NewOpenAI(embedding.OpenAIConfig{
			APIKey:            cfg.Embedding.APIKey,
			BaseURL:           cfg.Embedding.BaseURL,
			Model:             cfg.Embedding.Model,
			Dimensions:        dims,
			RequestDimensions: cfg.Embedding.RequestDimensions,
			Timeout:           cfg.Embedding.Timeout,
		}, logger)
		if err != nil {
			return nil, noop, err
		}
		if cfg.Embedding.CacheSize <= 0 {
			return p, noop, nil
		}
		cached, err := embedding.NewCached(p, cfg.Embedding.CacheSize)
		if err != nil {
			return nil, noop, err
		}
		return cached, cached.Close, nil

	default:
		return nil, noop, fmt.Errorf("unknown embedding provider %q", provider)
	}
}
