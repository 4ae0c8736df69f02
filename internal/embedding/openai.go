// ABOUTME: OpenAI-compatible embedding provider using sashabaranov/go-openai
// ABOUTME: Makes a single attempt per call and degrades on any failure
package embedding

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	// DefaultModel is the default embedding model
	DefaultModel = string(openai.SmallEmbedding3)
	// DefaultDimensions is the output size of text-embedding-3-small
	DefaultDimensions = 1536
	// DefaultTimeout bounds one embedding request
	DefaultTimeout = 30 * time.Second
)

// OpenAIConfig holds configuration for the OpenAI provider
type OpenAIConfig struct {
	APIKey  string
	BaseURL string // empty uses api.openai.com; set for compatible endpoints
	Model   string
	// Dimensions is the expected vector length. When RequestDimensions is
	// set it is also sent to the API to shorten the returned vectors.
	Dimensions        int
	RequestDimensions bool
	Timeout           time.Duration
}

// OpenAIProvider embeds text through the embeddings endpoint
type OpenAIProvider struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	requestDim bool
	timeout    time.Duration
	logger     *zap.Logger
}

// NewOpenAI creates an OpenAI embedding provider
func NewOpenAI(cfg OpenAIConfig, logger *zap.Logger) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIProvider{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		requestDim: cfg.RequestDimensions,
		timeout:    cfg.Timeout,
		logger:     logger.Named("embedding"),
	}, nil
}

// Embed requests one embedding. Errors, empty responses, and vectors of
// the wrong length are logged and reported as degradation.
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, bool) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req := openai.EmbeddingRequest{
		Input: []string{text},
		Model: p.model,
	}
	if p.requestDim {
		req.Dimensions = p.dimensions
	}

	resp, err := p.client.CreateEmbeddings(ctx, req)
	if err != nil {
		p.logger.Warn("embedding request failed", zap.String("model", string(p.model)), zap.Error(err))
		return nil, false
	}

	if len(resp.Data) == 0 {
		p.logger.Warn("embedding response was empty", zap.String("model", string(p.model)))
		return nil, false
	}

	vec := resp.Data[0].Embedding
	if len(vec) != p.dimensions {
		p.logger.Warn("embedding has unexpected dimension",
			zap.String("model", string(p.model)),
			zap.Int("got", len(vec)),
			zap.Int("want", p.dimensions))
		return nil, false
	}

	return vec, true
}

func (p *OpenAIProvider) Dimensions() int {
	return p.dimensions
}
