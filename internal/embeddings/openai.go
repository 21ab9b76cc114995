package embeddings

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Defaults for the OpenAI embedder.
const (
	defaultModel       = "text-embedding-3-small"
	defaultTimeout     = 30 * time.Second
	defaultRateLimit   = 5 // requests per second
	defaultBurst       = 5
	defaultMaxRetries  = 3
	defaultBaseBackoff = 500 * time.Millisecond
)

// Config holds configuration for the OpenAI embedder.
type Config struct {
	// BaseURL is the base URL of the embeddings API. Empty means the
	// official OpenAI endpoint; set it for OpenAI-compatible gateways.
	BaseURL string

	// Model is the embedding model.
	// Default: "text-embedding-3-small"
	Model string

	// APIKey is the API key for the service.
	APIKey string

	// Timeout bounds each embedding request.
	// Default: 30s
	Timeout time.Duration

	// RequestsPerSecond limits outbound request rate. The embedding
	// capability is rate-limited upstream; staying under its limit is
	// cheaper than retrying 429s.
	// Default: 5
	RequestsPerSecond float64

	// Burst is the rate limiter burst size.
	// Default: 5
	Burst int

	// MaxRetries is the number of retry attempts for failed requests.
	// Default: 3
	MaxRetries int
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	if c.RequestsPerSecond == 0 {
		c.RequestsPerSecond = defaultRateLimit
	}
	if c.Burst == 0 {
		c.Burst = defaultBurst
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = defaultMaxRetries
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("%w: model required", ErrInvalidConfig)
	}
	if c.APIKey == "" {
		return fmt.Errorf("%w: API key required", ErrInvalidConfig)
	}
	return nil
}

// OpenAIEmbedder implements Embedder using the official OpenAI SDK.
//
// Requests are rate limited and retried with exponential backoff. Context
// deadlines are respected throughout, so a caller-imposed timeout surfaces
// as context.DeadlineExceeded rather than hanging on the limiter.
type OpenAIEmbedder struct {
	client     openai.Client
	model      string
	limiter    *rate.Limiter
	maxRetries int
	logger     *zap.Logger
}

// NewOpenAI creates an OpenAI embedder with the given configuration.
func NewOpenAI(cfg Config, logger *zap.Logger) (*OpenAIEmbedder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIEmbedder{
		client:     openai.NewClient(opts...),
		model:      cfg.Model,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		maxRetries: cfg.MaxRetries,
		logger:     logger,
	}, nil
}

// EmbedDocuments generates embeddings for the given texts.
func (e *OpenAIEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
	}

	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := defaultBaseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if err := e.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		vectors, err := e.doRequest(ctx, texts)
		if err == nil {
			return vectors, nil
		}
		lastErr = err

		// A cancelled or expired context will not recover on retry.
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
		}

		e.logger.Warn("embedding request failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", e.maxRetries),
			zap.Error(err))
	}

	return nil, fmt.Errorf("%w: max retries exceeded: %v", ErrEmbeddingFailed, lastErr)
}

// EmbedQuery generates an embedding for a single query.
func (e *OpenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: no embedding returned", ErrEmbeddingFailed)
	}
	return vectors[0], nil
}

// doRequest performs one embeddings API call.
func (e *OpenAIEmbedder) doRequest(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings API: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, item := range resp.Data {
		vec := make([]float32, len(item.Embedding))
		for j, v := range item.Embedding {
			vec[j] = float32(v)
		}
		vectors[i] = vec
	}

	// All vectors from one model share one dimension; anything else would
	// poison the store's dimension invariant downstream.
	for i := 1; i < len(vectors); i++ {
		if len(vectors[i]) != len(vectors[0]) {
			return nil, fmt.Errorf("inconsistent embedding dimensions: %d vs %d", len(vectors[i]), len(vectors[0]))
		}
	}

	return vectors, nil
}
