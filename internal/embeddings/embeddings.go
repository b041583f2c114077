// Package embeddings turns question text into vectors through an
// OpenAI-compatible embeddings endpoint.
package embeddings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/JaimeStill/callbook/pkg/retry"
)

// Embedder produces embedding vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns one vector per input in input order. Blank inputs
	// yield nil at their position without being sent.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

var (
	ErrEmptyText     = errors.New("embedding text is empty")
	ErrEmptyResponse = errors.New("embedding response contained no vectors")
)

// Options configures the OpenAI embedder.
type Options struct {
	APIKey            string
	BaseURL           string
	Model             string
	Timeout           time.Duration
	RequestsPerSecond float64
	BatchSize         int
	Retry             retry.Config
}

// OpenAI calls the embeddings API with a rate limit, a per-call timeout and
// bounded retry.
type OpenAI struct {
	client    *openai.Client
	model     string
	timeout   time.Duration
	batchSize int
	limiter   *rate.Limiter
	retry     retry.Config
	logger    *slog.Logger
}

// NewOpenAI creates an OpenAI embedder.
func NewOpenAI(opts Options, logger *slog.Logger) *OpenAI {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	if opts.Model == "" {
		opts.Model = string(openai.SmallEmbedding3)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	logger = logger.With("system", "embeddings")
	opts.Retry.Logger = logger

	return &OpenAI{
		client:    openai.NewClientWithConfig(cfg),
		model:     opts.Model,
		timeout:   opts.Timeout,
		batchSize: opts.BatchSize,
		limiter:   rate.NewLimiter(limit, 1),
		retry:     opts.Retry,
		logger:    logger,
	}
}

func (o *OpenAI) Model() string {
	return o.model
}

func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	vectors, err := o.request(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (o *OpenAI) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	positions := make([]int, 0, len(texts))
	inputs := make([]string, 0, len(texts))
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			continue
		}
		positions = append(positions, i)
		inputs = append(inputs, t)
	}

	for start := 0; start < len(inputs); start += o.batchSize {
		end := min(start+o.batchSize, len(inputs))

		vectors, err := o.request(ctx, inputs[start:end])
		if err != nil {
			return nil, err
		}

		for j, v := range vectors {
			out[positions[start+j]] = v
		}
	}

	o.logger.Debug("batch embeddings generated", "inputs", len(texts), "embedded", len(inputs))
	return out, nil
}

// request embeds inputs in one API call and returns vectors in input order.
func (o *OpenAI) request(ctx context.Context, inputs []string) ([][]float32, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	return retry.DoWithResult(ctx, o.retry, func(ctx context.Context) ([][]float32, error) {
		ctx, cancel := context.WithTimeout(ctx, o.timeout)
		defer cancel()

		resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: inputs,
			Model: openai.EmbeddingModel(o.model),
		})
		if err != nil {
			return nil, classify(fmt.Errorf("create embeddings: %w", err))
		}

		if len(resp.Data) != len(inputs) {
			return nil, fmt.Errorf("%w: got %d for %d inputs", ErrEmptyResponse, len(resp.Data), len(inputs))
		}

		vectors := make([][]float32, len(inputs))
		for _, d := range resp.Data {
			if d.Index < 0 || d.Index >= len(inputs) {
				return nil, fmt.Errorf("embedding index %d out of range", d.Index)
			}
			vectors[d.Index] = d.Embedding
		}
		return vectors, nil
	})
}

// classify marks client errors other than rate limiting as permanent.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.HTTPStatusCode
		if code >= 400 && code < 500 && code != http.StatusTooManyRequests {
			return retry.Permanent(err)
		}
	}
	return err
}
