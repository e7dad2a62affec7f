// Package embedder turns chunk text into dense vectors via a local Ollama
// instance, with a persistent cache in front of the HTTP calls.
package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Embedder computes embedding vectors for texts.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// Cache is the persistent embedding cache consulted before any HTTP call.
// *store.Store satisfies it.
type Cache interface {
	GetCachedEmbedding(model, text string) ([]float32, error)
	PutCachedEmbedding(model, text string, vector []float32) error
}

const maxRetries = 3

// OllamaClient fetches embeddings from an Ollama /api/embeddings endpoint.
type OllamaClient struct {
	endpoint    string
	model       string
	dimensions  int
	concurrency int
	client      *http.Client
	cache       Cache
}

// Option configures an OllamaClient.
type Option func(*OllamaClient)

// WithCache attaches a persistent embedding cache.
func WithCache(c Cache) Option {
	return func(o *OllamaClient) { o.cache = c }
}

// WithConcurrency bounds the number of in-flight embedding requests
// during EmbedBatch.
func WithConcurrency(n int) Option {
	return func(o *OllamaClient) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithHTTPClient replaces the HTTP client (for test injection).
func WithHTTPClient(c *http.Client) Option {
	return func(o *OllamaClient) { o.client = c }
}

// NewOllamaClient builds a client for the given endpoint and model.
func NewOllamaClient(endpoint, model string, dimensions int, opts ...Option) *OllamaClient {
	o := &OllamaClient{
		endpoint:    endpoint,
		model:       model,
		dimensions:  dimensions,
		concurrency: 4,
		client:      &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Dimensions returns the configured vector width.
func (o *OllamaClient) Dimensions() int {
	return o.dimensions
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed returns the vector for one text. Blank text short-circuits to a zero
// vector without touching the network. Transient failures retry with linear
// backoff before giving up.
func (o *OllamaClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return make([]float32, o.dimensions), nil
	}

	if o.cache != nil {
		if vec, err := o.cache.GetCachedEmbedding(o.model, text); err == nil && vec != nil {
			return vec, nil
		}
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		vec, err := o.fetch(ctx, text)
		if err == nil {
			if len(vec) != o.dimensions {
				slog.Warn("embedder.dimension_mismatch",
					"model", o.model, "want", o.dimensions, "got", len(vec))
			}
			if o.cache != nil {
				if cerr := o.cache.PutCachedEmbedding(o.model, text, vec); cerr != nil {
					slog.Warn("embedder.cache_write_failed", "err", cerr)
				}
			}
			return vec, nil
		}
		lastErr = err
		slog.Warn("embedder.attempt_failed", "attempt", attempt, "err", err)
		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
	}
	return nil, fmt.Errorf("embed after %d attempts: %w", maxRetries, lastErr)
}

func (o *OllamaClient) fetch(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(embedRequest{Model: o.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("ollama status=%d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<24))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var parsed embedResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if len(parsed.Embedding) == 0 {
		return nil, fmt.Errorf("ollama response missing embedding field")
	}
	return parsed.Embedding, nil
}

// EmbedBatch embeds all texts concurrently, bounded by the configured limit.
// Results keep positional correspondence with the input.
func (o *OllamaClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, text := range texts {
		g.Go(func() error {
			vec, err := o.Embed(ctx, text)
			if err != nil {
				return err
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}
