// Package esm provides a per-residue embedding provider backed by an ESM-2
// inference endpoint. The endpoint returns one vector per token, including
// the BOS and EOS markers; downstream pooling strips those boundary rows.
package esm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/domain"
	"github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/metrics"
)

const provider = "esm"

// Embedder calls an ESM-2 inference endpoint over HTTP.
type Embedder struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   *zap.Logger
}

// Config holds the ESM endpoint settings.
type Config struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
	Logger   *zap.Logger
}

// NewEmbedder creates an ESM embedding provider.
func NewEmbedder(cfg *Config) *Embedder {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Embedder{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: timeout},
		logger:   cfg.Logger,
	}
}

type embedRequest struct {
	Sequence string `json:"sequence"`
}

// embedResponse carries a batch of per-token embedding matrices. A single
// sequence yields shape (1, L, D).
type embedResponse struct {
	Embeddings [][][]float64 `json:"embeddings"`
}

// EmbedResidues returns the per-token embedding matrix for a sequence.
func (e *Embedder) EmbedResidues(ctx context.Context, sequence string) (domain.ResidueEmbedding, error) {
	body, err := json.Marshal(embedRequest{Sequence: sequence})
	if err != nil {
		return domain.ResidueEmbedding{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.ResidueEmbedding{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	start := time.Now()

	resp, err := e.client.Do(req)

	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(provider, "error").Inc()
		return domain.ResidueEmbedding{}, fmt.Errorf("embedding request failed: %w", domain.ErrEmbeddingProviderError)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.EmbeddingRequestsTotal.WithLabelValues(provider, "error").Inc()
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.ResidueEmbedding{}, fmt.Errorf("embedding API error %d: %s: %w",
			resp.StatusCode, string(detail), domain.ErrEmbeddingProviderError)
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(provider, "error").Inc()
		return domain.ResidueEmbedding{}, fmt.Errorf("decode embedding response: %w", domain.ErrEmbeddingProviderError)
	}

	if len(parsed.Embeddings) != 1 {
		metrics.EmbeddingRequestsTotal.WithLabelValues(provider, "error").Inc()
		return domain.ResidueEmbedding{}, fmt.Errorf("expected 1 embedding matrix, got %d: %w",
			len(parsed.Embeddings), domain.ErrEmbeddingProviderError)
	}

	emb, err := domain.NewResidueEmbedding(parsed.Embeddings[0])
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(provider, "error").Inc()
		return domain.ResidueEmbedding{}, fmt.Errorf("invalid embedding matrix: %w", domain.ErrEmbeddingProviderError)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(provider, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())

	return emb, nil
}

// HealthCheck issues a minimal request to verify endpoint availability.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("endpoint unreachable: %w", err)
	}
	resp.Body.Close()
	return nil
}
