// Package fold provides a structure prediction client. Folding runs as an
// asynchronous job: submit the sequence, poll until the job settles, then
// fetch the predicted structure as PDB bytes.
package fold

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

// Job states reported by the folding endpoint.
const (
	statusPending   = "PENDING"
	statusRunning   = "RUNNING"
	statusCompleted = "COMPLETED"
	statusFailed    = "FAILED"
)

// Client calls an ESMFold-style prediction endpoint over HTTP.
type Client struct {
	endpoint     string
	apiKey       string
	pollInterval time.Duration
	timeout      time.Duration
	client       *http.Client
	logger       *zap.Logger
}

// Config holds the folding endpoint settings.
type Config struct {
	Endpoint     string
	APIKey       string
	PollInterval time.Duration
	Timeout      time.Duration
	Logger       *zap.Logger
}

// NewClient creates a folding client.
func NewClient(cfg *Config) *Client {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 15 * time.Second
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &Client{
		endpoint:     cfg.Endpoint,
		apiKey:       cfg.APIKey,
		pollInterval: pollInterval,
		timeout:      timeout,
		client:       &http.Client{Timeout: 60 * time.Second},
		logger:       cfg.Logger,
	}
}

type submitRequest struct {
	Sequence string `json:"sequence"`
}

type submitResponse struct {
	JobID string `json:"job_id"`
}

type statusResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Fold submits a prediction job and blocks until it settles, the configured
// timeout expires, or ctx is cancelled. Returns the predicted structure as
// PDB bytes.
func (c *Client) Fold(ctx context.Context, sequence string) ([]byte, error) {
	start := time.Now()

	pdb, err := c.fold(ctx, sequence)

	duration := time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.FoldJobsTotal.WithLabelValues(status).Inc()
	metrics.FoldJobDuration.WithLabelValues(status).Observe(duration.Seconds())

	return pdb, err
}

func (c *Client) fold(ctx context.Context, sequence string) ([]byte, error) {
	jobID, err := c.submit(ctx, sequence)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Fold job submitted",
		zap.String("job_id", jobID),
		zap.Int("sequence_length", len(sequence)),
	)

	if err := c.waitForJob(ctx, jobID); err != nil {
		return nil, err
	}
	return c.fetchStructure(ctx, jobID)
}

func (c *Client) submit(ctx context.Context, sequence string) (string, error) {
	body, err := json.Marshal(submitRequest{Sequence: sequence})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	var parsed submitResponse
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint+"/fold", body, &parsed); err != nil {
		return "", err
	}
	if parsed.JobID == "" {
		return "", fmt.Errorf("empty job id in response: %w", domain.ErrFoldingProviderError)
	}
	return parsed.JobID, nil
}

// waitForJob polls the job status until it settles.
func (c *Client) waitForJob(ctx context.Context, jobID string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("fold job %s: %v: %w", jobID, ctx.Err(), domain.ErrFoldJobTimeout)
		case <-ticker.C:
			var parsed statusResponse
			if err := c.doJSON(ctx, http.MethodGet, c.endpoint+"/fold/"+jobID, nil, &parsed); err != nil {
				// The deadline can expire mid-request.
				if ctx.Err() != nil {
					return fmt.Errorf("fold job %s: %v: %w", jobID, ctx.Err(), domain.ErrFoldJobTimeout)
				}
				return err
			}

			switch parsed.Status {
			case statusCompleted:
				return nil
			case statusFailed:
				return fmt.Errorf("fold job %s failed: %s: %w", jobID, parsed.Error, domain.ErrFoldJobFailed)
			case statusPending, statusRunning:
				c.logger.Debug("Fold job in progress",
					zap.String("job_id", jobID),
					zap.String("status", parsed.Status),
				)
			default:
				return fmt.Errorf("fold job %s: unknown status %q: %w",
					jobID, parsed.Status, domain.ErrFoldingProviderError)
			}
		}
	}
}

func (c *Client) fetchStructure(ctx context.Context, jobID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/fold/"+jobID+"/structure", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch structure: %w", domain.ErrFoldingProviderError)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("folding API error %d: %s: %w",
			resp.StatusCode, string(detail), domain.ErrFoldingProviderError)
	}

	pdb, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read structure: %w", domain.ErrFoldingProviderError)
	}
	if len(pdb) == 0 {
		return nil, fmt.Errorf("empty structure for job %s: %w", jobID, domain.ErrFoldingProviderError)
	}
	return pdb, nil
}

func (c *Client) doJSON(ctx context.Context, method, url string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("folding request failed: %w", domain.ErrFoldingProviderError)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("folding API error %d: %s: %w",
			resp.StatusCode, string(detail), domain.ErrFoldingProviderError)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode folding response: %w", domain.ErrFoldingProviderError)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}
