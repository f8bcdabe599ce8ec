package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/loresmith/loresmith/pkg/resilience"
)

// MaxBatchSize is the provider-side cap on texts per request.
const MaxBatchSize = 100

// ClientConfig configures the HTTP embedding client.
type ClientConfig struct {
	// BaseURL points at an OpenAI-compatible API root, e.g.
	// "https://api.openai.com/v1" or an Ollama "/v1" endpoint.
	BaseURL string
	// APIKey authorizes requests. Empty means the client is disabled and
	// every call returns ErrDisabled.
	APIKey string
	Model  string
	// Dimensions is the vector length the model produces.
	Dimensions int
	// RequestsPerSecond throttles provider calls; 0 disables throttling.
	RequestsPerSecond float64
	Timeout           time.Duration
}

// Client implements Provider against an OpenAI-compatible embeddings API.
type Client struct {
	cfg      ClientConfig
	http     *http.Client
	limiter  *resilience.Limiter
	breaker  *resilience.Breaker
	disabled bool
}

// NewClient creates an embedding client. A missing API key yields a disabled
// client rather than an error, so construction never needs credentials.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	c := &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.Timeout},
		breaker:  resilience.NewBreaker(resilience.DefaultBreakerOpts),
		disabled: cfg.APIKey == "",
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = resilience.NewLimiter(cfg.RequestsPerSecond, 1)
	}
	return c
}

func (c *Client) Model() string   { return c.cfg.Model }
func (c *Client) Dimensions() int { return c.cfg.Dimensions }

// Embed returns the vector for a single text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in input order. Inputs beyond MaxBatchSize are
// split into sequential requests; chunks are never issued in parallel so a
// large batch cannot burst past the provider's rate limits.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if c.disabled {
		return nil, ErrDisabled
	}
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += MaxBatchSize {
		end := start + MaxBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := c.request(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

type embedRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (c *Client) request(ctx context.Context, texts []string) ([][]float32, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var vectors [][]float32
	err := c.breaker.Call(ctx, func(ctx context.Context) error {
		body, err := json.Marshal(embedRequest{Input: texts, Model: c.cfg.Model})
		if err != nil {
			return fmt.Errorf("embedding: marshal request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/embeddings", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("embedding: build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("embedding: %w", err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("embedding: read response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			// Surface provider errors (auth, rate limit) to the caller as-is.
			return fmt.Errorf("embedding: provider status %d: %s", resp.StatusCode, raw)
		}

		var parsed embedResponse
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return fmt.Errorf("embedding: decode response: %w", err)
		}
		if parsed.Error != nil {
			return fmt.Errorf("embedding: provider error: %s", parsed.Error.Message)
		}
		if len(parsed.Data) != len(texts) {
			return fmt.Errorf("embedding: got %d vectors for %d texts", len(parsed.Data), len(texts))
		}

		// The API may return entries out of order; index is authoritative.
		vectors = make([][]float32, len(texts))
		for _, d := range parsed.Data {
			if d.Index < 0 || d.Index >= len(vectors) {
				return fmt.Errorf("embedding: response index %d out of range", d.Index)
			}
			vectors[d.Index] = d.Embedding
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vectors, nil
}
