// Package generator talks to a text-generation HTTP service that can
// propose SQL for a prompt.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/leapstack-labs/askdb/pkg/nlsql"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 1 << 20

// Defaults used when options are not given.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxLength   = 200
	DefaultTemperature = 0.3
)

// request is the body sent to the endpoint.
type request struct {
	Prompt      string  `json:"prompt"`
	MaxLength   int     `json:"max_length"`
	Temperature float64 `json:"temperature"`
}

// response is the body expected back.
type response struct {
	GeneratedText string `json:"generated_text"`
}

// HTTPGenerator implements nlsql.Generator against a JSON endpoint.
type HTTPGenerator struct {
	endpoint    string
	client      *http.Client
	timeout     time.Duration
	maxLength   int
	temperature float64
	logger      *slog.Logger
}

// Option configures an HTTPGenerator.
type Option func(*HTTPGenerator)

// WithClient replaces the HTTP client.
func WithClient(c *http.Client) Option {
	return func(g *HTTPGenerator) {
		if c != nil {
			g.client = c
		}
	}
}

// WithTimeout sets the per-request timeout. It applies to a client given
// with WithClient too, without modifying the caller's client.
func WithTimeout(d time.Duration) Option {
	return func(g *HTTPGenerator) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithMaxLength sets the max_length sent with each prompt.
func WithMaxLength(n int) Option {
	return func(g *HTTPGenerator) {
		if n > 0 {
			g.maxLength = n
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(g *HTTPGenerator) {
		g.temperature = t
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *HTTPGenerator) {
		if l != nil {
			g.logger = l
		}
	}
}

// New creates a generator posting prompts to endpoint.
func New(endpoint string, opts ...Option) *HTTPGenerator {
	g := &HTTPGenerator{
		endpoint:    endpoint,
		maxLength:   DefaultMaxLength,
		temperature: DefaultTemperature,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.client == nil {
		g.client = &http.Client{Timeout: DefaultTimeout}
	}
	if g.timeout > 0 {
		c := *g.client
		c.Timeout = g.timeout
		g.client = &c
	}
	return g
}

// Generate posts the prompt and returns the generated text.
func (g *HTTPGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(request{
		Prompt:      prompt,
		MaxLength:   g.maxLength,
		Temperature: g.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("generator request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	g.logger.Debug("generator responded",
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read generator response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("generator returned %s", resp.Status)
	}

	var out response
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("failed to decode generator response: %w", err)
	}
	return out.GeneratedText, nil
}

var _ nlsql.Generator = (*HTTPGenerator)(nil)
