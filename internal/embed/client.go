// Package embed provides the HTTP embedding provider used by semantic
// duplicate detection, plus the request-budget governor that caps calls
// to it.
package embed

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/wardenlabs/warden/internal/config"
)

// embedRequest is the wire format sent to the embedding service
type embedRequest struct {
	Inputs []string `json:"inputs"`
}

// embedResponse is the wire format returned by the embedding service
type embedResponse struct {
	Vectors [][]float64 `json:"vectors"`
	Error   string      `json:"error,omitempty"`
}

// Client calls a remote embedding service over HTTP. The model behind the
// endpoint is a fixed, pre-trained black box; the client only moves vectors.
type Client struct {
	http     *resty.Client
	endpoint string
	governor *Governor
}

// NewClient builds an embedding client from configuration. A nil governor
// disables budget enforcement.
func NewClient(cfg *config.EmbeddingConfig, governor *Governor) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	http := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		http.SetAuthToken(cfg.APIKey)
	}

	return &Client{
		http:     http,
		endpoint: cfg.Endpoint,
		governor: governor,
	}
}

// Name identifies the provider in logs and report metadata
func (c *Client) Name() string { return "http-embedding" }

// Embed computes one vector per fragment. The call counts against the
// request budget before it is issued so a rejected call costs nothing.
func (c *Client) Embed(ctx context.Context, fragments []string) ([][]float64, error) {
	if c.endpoint == "" {
		return nil, fmt.Errorf("embedding endpoint not configured")
	}
	if c.governor != nil {
		if err := c.governor.Allow(); err != nil {
			return nil, err
		}
	}

	var out embedResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(embedRequest{Inputs: fragments}).
		SetResult(&out).
		Post(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("embedding service returned %s", resp.Status())
	}
	if out.Error != "" {
		return nil, fmt.Errorf("embedding service error: %s", out.Error)
	}
	if len(out.Vectors) != len(fragments) {
		return nil, fmt.Errorf("embedding service returned %d vectors for %d fragments",
			len(out.Vectors), len(fragments))
	}
	return out.Vectors, nil
}
