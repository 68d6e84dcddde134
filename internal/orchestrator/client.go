// Package orchestrator is the HTTP surface of the orchestrator service:
// opening the chat event stream, the out-of-band approval side channel,
// the abort signal, and the session directory.
package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// DefaultBaseURL is where the orchestrator sidecar listens locally.
const DefaultBaseURL = "http://127.0.0.1:4689"

const apiPrefix = "/orchestrator/api"

// Config contains connection settings for the orchestrator.
type Config struct {
	BaseURL string
	Headers map[string]string
}

// Client talks to the orchestrator. The zero timeout on the stream
// client is deliberate: an event stream stays open for the whole
// conversation and is bounded by the request context instead.
type Client struct {
	config Config
	stream *http.Client
	rpc    *http.Client

	mu   sync.Mutex
	sent map[string]struct{} // approval decisions already sent, by session/call
}

// NewClient creates a client for the given configuration. An empty
// BaseURL falls back to the local sidecar address.
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &Client{
		config: config,
		stream: &http.Client{Timeout: 0},
		rpc:    &http.Client{Timeout: 30 * time.Second},
		sent:   make(map[string]struct{}),
	}
}

// TransportError is a failed HTTP exchange with the orchestrator.
type TransportError struct {
	StatusCode int
	Body       string
}

func (e *TransportError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("orchestrator returned status %d: %s", e.StatusCode, body)
}

func (c *Client) url(path string) string {
	return c.config.BaseURL + apiPrefix + path
}

func (c *Client) applyHeaders(req *http.Request) {
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}
}

// postJSON sends a JSON request over the rpc client and decodes the
// response into out when it is non-nil.
func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path), bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.applyHeaders(req)

	resp, err := c.rpc.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &TransportError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
