// Package gate implements the GateTrigger port against the HTTP gate API.
package gate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/noisebridge/baron/internal/domain/port/driven"
)

// DefaultEndpoint is the Noisebridge gate API.
const DefaultEndpoint = "http://api.noisebridge.net/gate/"

// DefaultTimeout bounds each gate call so a hung endpoint cannot stall the keypad.
const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of a failed response is kept for the log.
const maxErrorBody = 512

// Compile-time interface satisfaction check.
var _ driven.GateTrigger = (*Client)(nil)

// Client posts the open command to the gate endpoint.
type Client struct {
	endpoint string
	command  url.Values
	http     *http.Client
}

// NewClient creates a Client that posts open=1 to endpoint.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return NewClientWithHTTPClient(&http.Client{Timeout: timeout}, endpoint)
}

// NewClientWithHTTPClient creates a Client with a custom http.Client.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		command:  url.Values{"open": {"1"}},
		http:     httpClient,
	}
}

type openResponse struct {
	Open bool `json:"open"`
}

// Open asks the gate to open. It returns nil only when the response decodes
// to {"open": true}.
func (c *Client) Open(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(c.command.Encode()))
	if err != nil {
		return fmt.Errorf("build gate request: %w: %w", driven.ErrGateUnreachable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("could not reach <%s>: %w: %w", c.endpoint, driven.ErrGateUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("HTTP %d when calling <%s>: %w: %s", resp.StatusCode, c.endpoint, driven.ErrGateStatus, strings.TrimSpace(string(body)))
	}

	var result openResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode JSON from <%s>: %w: %w", c.endpoint, driven.ErrGateUndecodable, err)
	}
	if !result.Open {
		return fmt.Errorf("<%s>: %w", c.endpoint, driven.ErrGateNotOpened)
	}
	return nil
}
