// Package api implements the snapNote backend client: usage stats, text
// extraction, and API key management. All calls carry the opaque bearer
// token issued by the sign-in helper.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/snapnote/snapnote-tui/internal/logger"
	"github.com/snapnote/snapnote-tui/internal/models"
)

const (
	usageStatsPath  = "/get-usage-stats"
	extractTextPath = "/extract-text"
	saveAPIKeyPath  = "/save-api-key"
	clearAPIKeyPath = "/clear-api-key"
)

// Client talks to the snapNote backend.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a backend client for the given base URL.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// SetTransport overrides the HTTP transport (used in tests).
func (c *Client) SetTransport(rt http.RoundTripper) {
	c.http.Transport = rt
}

// FetchUsageStats retrieves the account's quota standing.
func (c *Client) FetchUsageStats(ctx context.Context, token string) (*models.UsageStats, error) {
	if token == "" {
		return nil, fmt.Errorf("bearer token is empty")
	}

	body, err := c.postJSON(ctx, usageStatsPath, map[string]string{"token": token})
	if err != nil {
		return nil, err
	}

	var stats models.UsageStats
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, fmt.Errorf("failed to parse usage stats response: %w", err)
	}
	if stats.RemainingUses < 0 {
		stats.RemainingUses = 0
	}
	stats.FetchedAt = time.Now()

	return &stats, nil
}

// SaveAPIKey stores the raw service-account document for the account. The
// document is sent verbatim as the request body field and is not retained
// or logged here.
func (c *Client) SaveAPIKey(ctx context.Context, token, apiKey string) error {
	if token == "" {
		return fmt.Errorf("bearer token is empty")
	}
	if apiKey == "" {
		return fmt.Errorf("api key is empty")
	}

	body, err := c.postJSON(ctx, saveAPIKeyPath, map[string]string{
		"token":  token,
		"apiKey": apiKey,
	})
	if err != nil {
		return err
	}

	return parseSuccess(body, "save api key")
}

// ClearAPIKey removes the account's stored service-account document.
func (c *Client) ClearAPIKey(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("bearer token is empty")
	}

	body, err := c.postJSON(ctx, clearAPIKeyPath, map[string]string{"token": token})
	if err != nil {
		return err
	}

	return parseSuccess(body, "clear api key")
}

// postJSON sends a JSON POST and returns the response body for 200 replies.
func (c *Client) postJSON(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if err := statusError(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}

// parseSuccess checks the {"success":true} envelope used by the key endpoints.
func parseSuccess(body []byte, op string) error {
	var envelope struct {
		Success bool   `json:"success"`
		Message string `json:"message,omitempty"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", op, err)
	}
	if !envelope.Success {
		return fmt.Errorf("%s refused by backend: %s", op, envelope.Message)
	}
	return nil
}
