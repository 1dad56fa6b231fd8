// Package backend talks to the conversational API that answers user requests.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"skypeconnector/pkg/config"
	"skypeconnector/pkg/digester"
)

const (
	messagePath           = "/v1/conversation/message"
	defaultRequestTimeout = 30 * time.Second
	errorBodyPreviewLimit = 240
)

// Client sends canonical requests and returns the raw answer payload.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *slog.Logger
}

// New validates backend configuration and constructs a client.
func New(cfg config.BackendConfig, log *slog.Logger) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("backend.base_url is required")
	}

	timeout := defaultRequestTimeout
	if cfg.RequestTimeoutSeconds > 0 {
		timeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		http:    &http.Client{Timeout: timeout},
		log:     log.With("component", "backend.client"),
	}, nil
}

// Send posts one canonical request on behalf of the conversation identified by sessionKey.
func (c *Client) Send(ctx context.Context, sessionKey string, request digester.CanonicalRequest) ([]byte, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("encode backend request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build backend request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-Key", sessionKey)
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send backend request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read backend response: %w", err)
	}

	c.log.Debug("Backend responded", "status", resp.StatusCode, "duration", time.Since(started), "session_key", sessionKey)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("backend returned %d: %s", resp.StatusCode, preview(payload))
	}

	return payload, nil
}

func preview(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= errorBodyPreviewLimit {
		return text
	}
	return text[:errorBodyPreviewLimit] + "..."
}
