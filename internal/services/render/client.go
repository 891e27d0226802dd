// Package render wraps the HTTP video-render service consumed by the video
// stage. Rendering is a single bounded call per project.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"loom/internal/queue"
)

const defaultTimeout = 15 * time.Minute

// Config captures the runtime settings required to talk to the renderer.
type Config struct {
	APIKey         string
	BaseURL        string
	TimeoutSeconds int
}

// Client issues render requests.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a render client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type renderRequest struct {
	Assets []queue.RenderedAsset `json:"assets"`
	Config json.RawMessage       `json:"config,omitempty"`
}

type renderResponse struct {
	FileRef string `json:"file_ref"`
	Error   string `json:"error,omitempty"`
}

// Render submits the voice-stage assets together with an optional render
// configuration and returns the reference of the produced video file.
func (c *Client) Render(ctx context.Context, assets []queue.RenderedAsset, videoConfigJSON string) (string, error) {
	if len(assets) == 0 {
		return "", errors.New("video render: no input assets")
	}
	if c.cfg.BaseURL == "" {
		return "", errors.New("video render: base url required")
	}

	request := renderRequest{Assets: assets}
	if trimmed := strings.TrimSpace(videoConfigJSON); trimmed != "" {
		if !json.Valid([]byte(trimmed)) {
			return "", errors.New("video render: invalid video config")
		}
		request.Config = json.RawMessage(trimmed)
	}

	encoded, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("video render: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("video render: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("video render: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("video render: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("video render: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded renderResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("video render: decode response: %w", err)
	}
	if decoded.Error != "" {
		return "", fmt.Errorf("video render: api error: %s", decoded.Error)
	}
	if strings.TrimSpace(decoded.FileRef) == "" {
		return "", errors.New("video render: no file reference returned")
	}
	return decoded.FileRef, nil
}

// HealthCheck verifies the render endpoint is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.BaseURL == "" {
		return errors.New("video health: base url required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.cfg.BaseURL, nil)
	if err != nil {
		return fmt.Errorf("video health: new request: %w", err)
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("video health: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("video health: http %d", resp.StatusCode)
	}
	return nil
}
