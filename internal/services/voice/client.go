// Package voice wraps the HTTP voice-synthesis service consumed by the voice
// stage. Synthesis is a single bounded call covering the whole manifest.
package voice

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

const defaultTimeout = 5 * time.Minute

// Config captures the runtime settings required to talk to the synthesizer.
type Config struct {
	APIKey         string
	BaseURL        string
	TimeoutSeconds int
}

// Client issues synthesis requests.
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

// NewClient constructs a synthesis client using the supplied configuration.
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

type synthesizeRequest struct {
	Segments []queue.VoiceSegment `json:"segments"`
}

type synthesizeResponse struct {
	Files []queue.RenderedAsset `json:"files"`
	Error string                `json:"error,omitempty"`
}

// Synthesize submits the voice manifest and returns one audio asset per
// segment. Every manifest segment must come back with a file reference.
func (c *Client) Synthesize(ctx context.Context, manifest []queue.VoiceSegment) ([]queue.RenderedAsset, error) {
	if len(manifest) == 0 {
		return nil, errors.New("voice synthesize: empty manifest")
	}
	if c.cfg.BaseURL == "" {
		return nil, errors.New("voice synthesize: base url required")
	}

	encoded, err := json.Marshal(synthesizeRequest{Segments: manifest})
	if err != nil {
		return nil, fmt.Errorf("voice synthesize: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("voice synthesize: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("voice synthesize: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("voice synthesize: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("voice synthesize: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded synthesizeResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("voice synthesize: decode response: %w", err)
	}
	if decoded.Error != "" {
		return nil, fmt.Errorf("voice synthesize: api error: %s", decoded.Error)
	}
	if len(decoded.Files) == 0 {
		return nil, errors.New("voice synthesize: no files returned")
	}

	bySegment := make(map[string]string, len(decoded.Files))
	for _, file := range decoded.Files {
		if strings.TrimSpace(file.FileRef) == "" {
			continue
		}
		bySegment[file.SegmentID] = file.FileRef
	}
	assets := make([]queue.RenderedAsset, 0, len(manifest))
	for _, segment := range manifest {
		ref, ok := bySegment[segment.ID]
		if !ok {
			return nil, fmt.Errorf("voice synthesize: segment %q missing from response", segment.ID)
		}
		assets = append(assets, queue.RenderedAsset{SegmentID: segment.ID, FileRef: ref})
	}
	return assets, nil
}

// HealthCheck verifies the synthesis endpoint is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.BaseURL == "" {
		return errors.New("voice health: base url required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.cfg.BaseURL, nil)
	if err != nil {
		return fmt.Errorf("voice health: new request: %w", err)
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("voice health: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("voice health: http %d", resp.StatusCode)
	}
	return nil
}
