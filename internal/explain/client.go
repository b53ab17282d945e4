// Package explain is the HTTP client for the explanation/RAG collaborator.
// Its calls are never essential: a failure here degrades the response's
// reasoning trail instead of failing the request.
package explain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/lakeshore-labs/compscout/internal/config"
	"github.com/lakeshore-labs/compscout/internal/model"
)

// Client talks to the explanation service.
type Client struct {
	cfg        *config.ExplainConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates an explanation-service client.
func NewClient(cfg *config.ExplainConfig, logger *zap.Logger) *Client {
	return &Client{
		cfg:    cfg,
		logger: logger,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

// Enabled reports whether the collaborator is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.cfg.Enabled
}

// ExplainRequest is the body of POST /ai/explain.
type ExplainRequest struct {
	Query          string          `json:"query"`
	Role           string          `json:"role,omitempty"`
	Listings       []model.Listing `json:"listings"`
	RetrievalNotes []string        `json:"retrieval_notes,omitempty"`
	Attempt        string          `json:"retrieval_attempt,omitempty"`
}

// ExplainResponse is the explanation service's answer.
type ExplainResponse struct {
	Answer    string          `json:"answer"`
	Reasoning []string        `json:"reasoning"`
	Listings  []model.Listing `json:"listings"`
}

type chunkSearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
	Kind  string `json:"kind,omitempty"`
}

type chunkSearchResponse struct {
	Chunks []string `json:"chunks"`
}

// Explain asks the collaborator to turn structured results into prose.
func (c *Client) Explain(ctx context.Context, req *ExplainRequest) (*ExplainResponse, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("explain service not configured")
	}
	var out ExplainResponse
	if err := c.post(ctx, "/ai/explain", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchChunks fetches short methodology excerpts for the reasoning trail.
func (c *Client) SearchChunks(ctx context.Context, query string, topK int, kind string) ([]string, error) {
	if !c.Enabled() {
		return nil, nil
	}
	var out chunkSearchResponse
	if err := c.post(ctx, "/cma/search", &chunkSearchRequest{Query: query, TopK: topK, Kind: kind}, &out); err != nil {
		return nil, err
	}
	return out.Chunks, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("explain request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("explain service returned non-success status",
			zap.String("path", path), zap.Int("status", resp.StatusCode))
		return fmt.Errorf("explain service status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
