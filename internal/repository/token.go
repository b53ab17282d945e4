package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/lakeshore-labs/compscout/internal/config"
)

// tokenSource fetches and caches a client-credentials bearer token for the
// MLS catalog. The cached token is refreshed under a mutex shortly before
// it expires.
type tokenSource struct {
	cfg        *config.CatalogConfig
	httpClient *http.Client
	logger     *zap.Logger

	mu     sync.Mutex
	token  string
	expiry time.Time
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func newTokenSource(cfg *config.CatalogConfig, logger *zap.Logger) *tokenSource {
	return &tokenSource{
		cfg:    cfg,
		logger: logger,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

// Token returns a valid bearer token, fetching a fresh one when the cached
// token is missing or about to expire.
func (t *tokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token != "" && time.Now().Before(t.expiry.Add(-time.Minute)) {
		return t.token, nil
	}

	var resp tokenResponse
	fetch := func() error {
		r, err := t.fetch(ctx)
		if err != nil {
			return err
		}
		resp = *r
		return nil
	}

	// One retry on transient failure, then give up.
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 1), ctx)
	if err := backoff.Retry(fetch, policy); err != nil {
		return "", fmt.Errorf("%w: token fetch failed", ErrUpstream)
	}

	t.token = resp.AccessToken
	t.expiry = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	t.logger.Debug("refreshed catalog token", zap.Int("expires_in", resp.ExpiresIn))
	return t.token, nil
}

func (t *tokenSource) fetch(ctx context.Context) (*tokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", t.cfg.ClientID)
	form.Set("client_secret", t.cfg.ClientSecret)
	form.Set("scope", t.cfg.Scope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// Status only: the token URL and credentials never reach logs.
		t.logger.Warn("token endpoint returned non-success status", zap.Int("status", resp.StatusCode))
		return nil, backoff.Permanent(fmt.Errorf("token endpoint status %d", resp.StatusCode))
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to parse token response: %w", err))
	}
	if tr.AccessToken == "" {
		return nil, backoff.Permanent(fmt.Errorf("token response missing access_token"))
	}
	return &tr, nil
}
