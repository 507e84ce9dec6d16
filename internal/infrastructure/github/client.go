// Package github is the HTTP adapter for the GitHub REST and GraphQL APIs.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/integration"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/config"
	"go.uber.org/zap"
)

// maxResponseSize is the maximum upstream body passed through (10MB)
const maxResponseSize = 10 * 1024 * 1024

const apiVersion = "2022-11-28"

// Client implements integration.GitHubGateway with a static bearer token
type Client struct {
	cfg        config.GitHubConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient overrides the HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a GitHub client
func NewClient(cfg config.GitHubConfig, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs a REST GET
func (c *Client) Get(ctx context.Context, r integration.RESTRequest) (*integration.UpstreamResponse, error) {
	endpoint := strings.TrimRight(c.cfg.APIURL, "/") + "/" + strings.TrimLeft(r.Path, "/")
	if len(r.Query) > 0 {
		endpoint += "?" + r.Query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("github: failed to create request: %w", err)
	}
	return c.do(req)
}

// GraphQL posts a query or mutation document
func (c *Client) GraphQL(ctx context.Context, r integration.GraphQLRequest) (*integration.UpstreamResponse, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("github: encode graphql request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.GraphQLURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("github: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*integration.UpstreamResponse, error) {
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrGitHubFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", integration.ErrGitHubFailed, err)
	}

	c.logger.Debug("GitHub request",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("null")
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: non-JSON response (HTTP %d)", integration.ErrGitHubFailed, resp.StatusCode)
	}
	return &integration.UpstreamResponse{StatusCode: resp.StatusCode, Body: body}, nil
}
