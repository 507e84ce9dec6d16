// Package mail delivers transactional email through the MailerSend API.
package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/notification"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/config"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxErrorBody caps how much of a failed response is read into the error
const maxErrorBody = 64 * 1024

var (
	// ErrNotConfigured is returned when no API key is set
	ErrNotConfigured = errors.New("mailersend: api key not configured")
	// ErrRejected is returned when MailerSend answers with a non-2xx status
	ErrRejected = errors.New("mailersend: message rejected")
)

type address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type attachment struct {
	Content     string `json:"content"`
	Filename    string `json:"filename"`
	Disposition string `json:"disposition"`
}

type emailRequest struct {
	From        address      `json:"from"`
	To          []address    `json:"to"`
	Subject     string       `json:"subject"`
	HTML        string       `json:"html,omitempty"`
	Text        string       `json:"text,omitempty"`
	Attachments []attachment `json:"attachments,omitempty"`
}

type errorResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// Client sends one email per call to POST {base}/email
type Client struct {
	cfg        config.MailConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient overrides the HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a MailerSend client. A zero rate limit disables pacing.
func NewClient(cfg config.MailConfig, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send implements notification.Sender and returns the X-Message-Id header
func (c *Client) Send(ctx context.Context, email notification.Email) (string, error) {
	if c.cfg.APIKey == "" {
		return "", ErrNotConfigured
	}
	if err := email.Validate(); err != nil {
		return "", err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("mailersend: rate limiter: %w", err)
	}

	payload := emailRequest{
		From:    address{Email: c.cfg.FromEmail, Name: c.cfg.FromName},
		To:      []address{{Email: email.To, Name: email.ToName}},
		Subject: email.Subject,
		HTML:    email.HTML,
		Text:    email.Text,
	}
	for _, a := range email.Attachments {
		payload.Attachments = append(payload.Attachments, attachment{
			Content:     base64.StdEncoding.EncodeToString(a.Content),
			Filename:    a.Filename,
			Disposition: "attachment",
		})
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("mailersend: encode request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/email"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("mailersend: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("mailersend: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", c.decodeError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	messageID := resp.Header.Get("X-Message-Id")
	c.logger.Debug("Email accepted",
		zap.String("message_id", messageID),
		zap.Int("attachments", len(payload.Attachments)),
	)
	return messageID, nil
}

func (c *Client) decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var er errorResponse
	if json.Unmarshal(raw, &er) == nil && er.Message != "" {
		return fmt.Errorf("%w: HTTP %d: %s", ErrRejected, resp.StatusCode, er.Message)
	}
	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return fmt.Errorf("%w: HTTP %d: %s", ErrRejected, resp.StatusCode, msg)
}
