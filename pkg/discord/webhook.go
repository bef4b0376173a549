package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"xwatch/pkg/config"
	errs "xwatch/pkg/errors"
	"xwatch/pkg/logger"
	"xwatch/pkg/ratelimit"
	"xwatch/pkg/retry"
)

// Client delivers webhook payloads with token-bucket pacing and
// retry-with-backoff on transient failures
type Client struct {
	httpClient  *http.Client
	limiter     ratelimit.Limiter
	maxAttempts int
	backoff     retry.BackoffStrategy
	logger      logger.Logger
}

// NewClient creates a delivery client from the Discord configuration
func NewClient(cfg *config.DiscordConfig) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.DeliveryTimeout,
		},
		limiter:     ratelimit.NewTokenBucket(cfg.RequestsPerMinute, time.Minute),
		maxAttempts: cfg.MaxRetries + 1,
		backoff:     retry.DefaultExponentialBackoff(),
		logger:      logger.GetLogger(),
	}
}

// Deliver posts the payload to the webhook URL. The call blocks for pacing,
// retries transient failures with exponential backoff, and returns the last
// error once attempts are exhausted.
func (c *Client) Deliver(ctx context.Context, webhookURL string, payload *WebhookPayload) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("delivery cancelled while pacing: %w", err)
	}

	return retry.Do(func() error {
		return c.post(ctx, webhookURL, payload)
	}, &retry.Config{
		MaxAttempts: c.maxAttempts,
		Backoff:     c.backoff,
		RetryIf:     retry.DefaultRetryIf,
		Context:     ctx,
		Logger:      c.logger,
	})
}

func (c *Client) post(ctx context.Context, webhookURL string, payload *WebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.New(errs.ErrorTypeNetwork, err.Error(), 0)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return errs.FromStatusCode(resp.StatusCode, "webhook delivery failed")
	}

	return nil
}
