package mtclient

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"trade-journal-go/internal/config"
	"trade-journal-go/internal/webhook"
)

const webhookPath = "/api/integrations/metatrader/webhook"

// PushResult mirrors the webhook's success response.
type PushResult struct {
	Success          bool  `json:"success"`
	Duplicate        bool  `json:"duplicate"`
	TradeID          uint  `json:"tradeId"`
	ProcessingTimeMs int64 `json:"processingTimeMs"`
}

// PushClient replays recorded trade events against a webhook endpoint,
// standing in for the MetaTrader EA. Requests are rate limited and
// retried with backoff on 429/5xx.
type PushClient struct {
	client  *resty.Client
	token   string
	logger  *zap.Logger
	limiter *rate.Limiter
}

// NewPushClient creates a push client for the given service base URL.
func NewPushClient(baseURL, token string, cfg *config.Push, logger *zap.Logger) *PushClient {
	return &PushClient{
		client:  resty.New().SetBaseURL(baseURL),
		token:   token,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst),
	}
}

// Ping calls the webhook health endpoint.
func (c *PushClient) Ping(ctx context.Context) error {
	req := c.client.R().SetContext(ctx)
	if _, err := c.doRequest(ctx, http.MethodGet, webhookPath, req); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// PushTrade delivers one trade event. The token is stamped into both
// the header and the payload, as the EA does.
func (c *PushClient) PushTrade(ctx context.Context, ev *webhook.TradeEvent) (*PushResult, error) {
	ev.Token = c.token

	req := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader(webhook.TokenHeader, c.token).
		SetBody(ev).
		SetResult(&PushResult{})

	resp, err := c.doRequest(ctx, http.MethodPost, webhookPath, req)
	if err != nil {
		c.logger.Error("Failed to push trade event",
			zap.Error(err),
			zap.Int64("ticket", ev.Ticket),
		)
		return nil, fmt.Errorf("failed to push trade %d: %w", ev.Ticket, err)
	}

	result := resp.Result().(*PushResult)
	return result, nil
}

// doRequest executes a request with rate limiting and retry on
// throttling or server errors. Client errors (4xx other than 429) are
// final: retrying a rejected payload cannot succeed.
func (c *PushClient) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		resp, err = req.Execute(method, url)
		if err == nil && !resp.IsError() {
			return resp, nil
		}

		shouldRetry := false
		var retryAfter time.Duration

		if resp != nil && err == nil {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests {
				shouldRetry = true
				if seconds, aerr := strconv.Atoi(resp.Header().Get("Retry-After")); aerr == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 {
				shouldRetry = true
			}
		} else {
			// Network or other client-side transport errors
			shouldRetry = true
		}

		if !shouldRetry {
			return nil, fmt.Errorf("request rejected with status %s: %s", resp.Status(), resp.String())
		}

		if retryAfter == 0 {
			// Exponential backoff: 1s, 2s, 4s
			retryAfter = time.Duration(math.Pow(2, float64(i))) * time.Second
		}

		c.logger.Warn("Push failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err == nil && resp != nil {
		// Every attempt came back as a retryable status, so there is
		// no transport error to wrap; report the final status instead.
		return nil, fmt.Errorf("request failed after %d attempts: last status %s", maxRetries, resp.Status())
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}
