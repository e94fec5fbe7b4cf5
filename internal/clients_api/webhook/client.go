package webhook

// Incoming-webhook client for chat services that accept the Discord message
// shape (content plus embeds). Requests are rate limited, wrapped in a
// circuit breaker and retried with full jitter on 429/5xx.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	logging "usage-report-bot/internal/infra/log"
	"usage-report-bot/internal/infra/retry"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrNoEndpoint is returned by New when no webhook URL is configured.
var ErrNoEndpoint = errors.New("webhook url is not configured")

const (
	maxEmbedsPerMessage = 10
	maxContentLength    = 2000
	maxResponseSize     = 1 << 20
)

type Message struct {
	Username string  `json:"username,omitempty"`
	Content  string  `json:"content"`
	Embeds   []Embed `json:"embeds,omitempty"`
}

type Embed struct {
	Title       string      `json:"title,omitempty"`
	Description string      `json:"description,omitempty"`
	Color       int         `json:"color,omitempty"`
	Image       *EmbedImage `json:"image,omitempty"`
	Timestamp   string      `json:"timestamp,omitempty"` // RFC3339
}

type EmbedImage struct {
	URL string `json:"url"`
}

type Options struct {
	URL           string
	Username      string
	Timeout       time.Duration
	MaxRetries    int
	RatePerSecond float64
	BaseDelay     time.Duration
	MaxDelay      time.Duration
}

type Client struct {
	url            string
	username       string
	httpClient     *http.Client
	rateLimiter    *rate.Limiter
	circuitBreaker *gobreaker.CircuitBreaker
	retryOpts      retry.Options
}

func New(opts Options) (*Client, error) {
	if opts.URL == "" {
		return nil, ErrNoEndpoint
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 1
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = 500 * time.Millisecond
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 30 * time.Second
	}

	circuitBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "Webhook",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		// rejected payloads are our bug, not an outage
		IsSuccessful: func(err error) bool {
			return err == nil || !retry.IsRetryable(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.LogWarn("Circuit breaker state changed",
				zap.String("name", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})

	return &Client{
		url:            opts.URL,
		username:       opts.Username,
		httpClient:     &http.Client{Timeout: opts.Timeout},
		rateLimiter:    rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1),
		circuitBreaker: circuitBreaker,
		retryOpts: retry.Options{
			MaxRetries: opts.MaxRetries,
			BaseDelay:  opts.BaseDelay,
			MaxDelay:   opts.MaxDelay,
			OnRetry: func(attempt int, delay time.Duration, err error) {
				logging.LogWarn("Retrying webhook post",
					zap.Int("attempt", attempt), zap.Duration("delay", delay), zap.Error(err))
			},
		},
	}, nil
}

// Post delivers msg. Messages with more than 10 embeds are split; the text
// content goes with the first part only.
func (c *Client) Post(ctx context.Context, msg Message) error {
	if msg.Username == "" {
		msg.Username = c.username
	}
	msg.Content = truncateContent(msg.Content)

	for i, part := range splitMessage(msg) {
		if err := c.post(ctx, part); err != nil {
			return fmt.Errorf("webhook part %d: %w", i+1, err)
		}
	}
	return nil
}

func (c *Client) post(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook message: %w", err)
	}

	return retry.Do(ctx, c.retryOpts, func() error {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait failed: %w", err)
		}
		_, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return nil, c.send(ctx, payload)
		})
		return err
	})
}

func (c *Client) send(ctx context.Context, payload []byte) error {
	requestID := logging.GenerateRequestID()
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return retry.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "usage-report-bot/1.0")

	logging.LogRequest(requestID, http.MethodPost, "webhook", zap.Int("bytes", len(payload)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logging.LogResponse(requestID, 0, time.Since(start).Milliseconds(), zap.String("endpoint", "webhook"), zap.Error(err))
		return fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	logging.LogResponse(requestID, resp.StatusCode, time.Since(start).Milliseconds(), zap.String("endpoint", "webhook"))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if readErr != nil {
			body = append(body, fmt.Sprintf(" (failed to read response body: %v)", readErr)...)
		}
		if len(body) > 0 {
			logging.LogJSON(body, "Webhook error response")
		}
		return &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Body:       body,
			RetryAfter: retry.ParseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	if readErr != nil {
		logging.LogDebug("Failed to read webhook response body",
			zap.String("request_id", requestID),
			zap.Error(readErr),
		)
	}
	return nil
}

func splitMessage(msg Message) []Message {
	if len(msg.Embeds) <= maxEmbedsPerMessage {
		return []Message{msg}
	}
	var parts []Message
	for start := 0; start < len(msg.Embeds); start += maxEmbedsPerMessage {
		end := min(start+maxEmbedsPerMessage, len(msg.Embeds))
		part := Message{Username: msg.Username, Embeds: msg.Embeds[start:end]}
		if start == 0 {
			part.Content = msg.Content
		}
		parts = append(parts, part)
	}
	return parts
}

func truncateContent(s string) string {
	runes := []rune(s)
	if len(runes) <= maxContentLength {
		return s
	}
	return string(runes[:maxContentLength-1]) + "…"
}
