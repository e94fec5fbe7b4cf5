package retry

// Exponential backoff with full jitter.
// Retries HTTP 408/425/429/5xx responses and transient network errors.
// A 429 with Retry-After waits for the advertised delay instead of the jittered one.

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"strconv"
	"strings"
	"time"
)

type Options struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	// OnRetry is called before sleeping; attempt starts at 1.
	OnRetry func(attempt int, delay time.Duration, err error)
}

type HTTPError struct {
	StatusCode int
	Body       []byte
	RetryAfter time.Duration
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "http error: <nil>"
	}
	if len(e.Body) == 0 {
		return fmt.Sprintf("http error (%d)", e.StatusCode)
	}
	body := string(e.Body)
	if len(body) > 512 {
		body = body[:512] + "..."
	}
	return fmt.Sprintf("http error (%d): %s", e.StatusCode, body)
}

// Permanent marks an error that must not be retried even if it looks transient.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var pe *permanentError
	if errors.As(err, &pe) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var he *HTTPError
	if errors.As(err, &he) {
		switch he.StatusCode {
		case 408, 425, 429, 500, 502, 503, 504:
			return true
		default:
			return false
		}
	}
	var oe *net.OpError
	if errors.As(err, &oe) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func ParseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	layouts := []string{time.RFC1123, time.RFC1123Z, time.RFC850, time.ANSIC}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, v); err == nil {
			d := time.Until(t)
			if d < 0 {
				return 0
			}
			return d
		}
	}
	return 0
}

func clamp(d, max time.Duration) time.Duration {
	if max > 0 && d > max {
		return max
	}
	return d
}

func FullJitterSleep(attempt int, baseDelay, maxDelay time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 30 {
		attempt = 30
	}
	if baseDelay <= 0 {
		return 0
	}
	maxForAttempt := clamp(baseDelay<<attempt, maxDelay)
	if maxForAttempt <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(maxForAttempt) + 1))
}

func Do(ctx context.Context, opts Options, fn func() error) error {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = 300 * time.Millisecond
	}

	totalAttempts := 1 + opts.MaxRetries
	var lastErr error

	for attempt := 0; attempt < totalAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryable(err) || attempt == totalAttempts-1 {
			return lastErr
		}

		sleep := FullJitterSleep(attempt, opts.BaseDelay, opts.MaxDelay)

		var he *HTTPError
		if errors.As(err, &he) && he.StatusCode == 429 && he.RetryAfter > 0 {
			sleep = clamp(he.RetryAfter, opts.MaxDelay)
		}

		if opts.OnRetry != nil {
			opts.OnRetry(attempt+1, sleep, err)
		}

		t := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}

	return lastErr
}
