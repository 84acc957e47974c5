// Package retry runs upstream calls with bounded exponential backoff.
//
// The state machine per call is attempt → (retry after delay)* → give up.
// Callers supply the classifier that decides whether an error is transient,
// so HTTP status handling stays next to the client that understands it.
package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"newscast/internal/services"
)

const defaultMaxDelay = 10 * time.Second

// Classifier decides whether err is worth another attempt. A positive wait
// overrides the computed backoff (for example from a Retry-After header).
type Classifier func(err error) (retry bool, wait time.Duration)

// Policy bounds the attempts and delays for one operation.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	// Sleep replaces the real timer in tests. It must honour ctx.
	Sleep func(ctx context.Context, d time.Duration) error
}

// ExhaustedError reports that every attempt failed with a retryable error.
type ExhaustedError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: failed after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() []error {
	return []error{services.ErrTransient, e.Err}
}

// Do calls fn until it succeeds, classify rejects the error, the attempt
// ceiling is reached, or ctx ends. Exhausting retries returns *ExhaustedError,
// which matches services.ErrTransient.
func (p Policy) Do(ctx context.Context, op string, classify Classifier, fn func(ctx context.Context, attempt int) error) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		lastErr = err
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if errors.Is(err, context.Canceled) {
			return err
		}
		retry, wait := false, time.Duration(0)
		if classify != nil {
			retry, wait = classify(err)
		}
		if !retry {
			return err
		}
		if attempt == attempts {
			break
		}
		delay := p.Backoff(attempt)
		if wait > 0 {
			delay = p.capDelay(wait)
		}
		if err := p.sleep(ctx, delay); err != nil {
			return err
		}
	}
	return &ExhaustedError{Op: op, Attempts: attempts, Err: lastErr}
}

// Backoff returns the delay after the given 1-based attempt:
// base, base*2, base*4, ... capped at MaxDelay. A zero base disables waiting.
func (p Policy) Backoff(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		return 0
	}
	maxDelay := p.maxDelay()
	if attempt <= 0 {
		attempt = 1
	}
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > maxDelay/2 {
			return maxDelay
		}
		delay *= 2
	}
	return p.capDelay(delay)
}

func (p Policy) maxDelay() time.Duration {
	if p.MaxDelay > 0 {
		return p.MaxDelay
	}
	return defaultMaxDelay
}

func (p Policy) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if maxDelay := p.maxDelay(); delay > maxDelay {
		return maxDelay
	}
	return delay
}

func (p Policy) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if p.Sleep != nil {
		return p.Sleep(ctx, delay)
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// StatusError is a non-2xx HTTP response from an upstream API.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s request: http %d: %s", e.Service, e.StatusCode, strings.TrimSpace(e.Body))
}

// Transient reports whether the status code is worth retrying.
func (e *StatusError) Transient() bool {
	return e.StatusCode == http.StatusRequestTimeout ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= http.StatusInternalServerError
}

// NewStatusError builds a StatusError from a response and its drained body.
func NewStatusError(service string, resp *http.Response, body []byte) *StatusError {
	wait, _ := ParseRetryAfter(resp.Header.Get("Retry-After"))
	return &StatusError{
		Service:    service,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
		RetryAfter: wait,
	}
}

// HTTP is the classifier for JSON/HTTP APIs: 408, 429, 5xx, network timeouts,
// and errors already marked services.ErrTransient are retried.
func HTTP(err error) (bool, time.Duration) {
	if err == nil || errors.Is(err, context.Canceled) {
		return false, 0
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if statusErr.Transient() {
			return true, statusErr.RetryAfter
		}
		return false, 0
	}
	if errors.Is(err, services.ErrTransient) || errors.Is(err, services.ErrTimeout) {
		return true, 0
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true, 0
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true, 0
	}
	return false, 0
}

// ParseRetryAfter accepts delta-seconds or an HTTP date.
func ParseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}
