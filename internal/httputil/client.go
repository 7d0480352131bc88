// Package httputil builds the resty clients used for outbound calls so the
// market data client and the webhook sender share one retry policy.
package httputil

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/kjannette/bullionaire-backend/internal/logger"
)

type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

var DefaultRetry = RetryConfig{
	MaxAttempts: 3,
	BaseDelay:   1 * time.Second,
	MaxDelay:    10 * time.Second,
}

// Retryable reports whether a call is worth another attempt: transport
// errors, 5xx and 429.
func Retryable(resp *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if resp == nil {
		return false
	}
	status := resp.StatusCode()
	return status >= 500 || status == http.StatusTooManyRequests
}

// NewClient returns a resty client that retries Retryable calls with jittered
// exponential backoff. name tags the retry warnings.
func NewClient(name string, timeout time.Duration, cfg RetryConfig) *resty.Client {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultRetry.MaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultRetry.BaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultRetry.MaxDelay
	}
	log := logger.Named("RETRY").With("client", name)

	return resty.New().
		SetTimeout(timeout).
		SetRetryCount(cfg.MaxAttempts-1).
		SetRetryWaitTime(cfg.BaseDelay).
		SetRetryMaxWaitTime(cfg.MaxDelay).
		AddRetryCondition(Retryable).
		AddRetryHook(func(resp *resty.Response, err error) {
			attempt := 0
			if resp != nil && resp.Request != nil {
				attempt = resp.Request.Attempt
			}
			if err == nil && resp != nil {
				err = fmt.Errorf("HTTP %d", resp.StatusCode())
			}
			log.Warnw("Request failed", "attempt", attempt, "max", cfg.MaxAttempts, "error", err)
		})
}

// Check folds a transport error or a non-2xx response into one error.
func Check(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if resp.IsError() || resp.StatusCode() >= 300 {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode(), truncate(resp.String(), 512))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
