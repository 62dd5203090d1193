package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RetryPolicy decides whether and when a failed request is attempted again.
//
// HTTP failures and network failures share one attempt counter, so a request
// makes at most MaxRetries+1 calls no matter how the failures are mixed.
type RetryPolicy struct {
	MaxRetries    int
	ServerBase    time.Duration // 5xx and network failures
	RateLimitBase time.Duration // 429
	MaxDelay      time.Duration
}

// DefaultRetryPolicy returns the policy used when none is configured:
// 3 retries, 1s base for server errors, 2s base for rate limiting, 30s cap.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:    3,
		ServerBase:    time.Second,
		RateLimitBase: 2 * time.Second,
		MaxDelay:      30 * time.Second,
	}
}

func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// Delay returns how long to wait before the next attempt and whether a next
// attempt should happen at all. attempt is zero-based: the first failure is
// attempt 0. status 0 means the request never got an HTTP response.
func (p RetryPolicy) Delay(status int, attempt int, retryAfter string) (time.Duration, bool) {
	if attempt >= p.MaxRetries {
		return 0, false
	}
	if status != 0 && !isRetryableStatus(status) {
		return 0, false
	}

	var delay time.Duration
	if secs, ok := parseRetryAfter(retryAfter); ok && status != 0 {
		delay = time.Duration(secs) * time.Second
	} else if status == http.StatusTooManyRequests {
		delay = p.RateLimitBase << attempt
	} else {
		delay = p.ServerBase << attempt
	}

	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay, true
}

// parseRetryAfter only understands the delta-seconds form of the header.
func parseRetryAfter(value string) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(value)
	if err != nil || secs < 0 {
		return 0, false
	}
	return secs, true
}
