// Package ratelimit throttles and retries calls to hosted model providers.
//
// Adapters classify HTTP responses with CheckResponse; the Embedder and
// Completer decorators then pace requests with a token bucket and retry
// rate limited calls, honouring Retry-After when the provider sends it.
package ratelimit

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// HeaderRetryAfter is the retry-after header (seconds or HTTP date).
const HeaderRetryAfter = "Retry-After"

// CheckResponse maps a non-2xx provider response to a domain error.
// kind is the sentinel for the calling service, e.g. domain.ErrEmbeddingService.
// msg is the provider error text, usually the response body.
func CheckResponse(resp *http.Response, kind error, msg string) error {
	if resp == nil || (resp.StatusCode >= 200 && resp.StatusCode < 300) {
		return nil
	}
	msg = strings.TrimSpace(msg)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &domain.RateLimitError{
			RetryAfter: RetryAfter(resp.Header, time.Now()),
			Message:    msg,
		}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d: %s", domain.ErrAuth, resp.StatusCode, msg)
	default:
		return fmt.Errorf("%w: status %d: %s", kind, resp.StatusCode, msg)
	}
}

// RetryAfter parses the Retry-After header relative to now.
// It returns zero when the header is missing or unparseable.
func RetryAfter(h http.Header, now time.Time) time.Duration {
	v := strings.TrimSpace(h.Get(HeaderRetryAfter))
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}
