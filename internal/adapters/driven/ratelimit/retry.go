package ratelimit

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Backoff defaults.
const (
	DefaultBaseDelay = 200 * time.Millisecond
	DefaultMaxDelay  = 5 * time.Second
)

// Config holds throttling and retry settings.
type Config struct {
	// RequestsPerMinute paces outgoing calls. Zero disables pacing.
	RequestsPerMinute int

	// MaxRetries bounds retries of rate limited calls. Zero disables retries.
	MaxRetries int

	// BaseDelay is the first backoff delay, doubled per attempt (default: 200ms).
	BaseDelay time.Duration

	// MaxDelay caps the backoff delay (default: 5s).
	MaxDelay time.Duration
}

// Enabled reports whether the config paces or retries anything.
func (c Config) Enabled() bool {
	return c.RequestsPerMinute > 0 || c.MaxRetries > 0
}

// retrier paces calls and retries those failing with domain.ErrRateLimited.
// Every other error is returned immediately.
type retrier struct {
	cfg     Config
	limiter *rate.Limiter
	sleep   func(ctx context.Context, d time.Duration) error
}

func newRetrier(cfg Config) *retrier {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultMaxDelay
	}

	r := &retrier{cfg: cfg, sleep: sleepContext}
	if cfg.RequestsPerMinute > 0 {
		r.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return r
}

func (r *retrier) do(ctx context.Context, op string, call func() error) error {
	for attempt := 0; ; attempt++ {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		err := call()
		if err == nil || !errors.Is(err, domain.ErrRateLimited) || attempt >= r.cfg.MaxRetries {
			return err
		}

		delay := r.backoff(attempt)
		var rl *domain.RateLimitError
		if errors.As(err, &rl) && rl.RetryAfter > 0 {
			delay = rl.RetryAfter
		}
		logger.Warn("%s rate limited, retrying in %s (attempt %d/%d)", op, delay, attempt+1, r.cfg.MaxRetries)

		if err := r.sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// backoff doubles BaseDelay per attempt, capped at MaxDelay.
func (r *retrier) backoff(attempt int) time.Duration {
	d := r.cfg.BaseDelay
	for i := 0; i < attempt && d < r.cfg.MaxDelay; i++ {
		d *= 2
	}
	return min(d, r.cfg.MaxDelay)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
