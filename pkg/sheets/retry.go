package sheets

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy bounds the automatic retries applied to transient remote
// failures (rate limits and server-side errors). Delays grow exponentially
// from BaseDelay up to MaxDelay with ±20% jitter.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryPolicy suits the Sheets API's per-minute quotas.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries: 4,
	BaseDelay:  time.Second,
	MaxDelay:   16 * time.Second,
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.BaseDelay << uint(attempt)
	if d > p.MaxDelay || d <= 0 {
		d = p.MaxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(d)/5+1)) - d/10
	return d + jitter
}

// withRetry runs op, retrying transient failures until the policy or the
// context is exhausted. Permanent failures return immediately.
func withRetry(ctx context.Context, p RetryPolicy, op func() error) error {
	return withRetryIf(ctx, p, IsTransient, op)
}

// withRetryIf runs op, retrying failures that shouldRetry accepts until the
// policy or the context is exhausted. Other failures return immediately.
func withRetryIf(ctx context.Context, p RetryPolicy, shouldRetry func(error) bool, op func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = op()
		if err == nil || !shouldRetry(err) || attempt >= p.MaxRetries {
			return err
		}
		select {
		case <-time.After(p.delay(attempt)):
		case <-ctx.Done():
			return err
		}
	}
}
