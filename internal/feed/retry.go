package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/couchcryptid/storm-dol-engine/internal/domain"
)

// RetryPolicy is the one retry-with-backoff component shared by all source
// adapters. Transient failures (connection errors, 5xx, 429) are retried with
// exponential backoff up to MaxRetries; anything else surfaces immediately.
type RetryPolicy struct {
	MaxRetries uint64
	BaseDelay  time.Duration
}

// Do runs op under the policy. op should return a permanentError (via
// Permanent) for failures that retrying cannot fix.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.BaseDelay
	return backoff.Retry(op, backoff.WithMaxRetries(backoff.WithContext(bo, ctx), p.MaxRetries))
}

// Permanent marks err as non-retryable.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// classifyStatus converts an HTTP response status into a retryable or
// permanent error. 429 maps to the rate-limit taxonomy so exhausted budgets
// degrade to "source unavailable" with the right cause attached.
func classifyStatus(feedName string, status int) error {
	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w (status %d)", feedName, domain.ErrRateLimited, status)
	case status >= 500:
		return fmt.Errorf("%s: server error (status %d)", feedName, status)
	default:
		return Permanent(fmt.Errorf("%s: unexpected status %d", feedName, status))
	}
}

// IsRateLimited reports whether err carries the rate-limit cause.
func IsRateLimited(err error) bool {
	return errors.Is(err, domain.ErrRateLimited)
}
