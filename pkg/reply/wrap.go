package reply

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"

	"github.com/aretw0/switchboard/pkg/ports"
)

// RateLimited throttles calls to the wrapped generator.
type RateLimited struct {
	next    ports.ReplyGenerator
	limiter *rate.Limiter
}

// NewRateLimited allows rps calls per second with the given burst.
func NewRateLimited(next ports.ReplyGenerator, rps float64, burst int) *RateLimited {
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Generate waits for a token, then delegates.
func (r *RateLimited) Generate(ctx context.Context, prompt string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", Transient(fmt.Errorf("rate limit wait: %w", err))
	}
	return r.next.Generate(ctx, prompt)
}

// WithTimeout bounds every call to the wrapped generator.
func WithTimeout(next ports.ReplyGenerator, d time.Duration) ports.ReplyGenerator {
	if d <= 0 {
		return next
	}
	return Func(func(ctx context.Context, prompt string) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		out, err := next.Generate(ctx, prompt)
		if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, ErrTransient) {
			return "", Transient(err)
		}
		return out, err
	})
}

// WithRetry retries transient failures up to attempts times in total with jittered
// exponential backoff starting at initial. Other errors are returned at once.
func WithRetry(next ports.ReplyGenerator, attempts int, initial time.Duration) ports.ReplyGenerator {
	if attempts < 2 {
		return next
	}
	return Func(func(ctx context.Context, prompt string) (string, error) {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = initial
		b.MaxInterval = 30 * initial

		out, err := backoff.Retry(ctx, func() (string, error) {
			out, err := next.Generate(ctx, prompt)
			if err != nil && !errors.Is(err, ErrTransient) {
				return "", backoff.Permanent(err)
			}
			return out, err
		},
			backoff.WithBackOff(b),
			backoff.WithMaxTries(uint(attempts)),
		)
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return "", perm.Unwrap()
		}
		return out, err
	})
}
