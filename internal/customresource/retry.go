package customresource

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"time"
)

// Backoff is the delivery retry policy: exponential delays starting at Base,
// doubling per attempt and capped at Cap.
type Backoff struct {
	Attempts int
	Base     time.Duration
	Cap      time.Duration
	// Jitter adds up to 10% to each delay.
	Jitter bool
}

// DefaultBackoff gives CloudFormation's pre-signed URL a few seconds to
// recover before the stack operation is failed.
func DefaultBackoff() *Backoff {
	return &Backoff{
		Attempts: 5,
		Base:     200 * time.Millisecond,
		Cap:      5 * time.Second,
		Jitter:   true,
	}
}

// Retry runs op until it succeeds, fails with a permanent error, ctx ends or
// the attempts are used up. The last error is returned.
func (b *Backoff) Retry(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := max(b.Attempts, 1)

	var err error
	for attempt := 1; ; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err = op(ctx); err == nil || attempt == attempts || !IsRetryable(err) {
			return err
		}

		timer := time.NewTimer(b.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Delay returns the wait after the given failed attempt, counting from 1.
func (b *Backoff) Delay(attempt int) time.Duration {
	d := b.Base
	for i := 1; i < attempt && d < b.Cap; i++ {
		d *= 2
	}
	if b.Cap > 0 && d > b.Cap {
		d = b.Cap
	}
	if b.Jitter {
		d += time.Duration(rand.Int63n(int64(d)/10 + 1))
	}
	return d
}

// IsRetryable reports whether err is worth another delivery attempt: network
// failures and throttled or server-side HTTP statuses are.
func IsRetryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500 || statusErr.StatusCode == 429
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
