package mirror

import (
	"context"
	"fmt"
	"time"

	"gocloud.dev/gcerrors"
)

// RetryPolicy bounds the retry loop around a single object transfer.
// The deadline is measured from the first attempt; exhausting it fails the
// task with the last underlying error.
type RetryPolicy struct {
	Initial    time.Duration
	Max        time.Duration
	Deadline   time.Duration
	Multiplier float64
}

// DefaultRetry matches the transfer behavior the downstream tooling was
// tuned against: 1s initial backoff doubling up to 30s, 300s total.
func DefaultRetry() RetryPolicy {
	return RetryPolicy{
		Initial:    time.Second,
		Max:        30 * time.Second,
		Deadline:   300 * time.Second,
		Multiplier: 2.0,
	}
}

// do runs fn, retrying transient failures with exponential backoff until
// the policy deadline passes. Non-transient errors return immediately.
func (p RetryPolicy) do(ctx context.Context, fn func() error) error {
	start := time.Now()
	backoff := p.Initial

	for {
		err := fn()
		if err == nil || !isTransient(err) {
			return err
		}

		remaining := p.Deadline - time.Since(start)
		if remaining <= 0 {
			return fmt.Errorf("retry deadline %s exceeded: %w", p.Deadline, err)
		}

		wait := backoff
		if wait > remaining {
			wait = remaining
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		backoff = time.Duration(float64(backoff) * p.Multiplier)
		if backoff > p.Max {
			backoff = p.Max
		}
	}
}

// isTransient reports whether err is worth retrying. Definite failures like
// NotFound or PermissionDenied are not; everything the service classifies
// as overload, timeout or internal trouble is, as are errors gocloud cannot
// classify (connection resets surface as Unknown).
func isTransient(err error) bool {
	switch gcerrors.Code(err) {
	case gcerrors.Internal, gcerrors.ResourceExhausted, gcerrors.DeadlineExceeded, gcerrors.Unknown:
		return true
	}
	return false
}
