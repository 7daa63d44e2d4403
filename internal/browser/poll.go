package browser

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrTimeout is returned by WaitUntil when the condition never held
var ErrTimeout = errors.New("condition not met before timeout")

var errNotYet = errors.New("not yet")

// Condition reports whether the awaited state has been reached.
// A non-nil error aborts the wait.
type Condition func(ctx context.Context) (bool, error)

// WaitUntil polls cond every interval until it holds, the timeout elapses
// or ctx is done. The first check happens immediately. A non-positive
// timeout checks exactly once.
func WaitUntil(ctx context.Context, timeout, interval time.Duration, cond Condition) error {
	if timeout <= 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		ok, err := cond(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return ErrTimeout
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = interval
	b.MaxInterval = interval
	b.Multiplier = 1
	b.RandomizationFactor = 0
	b.MaxElapsedTime = timeout

	err := backoff.Retry(func() error {
		ok, err := cond(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ok {
			return errNotYet
		}
		return nil
	}, backoff.WithContext(b, ctx))

	if errors.Is(err, errNotYet) {
		return ErrTimeout
	}
	return err
}
