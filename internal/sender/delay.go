package sender

import (
	"context"
	"math/rand/v2"
	"time"
)

// Sleeper blocks for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the production Sleeper
func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RandomInterval picks a whole number of seconds uniformly from
// [minSeconds, maxSeconds]. A nil rng uses the global source.
func RandomInterval(rng *rand.Rand, minSeconds, maxSeconds int) time.Duration {
	if maxSeconds <= minSeconds {
		return time.Duration(minSeconds) * time.Second
	}
	n := maxSeconds - minSeconds + 1
	var off int
	if rng != nil {
		off = rng.IntN(n)
	} else {
		off = rand.IntN(n)
	}
	return time.Duration(minSeconds+off) * time.Second
}
