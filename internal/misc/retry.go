package misc

import (
	"context"
	"time"
)

// Backoff lists the pauses between attempts; len(b)+1 is the attempt budget.
type Backoff []time.Duration

// DefaultBackoff is shared by the ingest publisher, the repositories and the audit client.
var DefaultBackoff = Backoff{1 * time.Second, 3 * time.Second, 5 * time.Second}

// Retry runs op until it succeeds, fails permanently, or delays run out.
func Retry(ctx context.Context, delays Backoff, isRetryable func(error) bool, op func() error) error {
	return RetryNotify(ctx, delays, isRetryable, op, nil)
}

// RetryNotify is Retry with a callback invoked before every backoff sleep.
// Context errors take precedence over the error returned by op.
func RetryNotify(ctx context.Context, delays Backoff, isRetryable func(error) bool, op func() error, notify func(attempt int, err error, wait time.Duration)) error {
	for attempt := 0; ; attempt++ {
		err := op()
		switch {
		case err == nil:
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		case attempt >= len(delays) || !isRetryable(err):
			return err
		}
		if notify != nil {
			notify(attempt+1, err, delays[attempt])
		}
		if err := sleep(ctx, delays[attempt]); err != nil {
			return err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
