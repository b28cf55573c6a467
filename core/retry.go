package core

import (
	"context"
	"time"
)

// Sleeper lets tests observe and skip the backoff delays.
type Sleeper func(ctx context.Context, d time.Duration) error

func defaultSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retrier runs an operation up to Attempts times with exponential backoff.
type Retrier struct {
	Attempts int
	Delay    time.Duration
	Sleep    Sleeper
}

func NewRetrier(attempts int, delay time.Duration) *Retrier {
	if attempts < 1 {
		attempts = 1
	}
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	return &Retrier{Attempts: attempts, Delay: delay, Sleep: defaultSleep}
}

// Do runs fn until it succeeds, a non-retryable error is returned, or the
// attempts are exhausted. The delay before attempt n+1 is Delay*2^(n-1).
// The last error is returned as a classified ConnError.
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	sleep := r.Sleep
	if sleep == nil {
		sleep = defaultSleep
	}

	var last *ConnError
	delay := r.Delay
	for attempt := 1; attempt <= r.Attempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		last = Classify(err)
		if !last.Kind.Retryable() || attempt == r.Attempts {
			return last
		}
		if err := sleep(ctx, delay); err != nil {
			return last
		}
		delay *= 2
	}
	return last
}
