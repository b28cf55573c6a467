package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrierSucceedsAfterTransientFailures(t *testing.T) {
	var delays []time.Duration
	r := &Retrier{
		Attempts: 4,
		Delay:    time.Second,
		Sleep: func(ctx context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		},
	}

	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 4 {
			return errors.New("connection timed out")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 4, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, delays)
}

func TestRetrierStopsOnNonRetryable(t *testing.T) {
	r := &Retrier{Attempts: 5, Delay: time.Second, Sleep: func(context.Context, time.Duration) error {
		t.Fatal("should not sleep for a non-retryable error")
		return nil
	}}

	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.New("login failed for user")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)

	var ce *ConnError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindAuthFailure, ce.Kind)
}

func TestRetrierExhaustsAttempts(t *testing.T) {
	r := &Retrier{Attempts: 3, Delay: time.Millisecond, Sleep: func(context.Context, time.Duration) error {
		return nil
	}}

	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.New("warehouse is starting")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)

	var ce *ConnError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindWarehouseUnavailable, ce.Kind)
}

func TestRetrierStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Retrier{Attempts: 5, Delay: time.Second, Sleep: func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}}

	calls := 0
	err := r.Do(ctx, func(ctx context.Context) error {
		calls++
		return errors.New("i/o timeout")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestNewRetrierClampsInputs(t *testing.T) {
	r := NewRetrier(0, 0)
	assert.Equal(t, 1, r.Attempts)
	assert.Equal(t, DefaultRetryDelay, r.Delay)
	assert.NotNil(t, r.Sleep)
}
