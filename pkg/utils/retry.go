package utils

import (
	"context"
	"time"
)

// FixedDelayRetry invokes fn up to attempts times, sleeping delay between
// attempts. fn returns done=true to stop early. Used for "the other racer may
// not have written yet" waits, where backing off would only delay discovery.
func FixedDelayRetry(ctx context.Context, attempts int, delay time.Duration, fn func() (bool, error)) error {
	var lastErr error
	for i := 0; i < attempts; i++ {
		done, err := fn()
		if done {
			return err
		}
		lastErr = err
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return lastErr
}

// BackoffRetry invokes fn up to attempts times with exponentially growing
// delays (initial, 2*initial, 4*initial, ...). Used for store write
// contention where spacing out retries helps.
func BackoffRetry(ctx context.Context, attempts int, initial time.Duration, fn func() error) error {
	delay := initial
	var lastErr error
	for i := 0; i < attempts; i++ {
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return lastErr
}
