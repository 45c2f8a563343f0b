// Package retry provides a small reusable retry policy with exponential
// backoff, applied at component boundaries that talk to external services.
package retry

import (
	"context"
	"time"
)

// Policy retries an operation up to Attempts times, doubling the delay
// between attempts starting from BaseDelay.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
}

// Default matches the vector-store bootstrap behavior: three attempts with
// doubling backoff.
var Default = Policy{Attempts: 3, BaseDelay: time.Second}

// Do runs op until it succeeds, attempts are exhausted, or ctx is done.
// The last error is returned when all attempts fail.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := p.BaseDelay

	var err error
	for i := 0; i < attempts; i++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}
	return err
}
