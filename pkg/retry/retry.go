package retry

import (
	"context"
	"time"
)

// Class tells the policy how to treat a failed attempt.
type Class int

const (
	// Fatal stops retrying and surfaces the error.
	Fatal Class = iota
	// RateLimited backs off exponentially before the next attempt.
	RateLimited
	// Transient allows a single quick retry.
	Transient
)

// Policy is a reusable retry policy for external provider calls.
// The zero value is not useful; construct with the fields set.
type Policy struct {
	// MaxAttempts bounds the total number of attempts, including the first.
	MaxAttempts int
	// BaseDelay is the backoff base for rate-limited attempts and the fixed
	// wait before a transient retry.
	BaseDelay time.Duration
	// MaxDelay caps the exponential backoff.
	MaxDelay time.Duration
	// Classify maps an attempt error to a retry class.
	Classify func(error) Class
}

// Backoff returns the wait before the next attempt after `attempt` failures
// (attempt >= 1): min(MaxDelay, BaseDelay * 2^attempt).
func (p Policy) Backoff(attempt int) time.Duration {
	delay := p.BaseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	return delay
}

// Do runs op until it succeeds, the policy is exhausted, or ctx is done.
// Rate-limited failures back off exponentially; other transient failures get
// exactly one quick retry; fatal failures return immediately.
func (p Policy) Do(ctx context.Context, op func(context.Context) error) error {
	var transientRetried bool

	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err = op(ctx)
		if err == nil {
			return nil
		}

		var wait time.Duration
		switch p.Classify(err) {
		case RateLimited:
			if attempt == p.MaxAttempts {
				return err
			}
			wait = p.Backoff(attempt)
		case Transient:
			if transientRetried {
				return err
			}
			transientRetried = true
			wait = p.BaseDelay
		default:
			return err
		}

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return err
}
