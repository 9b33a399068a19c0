// Package retry provides the shared retry/backoff discipline used by the
// outbox drain and the account saga.
package retry

import (
	"context"
	"time"

	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/dependencies/clock"
)

// Backoff strategies
const (
	BackoffNone   = "none"
	BackoffFixed  = "fixed"
	BackoffLinear = "linear"
)

// Policy describes how many attempts an operation gets and how long to
// wait between them. The zero value means a single attempt, no delay.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Values below 1 are treated as 1.
	MaxAttempts int
	// BaseDelay is the unit delay the strategy scales
	BaseDelay time.Duration
	// Strategy selects the backoff curve; defaults to linear
	Strategy string
}

// Delay returns the pause before the given attempt number (1-based: the
// delay after attempt n failing, before attempt n+1 runs).
func (p Policy) Delay(attempt int) time.Duration {
	switch p.Strategy {
	case BackoffNone:
		return 0
	case BackoffFixed:
		return p.BaseDelay
	default: // linear: attempt × base, no jitter
		return time.Duration(attempt) * p.BaseDelay
	}
}

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Retryable decides whether an error is worth another attempt
type Retryable func(error) bool

// Any retries every error until the policy is exhausted
func Any(error) bool { return true }

// Do runs fn up to the policy's attempt budget, sleeping the policy delay
// between attempts via the injected clock. Errors rejected by retryable
// abort immediately. Returns nil on the first success, otherwise the last
// error. The whole sequence runs to completion or exhaustion; ctx
// cancellation only shortens the sleeps.
func Do(ctx context.Context, clk clock.Clock, p Policy, retryable Retryable, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= p.attempts(); attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !retryable(err) || attempt == p.attempts() {
			return err
		}
		clk.Sleep(ctx, p.Delay(attempt))
	}
	return err
}
