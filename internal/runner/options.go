package runner

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Requester executes a single request attempt with the given prompt.
// Implementations must record their own outcome on every code path and return
// an error only as a classification signal; the runner never aborts on it.
type Requester interface {
	Do(ctx context.Context, prompt string) error
}

// Prompts selects the prompt for each attempt. PickAt is used for count-based
// runs, PickRandom for duration-based runs. Both must be safe for concurrent
// use.
type Prompts interface {
	PickAt(i int) string
	PickRandom() string
}

// Options configure the Runner. Exactly one of TotalRequests and Duration
// must be set; that choice is the run's stop policy.
type Options struct {
	Concurrency   int           // max simultaneous in-flight attempts
	TotalRequests int           // count mode: total attempts to issue
	Duration      time.Duration // duration mode: wall-clock run length
	RatePerSecond int           // request pacing (0 means unlimited)
	Prompts       Prompts
	Requester     Requester

	// LimiterFactory allows injection for tests.
	LimiterFactory func(rps int) *rate.Limiter
}

func (o *Options) normalize() {
	if o.LimiterFactory == nil {
		o.LimiterFactory = func(rps int) *rate.Limiter {
			if rps <= 0 {
				return rate.NewLimiter(rate.Inf, 0)
			}
			// Burst equal to rps to smooth pacing under concurrency.
			return rate.NewLimiter(rate.Limit(rps), rps)
		}
	}
}
