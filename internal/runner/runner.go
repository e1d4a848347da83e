package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// State tracks the lifecycle of a run. A Runner moves strictly forward:
// Idle -> Running -> Draining -> Finished.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateDraining
	StateFinished
)

// ErrAlreadyRan is returned when Run is invoked on a used Runner.
var ErrAlreadyRan = errors.New("runner has already executed")

// Result captures the execution summary of one run.
type Result struct {
	Total    int64         // attempts issued and completed
	Errors   int64         // attempts that failed
	Duration time.Duration // wall clock from Run start to full drain
}

// Runner drives concurrent request attempts under the configured stop policy,
// keeping at most Concurrency attempts in flight at any instant. A Runner
// instance runs at most once.
type Runner struct {
	opt     Options
	limiter *rate.Limiter
	state   atomic.Int32
	total   atomic.Int64
	errs    atomic.Int64
}

func New(opt Options) (*Runner, error) {
	opt.normalize()
	if opt.Concurrency < 1 {
		return nil, fmt.Errorf("concurrency must be >= 1, got %d", opt.Concurrency)
	}
	hasCount := opt.TotalRequests > 0
	hasDuration := opt.Duration > 0
	if hasCount == hasDuration {
		return nil, errors.New("exactly one of total requests or duration must be set")
	}
	if opt.Requester == nil {
		return nil, errors.New("requester is required")
	}
	if opt.Prompts == nil {
		return nil, errors.New("prompt source is required")
	}
	return &Runner{opt: opt, limiter: opt.LimiterFactory(opt.RatePerSecond)}, nil
}

// State reports the run's current lifecycle phase.
func (r *Runner) State() State {
	return State(r.state.Load())
}

// Run executes the configured stop policy and blocks until every issued
// attempt has completed. Individual attempt failures never abort the run.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	if !r.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return Result{}, ErrAlreadyRan
	}
	defer r.state.Store(int32(StateFinished))

	start := time.Now()
	if r.opt.TotalRequests > 0 {
		r.runCount(ctx)
	} else {
		r.runDuration(ctx)
	}

	return Result{
		Total:    r.total.Load(),
		Errors:   r.errs.Load(),
		Duration: time.Since(start),
	}, nil
}

// runCount issues exactly TotalRequests attempts, indices 0..n-1, each bound
// to Prompts.PickAt(index). A bounded worker set keeps no more than
// Concurrency attempts in flight.
func (r *Runner) runCount(ctx context.Context) {
	jobs := make(chan int)

	// Scheduler: serializes pacing so the rate cap holds across workers.
	go func() {
		defer close(jobs)
		defer r.state.Store(int32(StateDraining))
		for i := 0; i < r.opt.TotalRequests; i++ {
			if err := r.limiter.Wait(ctx); err != nil {
				return
			}
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	wg.Add(r.opt.Concurrency)
	for w := 0; w < r.opt.Concurrency; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				r.attempt(ctx, r.opt.Prompts.PickAt(i))
			}
		}()
	}
	wg.Wait()
}

// runDuration starts Concurrency long-lived workers that loop until the stop
// signal is set by the deadline timer. Workers observe the signal only
// between attempts: an attempt already in flight when the deadline passes is
// allowed to finish and its outcome is still recorded, so total wall time may
// exceed the configured duration by up to one attempt.
func (r *Runner) runDuration(ctx context.Context) {
	stop := make(chan struct{})

	timer := time.NewTimer(r.opt.Duration)
	defer timer.Stop()
	go func() {
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
		r.state.Store(int32(StateDraining))
		close(stop)
	}()

	var wg sync.WaitGroup
	wg.Add(r.opt.Concurrency)
	for w := 0; w < r.opt.Concurrency; w++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if err := r.limiter.Wait(ctx); err != nil {
					return
				}
				// Re-check after the limiter wait so a worker parked on a
				// pacing token does not start a fresh attempt past the
				// deadline.
				select {
				case <-stop:
					return
				default:
				}
				// The attempt runs on the parent context: the run deadline
				// must not preempt a request already in flight.
				r.attempt(ctx, r.opt.Prompts.PickRandom())
			}
		}()
	}
	wg.Wait()
}

func (r *Runner) attempt(ctx context.Context, prompt string) {
	if err := r.opt.Requester.Do(ctx, prompt); err != nil {
		r.errs.Add(1)
	}
	r.total.Add(1)
}
