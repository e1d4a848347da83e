package runner_test

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/torosent/tokenfire/internal/runner"
)

// indexedPrompts records which selection mode the runner used.
type indexedPrompts struct {
	randomPicks atomic.Int64
	mu          sync.Mutex
	indices     []int
}

func (p *indexedPrompts) PickAt(i int) string {
	p.mu.Lock()
	p.indices = append(p.indices, i)
	p.mu.Unlock()
	return "prompt-" + strconv.Itoa(i)
}

func (p *indexedPrompts) PickRandom() string {
	p.randomPicks.Add(1)
	return "random"
}

// gaugedRequester tracks the maximum number of simultaneous calls.
type gaugedRequester struct {
	latency time.Duration
	fail    bool
	calls   atomic.Int64
	active  atomic.Int64
	peak    atomic.Int64
}

func (g *gaugedRequester) Do(ctx context.Context, prompt string) error {
	g.calls.Add(1)
	cur := g.active.Add(1)
	for {
		peak := g.peak.Load()
		if cur <= peak || g.peak.CompareAndSwap(peak, cur) {
			break
		}
	}
	if g.latency > 0 {
		time.Sleep(g.latency)
	}
	g.active.Add(-1)
	if g.fail {
		return context.DeadlineExceeded // arbitrary classified error
	}
	return nil
}

func TestCountModeIssuesExactTotal(t *testing.T) {
	prompts := &indexedPrompts{}
	req := &gaugedRequester{latency: time.Millisecond}
	r, err := runner.New(runner.Options{
		Concurrency:   2,
		TotalRequests: 10,
		Prompts:       prompts,
		Requester:     req,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Total != 10 {
		t.Fatalf("total = %d, want 10", res.Total)
	}
	if res.Errors != 0 {
		t.Fatalf("errors = %d, want 0", res.Errors)
	}
	if got := req.peak.Load(); got > 2 {
		t.Fatalf("observed %d simultaneous attempts, bound is 2", got)
	}
	if len(prompts.indices) != 10 {
		t.Fatalf("prompt picks = %d, want 10", len(prompts.indices))
	}
	seen := map[int]bool{}
	for _, i := range prompts.indices {
		seen[i] = true
	}
	for i := 0; i < 10; i++ {
		if !seen[i] {
			t.Fatalf("index %d never selected", i)
		}
	}
	if r.State() != runner.StateFinished {
		t.Fatalf("state = %v, want finished", r.State())
	}
}

func TestDurationModeStopsAfterDeadline(t *testing.T) {
	prompts := &indexedPrompts{}
	req := &gaugedRequester{latency: 5 * time.Millisecond}
	r, err := runner.New(runner.Options{
		Concurrency: 3,
		Duration:    60 * time.Millisecond,
		Prompts:     prompts,
		Requester:   req,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	start := time.Now()
	res, err := r.Run(context.Background())
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if elapsed < 60*time.Millisecond {
		t.Fatalf("run returned before the deadline: %s", elapsed)
	}
	// Workers drain in-flight attempts; allow one attempt of overshoot plus
	// scheduling fudge.
	if elapsed > 400*time.Millisecond {
		t.Fatalf("run overshot deadline too far: %s", elapsed)
	}
	if res.Total == 0 {
		t.Fatal("expected at least one attempt")
	}
	if got := req.peak.Load(); got > 3 {
		t.Fatalf("observed %d simultaneous attempts, bound is 3", got)
	}
	if prompts.randomPicks.Load() != res.Total {
		t.Fatalf("random picks = %d, attempts = %d", prompts.randomPicks.Load(), res.Total)
	}
}

func TestFailuresNeverAbortTheRun(t *testing.T) {
	r, err := runner.New(runner.Options{
		Concurrency:   4,
		TotalRequests: 20,
		Prompts:       &indexedPrompts{},
		Requester:     &gaugedRequester{fail: true},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Total != 20 || res.Errors != 20 {
		t.Fatalf("total/errors = %d/%d, want 20/20", res.Total, res.Errors)
	}
}

func TestRunnerRunsAtMostOnce(t *testing.T) {
	r, err := runner.New(runner.Options{
		Concurrency:   1,
		TotalRequests: 1,
		Prompts:       &indexedPrompts{},
		Requester:     &gaugedRequester{},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if _, err := r.Run(context.Background()); err != runner.ErrAlreadyRan {
		t.Fatalf("second Run err = %v, want ErrAlreadyRan", err)
	}
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	prompts := &indexedPrompts{}
	req := &gaugedRequester{}

	cases := []struct {
		name string
		opt  runner.Options
	}{
		{"no stop policy", runner.Options{Concurrency: 1, Prompts: prompts, Requester: req}},
		{"both stop policies", runner.Options{Concurrency: 1, TotalRequests: 5, Duration: time.Second, Prompts: prompts, Requester: req}},
		{"zero concurrency", runner.Options{TotalRequests: 5, Prompts: prompts, Requester: req}},
		{"nil requester", runner.Options{Concurrency: 1, TotalRequests: 5, Prompts: prompts}},
		{"nil prompts", runner.Options{Concurrency: 1, TotalRequests: 5, Requester: req}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := runner.New(tc.opt); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestRateLimiterCapsThroughput(t *testing.T) {
	req := &gaugedRequester{}
	rateLimit := 100
	duration := 100 * time.Millisecond
	r, err := runner.New(runner.Options{
		Concurrency:    10,
		Duration:       duration,
		RatePerSecond:  rateLimit,
		Prompts:        &indexedPrompts{},
		Requester:      req,
		LimiterFactory: func(rps int) *rate.Limiter { return rate.NewLimiter(rate.Limit(rps), 1) },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	maxExpected := int64(float64(rateLimit)*duration.Seconds()*1.2) + 1
	if res.Total > maxExpected {
		t.Fatalf("rate limiter exceeded: total=%d max=%d", res.Total, maxExpected)
	}
}

func TestCancelledContextStopsDurationRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r, err := runner.New(runner.Options{
		Concurrency: 2,
		Duration:    10 * time.Second,
		Prompts:     &indexedPrompts{},
		Requester:   &gaugedRequester{latency: time.Millisecond},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	if _, err := r.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("cancel did not stop the run promptly: %s", elapsed)
	}
}
