package metrics_test

import (
	"math"
	"testing"
	"time"

	"github.com/torosent/tokenfire/internal/metrics"
)

func successAt(start time.Time, latency time.Duration, tokens int) metrics.Outcome {
	return metrics.SuccessOutcome(start, start.Add(latency), latency, tokens)
}

func failureAt(start time.Time, reason string) metrics.Outcome {
	return metrics.FailureOutcome(start, start.Add(time.Millisecond), reason)
}

func TestAggregateEmptyReturnsNil(t *testing.T) {
	if s := metrics.Aggregate(nil, 0); s != nil {
		t.Fatalf("expected nil summary for empty input, got %+v", s)
	}
}

func TestAggregateCountsAndTokens(t *testing.T) {
	base := time.Now()
	outcomes := []metrics.Outcome{
		successAt(base, 10*time.Millisecond, 5),
		successAt(base, 20*time.Millisecond, 5),
		failureAt(base, "HTTP status 500: boom"),
	}

	s := metrics.Aggregate(outcomes, 2.0)
	if s == nil {
		t.Fatal("expected summary")
	}
	if s.TotalRequests != 3 {
		t.Errorf("total = %d, want 3", s.TotalRequests)
	}
	if s.FailedRequests != 1 {
		t.Errorf("failed = %d, want 1", s.FailedRequests)
	}
	if s.TotalRequests-s.FailedRequests != 2 {
		t.Errorf("successes = %d, want 2", s.TotalRequests-s.FailedRequests)
	}
	if s.TotalOutputTokens != 10 {
		t.Errorf("tokens = %d, want 10", s.TotalOutputTokens)
	}
	// Override of 2s: 2 successes / 2s and 10 tokens / 2s.
	if math.Abs(s.RequestsPerSecond-1.0) > 1e-9 {
		t.Errorf("rps = %f, want 1.0", s.RequestsPerSecond)
	}
	if math.Abs(s.OutputTokensPerSecond-5.0) > 1e-9 {
		t.Errorf("tps = %f, want 5.0", s.OutputTokensPerSecond)
	}
	if s.AvgLatencyMs == nil || math.Abs(*s.AvgLatencyMs-15.0) > 1e-9 {
		t.Errorf("avg latency = %v, want 15ms", s.AvgLatencyMs)
	}
}

func TestAggregateAllFailures(t *testing.T) {
	base := time.Now()
	outcomes := []metrics.Outcome{
		failureAt(base, "request timed out"),
		failureAt(base.Add(time.Second), "request timed out"),
	}

	s := metrics.Aggregate(outcomes, 0)
	if s == nil {
		t.Fatal("expected summary for all-failure run")
	}
	if s.TotalRequests != 2 || s.FailedRequests != 2 {
		t.Errorf("counts = %d/%d, want 2/2", s.TotalRequests, s.FailedRequests)
	}
	if s.RequestsPerSecond != 0 || s.OutputTokensPerSecond != 0 {
		t.Errorf("rates should be zero, got rps=%f tps=%f", s.RequestsPerSecond, s.OutputTokensPerSecond)
	}
	if s.AvgLatencyMs != nil || s.P50LatencyMs != nil || s.P90LatencyMs != nil || s.P99LatencyMs != nil {
		t.Error("latency fields should all be absent for all-failure run")
	}
	if s.TotalTimeSeconds <= 0 {
		t.Errorf("total time = %f, want > 0", s.TotalTimeSeconds)
	}
}

func TestAggregateFloorsDegenerateWindow(t *testing.T) {
	// All outcomes share the same instant; the window would be zero.
	at := time.Now()
	outcomes := []metrics.Outcome{
		metrics.SuccessOutcome(at, at, 0, 1),
	}
	s := metrics.Aggregate(outcomes, 0)
	if s == nil {
		t.Fatal("expected summary")
	}
	if s.TotalTimeSeconds < 0.001 {
		t.Errorf("total time = %f, want >= 0.001", s.TotalTimeSeconds)
	}
}

func TestAggregateMeasuredWindowUsesSuccessesOnly(t *testing.T) {
	base := time.Now()
	outcomes := []metrics.Outcome{
		successAt(base, 100*time.Millisecond, 1),
		successAt(base.Add(900*time.Millisecond), 100*time.Millisecond, 1),
		// A failure ending much later must not stretch the success window.
		metrics.FailureOutcome(base, base.Add(10*time.Second), "request timed out"),
	}
	s := metrics.Aggregate(outcomes, 0)
	if s == nil {
		t.Fatal("expected summary")
	}
	if s.TotalTimeSeconds > 1.5 {
		t.Errorf("total time = %f, want ~1s (success window only)", s.TotalTimeSeconds)
	}
}

func TestPercentileInterpolation(t *testing.T) {
	base := time.Now()
	// Latencies 10, 20, 30, 40ms. With linear interpolation over n-1 ranks:
	// p50 = 25ms, p90 = 37ms, p99 = 39.7ms.
	var outcomes []metrics.Outcome
	for _, ms := range []int{10, 20, 30, 40} {
		outcomes = append(outcomes, successAt(base, time.Duration(ms)*time.Millisecond, 0))
	}

	s := metrics.Aggregate(outcomes, 1.0)
	if s == nil {
		t.Fatal("expected summary")
	}
	check := func(name string, got *float64, want float64) {
		t.Helper()
		if got == nil {
			t.Fatalf("%s is nil", name)
		}
		if math.Abs(*got-want) > 1e-6 {
			t.Errorf("%s = %f, want %f", name, *got, want)
		}
	}
	check("p50", s.P50LatencyMs, 25.0)
	check("p90", s.P90LatencyMs, 37.0)
	check("p99", s.P99LatencyMs, 39.7)
}

func TestPercentilesMonotonic(t *testing.T) {
	base := time.Now()
	latencies := []int{3, 78, 12, 51, 9, 200, 44, 44, 7, 120, 65, 33}
	var outcomes []metrics.Outcome
	for _, ms := range latencies {
		outcomes = append(outcomes, successAt(base, time.Duration(ms)*time.Millisecond, 1))
	}

	s := metrics.Aggregate(outcomes, 0)
	if s == nil {
		t.Fatal("expected summary")
	}
	if *s.P50LatencyMs > *s.P90LatencyMs || *s.P90LatencyMs > *s.P99LatencyMs {
		t.Errorf("percentiles not monotonic: p50=%f p90=%f p99=%f",
			*s.P50LatencyMs, *s.P90LatencyMs, *s.P99LatencyMs)
	}
}

func TestOutcomeInvariant(t *testing.T) {
	ok := successAt(time.Now(), 5*time.Millisecond, 3)
	if ok.LatencyMs == nil || ok.Error != nil {
		t.Error("success outcome must carry latency and no error")
	}
	bad := failureAt(time.Now(), "boom")
	if bad.LatencyMs != nil || bad.Error == nil {
		t.Error("failure outcome must carry error and no latency")
	}
}
