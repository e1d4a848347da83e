package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Live is a running tally fed once per completed attempt. It backs the
// progress reporter only; the authoritative Summary comes from Aggregate,
// which needs the exact latency sample.
type Live struct {
	mu        sync.Mutex
	hist      *hdrhistogram.Histogram
	successes int64
	failures  int64
	start     time.Time
}

// LiveStats is a point-in-time snapshot of a running benchmark.
type LiveStats struct {
	Total          int64
	Successes      int64
	Failures       int64
	RequestsPerSec float64
	P99LatencyMs   float64
}

func NewLive() *Live {
	// Latencies from 1µs up to 10min with 3 significant figures.
	return &Live{
		hist:  hdrhistogram.New(1, 600_000_000, 3),
		start: time.Now(),
	}
}

// Start marks the moment the run actually began. Call right before the first
// request so elapsed-time rates do not include setup.
func (l *Live) Start() {
	l.mu.Lock()
	l.start = time.Now()
	l.mu.Unlock()
}

// Observe records one completed attempt. Latency is only meaningful when
// success is true.
func (l *Live) Observe(success bool, latency time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if success {
		l.successes++
		us := latency.Microseconds()
		if us < l.hist.LowestTrackableValue() {
			us = l.hist.LowestTrackableValue()
		}
		if us > l.hist.HighestTrackableValue() {
			us = l.hist.HighestTrackableValue()
		}
		_ = l.hist.RecordValue(us)
		return
	}
	l.failures++
}

// Snapshot returns current running statistics.
func (l *Live) Snapshot() LiveStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := LiveStats{
		Total:     l.successes + l.failures,
		Successes: l.successes,
		Failures:  l.failures,
	}
	if l.hist.TotalCount() > 0 {
		stats.P99LatencyMs = float64(l.hist.ValueAtQuantile(99)) / 1000.0
	}
	if elapsed := time.Since(l.start); elapsed > 0 && stats.Total > 0 {
		stats.RequestsPerSec = float64(stats.Total) / elapsed.Seconds()
	}
	return stats
}
