package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/torosent/tokenfire/internal/metrics"
)

// ProgressReporter displays real-time progress updates from the live tally.
// It is a passive observer and never influences scheduling.
type ProgressReporter struct {
	live     *metrics.Live
	ticker   *time.Ticker
	done     chan struct{}
	finished chan struct{}
	writer   io.Writer
	active   int32
}

// NewProgressReporter creates a progress reporter that updates at the given
// interval.
func NewProgressReporter(live *metrics.Live, interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	return &ProgressReporter{
		live:     live,
		ticker:   time.NewTicker(interval),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
		writer:   writer,
	}
}

// Start begins displaying progress updates in a background goroutine.
func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return // already running
	}
	go p.run()
}

// Stop halts progress updates.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		p.ticker.Stop()
		<-p.finished
	}
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			stats := p.live.Snapshot()
			fmt.Fprintf(p.writer, "\rRequests: %d | OK: %d | Failed: %d | RPS: %.1f | P99: %.1fms",
				stats.Total, stats.Successes, stats.Failures, stats.RequestsPerSec, stats.P99LatencyMs)
		case <-p.done:
			return
		}
	}
}
