package metrics

import "sync"

// Collector is an append-only, concurrency-safe sequence of outcomes shared
// by all workers for the life of one run. Outcomes are never mutated after
// they are appended.
type Collector struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func NewCollector() *Collector {
	return &Collector{}
}

// Append records one outcome. Safe for concurrent use.
func (c *Collector) Append(o Outcome) {
	c.mu.Lock()
	c.outcomes = append(c.outcomes, o)
	c.mu.Unlock()
}

// Len returns the number of outcomes recorded so far.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.outcomes)
}

// Snapshot returns a copy of all recorded outcomes. Intended to be called
// once, after the run has finished; outcomes already collected remain
// retrievable even if the run was interrupted mid-flight.
func (c *Collector) Snapshot() []Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Outcome, len(c.outcomes))
	copy(out, c.outcomes)
	return out
}
