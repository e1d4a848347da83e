// Package metrics records per-request outcomes and reduces them into summary
// statistics for a benchmark run.
//
// Three pieces cooperate:
//
//   - [Outcome] is the immutable record of one request attempt.
//   - [Collector] is the append-only, concurrency-safe sequence of outcomes
//     shared by all workers during a run.
//   - [Aggregate] reduces a finished collector's outcomes into a [Summary]
//     with throughput and interpolated latency percentiles.
//
// [Live] is a separate HdrHistogram-backed tally used only for in-flight
// progress display; it trades exactness for constant memory and is never the
// source of the final Summary.
//
// # Degenerate inputs
//
// Aggregate returns nil for zero outcomes. A run where every attempt failed
// still yields a Summary with accurate request counts, but zero rates and nil
// latency fields.
package metrics
