package metrics

import (
	"math"
	"sort"
)

// minTotalSeconds floors the measured window to avoid division by zero when
// all outcomes land inside the same clock tick.
const minTotalSeconds = 0.001

// Summary holds the aggregated statistics for one finished run. The latency
// fields are either all present (at least one successful outcome) or all nil.
type Summary struct {
	TotalRequests         int      `json:"total_requests"`
	FailedRequests        int      `json:"failed_requests"`
	TotalTimeSeconds      float64  `json:"total_time_seconds"`
	RequestsPerSecond     float64  `json:"requests_per_second"`
	TotalOutputTokens     int      `json:"total_output_tokens"`
	OutputTokensPerSecond float64  `json:"output_tokens_per_second"`
	AvgLatencyMs          *float64 `json:"avg_latency_ms"`
	P50LatencyMs          *float64 `json:"p50_latency_ms"`
	P90LatencyMs          *float64 `json:"p90_latency_ms"`
	P99LatencyMs          *float64 `json:"p99_latency_ms"`
}

// Aggregate reduces a finished run's outcomes into a Summary. It returns nil
// when there are no outcomes at all. overrideSeconds, when positive, replaces
// the measured first-start-to-last-end window as the rate denominator.
func Aggregate(outcomes []Outcome, overrideSeconds float64) *Summary {
	if len(outcomes) == 0 {
		return nil
	}

	successes := make([]Outcome, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Success && o.LatencyMs != nil {
			successes = append(successes, o)
		}
	}
	failed := len(outcomes) - len(successes)

	if len(successes) == 0 {
		total := overrideSeconds
		if total <= 0 {
			total = window(outcomes)
		}
		return &Summary{
			TotalRequests:    len(outcomes),
			FailedRequests:   failed,
			TotalTimeSeconds: math.Max(total, minTotalSeconds),
		}
	}

	total := overrideSeconds
	if total <= 0 {
		total = window(successes)
	}
	total = math.Max(total, minTotalSeconds)

	latencies := make([]float64, len(successes))
	var sum float64
	tokens := 0
	for i, o := range successes {
		latencies[i] = *o.LatencyMs
		sum += *o.LatencyMs
		if o.OutputTokens != nil {
			tokens += *o.OutputTokens
		}
	}
	sort.Float64s(latencies)

	avg := sum / float64(len(latencies))
	p50 := percentile(latencies, 50)
	p90 := percentile(latencies, 90)
	p99 := percentile(latencies, 99)

	return &Summary{
		TotalRequests:         len(outcomes),
		FailedRequests:        failed,
		TotalTimeSeconds:      total,
		RequestsPerSecond:     float64(len(successes)) / total,
		TotalOutputTokens:     tokens,
		OutputTokensPerSecond: float64(tokens) / total,
		AvgLatencyMs:          &avg,
		P50LatencyMs:          &p50,
		P90LatencyMs:          &p90,
		P99LatencyMs:          &p99,
	}
}

// window returns the span from the earliest start to the latest end, in seconds.
func window(outcomes []Outcome) float64 {
	first := outcomes[0].StartTime
	last := outcomes[0].EndTime
	for _, o := range outcomes[1:] {
		if o.StartTime.Before(first) {
			first = o.StartTime
		}
		if o.EndTime.After(last) {
			last = o.EndTime
		}
	}
	return last.Sub(first).Seconds()
}

// percentile computes the p-th percentile of a sorted sample using linear
// interpolation between closest ranks.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	if lower >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[lower+1]-sorted[lower])
}
