package metrics

import "time"

// Outcome is the immutable record of one request attempt. Exactly one of
// LatencyMs and Error is set: LatencyMs on success, Error on failure.
type Outcome struct {
	Success      bool      `json:"success"`
	LatencyMs    *float64  `json:"latency_ms,omitempty"`
	OutputTokens *int      `json:"output_tokens,omitempty"`
	Error        *string   `json:"error,omitempty"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
}

// SuccessOutcome builds an outcome for a completed request.
func SuccessOutcome(start, end time.Time, latency time.Duration, outputTokens int) Outcome {
	ms := float64(latency) / float64(time.Millisecond)
	return Outcome{
		Success:      true,
		LatencyMs:    &ms,
		OutputTokens: &outputTokens,
		StartTime:    start,
		EndTime:      end,
	}
}

// FailureOutcome builds an outcome for a failed request. No latency is
// recorded for failures.
func FailureOutcome(start, end time.Time, reason string) Outcome {
	return Outcome{
		Success:   false,
		Error:     &reason,
		StartTime: start,
		EndTime:   end,
	}
}
