// Package threshold evaluates pass/fail assertions against a finished run's
// summary, e.g. "p99_latency_ms < 500" or "failed_requests == 0". A violated
// threshold flips the process exit status without affecting the run itself.
package threshold

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/torosent/tokenfire/internal/metrics"
)

// Threshold is one parsed assertion over a summary metric.
type Threshold struct {
	Metric   string  // e.g. "p99_latency_ms", "requests_per_second"
	Operator string  // <, <=, >, >=, ==
	Value    float64
	Raw      string // original string for display
}

// Result is the outcome of evaluating one threshold.
type Result struct {
	Threshold Threshold
	Actual    float64
	Pass      bool
	Message   string
}

var pattern = regexp.MustCompile(`^([a-z0-9_]+)\s*(<=|>=|==|<|>)\s*([0-9.]+)$`)

var supportedMetrics = map[string]bool{
	"total_requests":           true,
	"failed_requests":          true,
	"failure_rate":             true,
	"requests_per_second":      true,
	"output_tokens_per_second": true,
	"total_output_tokens":      true,
	"avg_latency_ms":           true,
	"p50_latency_ms":           true,
	"p90_latency_ms":           true,
	"p99_latency_ms":           true,
}

// Parse parses one assertion string, e.g. "p99_latency_ms < 500".
func Parse(s string) (Threshold, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	matches := pattern.FindStringSubmatch(trimmed)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format %q (expected: metric operator value, e.g. 'p99_latency_ms < 500')", s)
	}

	metric, operator, valueStr := matches[1], matches[2], matches[3]
	if !supportedMetrics[metric] {
		return Threshold{}, fmt.Errorf("unsupported threshold metric %q", metric)
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", valueStr, err)
	}

	return Threshold{Metric: metric, Operator: operator, Value: value, Raw: trimmed}, nil
}

// ParseMultiple parses a list of assertion strings, failing on the first
// invalid one.
func ParseMultiple(raw []string) ([]Threshold, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	thresholds := make([]Threshold, 0, len(raw))
	for _, s := range raw {
		t, err := Parse(s)
		if err != nil {
			return nil, err
		}
		thresholds = append(thresholds, t)
	}
	return thresholds, nil
}

// Evaluate checks all thresholds against the summary. A nil summary fails
// every latency/rate assertion, since there is nothing to assert on.
func Evaluate(thresholds []Threshold, s *metrics.Summary) []Result {
	if len(thresholds) == 0 {
		return nil
	}
	results := make([]Result, 0, len(thresholds))
	for _, t := range thresholds {
		results = append(results, evaluateOne(t, s))
	}
	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Pass {
			return false
		}
	}
	return true
}

func evaluateOne(t Threshold, s *metrics.Summary) Result {
	actual, err := metricValue(t.Metric, s)
	if err != nil {
		return Result{
			Threshold: t,
			Pass:      false,
			Message:   fmt.Sprintf("FAIL %s: %v", t.Raw, err),
		}
	}

	pass := compare(actual, t.Operator, t.Value)
	status := "PASS"
	if !pass {
		status = "FAIL"
	}
	return Result{
		Threshold: t,
		Actual:    actual,
		Pass:      pass,
		Message:   fmt.Sprintf("%s %s (actual %.2f)", status, t.Raw, actual),
	}
}

func metricValue(metric string, s *metrics.Summary) (float64, error) {
	if s == nil {
		return 0, fmt.Errorf("no summary available")
	}
	switch metric {
	case "total_requests":
		return float64(s.TotalRequests), nil
	case "failed_requests":
		return float64(s.FailedRequests), nil
	case "failure_rate":
		if s.TotalRequests == 0 {
			return 0, nil
		}
		return float64(s.FailedRequests) / float64(s.TotalRequests), nil
	case "requests_per_second":
		return s.RequestsPerSecond, nil
	case "output_tokens_per_second":
		return s.OutputTokensPerSecond, nil
	case "total_output_tokens":
		return float64(s.TotalOutputTokens), nil
	case "avg_latency_ms":
		return latencyValue(s.AvgLatencyMs)
	case "p50_latency_ms":
		return latencyValue(s.P50LatencyMs)
	case "p90_latency_ms":
		return latencyValue(s.P90LatencyMs)
	case "p99_latency_ms":
		return latencyValue(s.P99LatencyMs)
	default:
		return 0, fmt.Errorf("unsupported metric %q", metric)
	}
}

func latencyValue(v *float64) (float64, error) {
	if v == nil {
		return 0, fmt.Errorf("no successful requests, latency undefined")
	}
	return *v, nil
}

func compare(actual float64, operator string, value float64) bool {
	switch operator {
	case "<":
		return actual < value
	case "<=":
		return actual <= value
	case ">":
		return actual > value
	case ">=":
		return actual >= value
	case "==":
		return actual == value
	default:
		return false
	}
}
