// Package output emits benchmark results for humans and for the log-scraping
// collaborator that extracts the JSON payload from job logs.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/torosent/tokenfire/internal/metrics"
)

// The scraping collaborator locates the results payload between these two
// literal markers; do not change them.
const (
	ResultsStartMarker = "--- BENCHMARK RESULTS (JSON) ---"
	ResultsEndMarker   = "--- END BENCHMARK RESULTS ---"
)

// RunConfig echoes the parameters the run was executed with.
type RunConfig struct {
	Endpoint    string  `json:"endpoint"`
	Model       string  `json:"model"`
	Concurrency int     `json:"concurrency"`
	NumRequests int     `json:"num_requests,omitempty"`
	DurationSec float64 `json:"duration_seconds,omitempty"`
	MaxTokens   int     `json:"max_tokens"`
	TimeoutSec  float64 `json:"timeout_seconds"`
	PromptCount int     `json:"prompt_count"`
}

// Report is the single JSON object handed to the reporting collaborator:
// the summary statistics (null when not computable), the full ordered
// outcome sequence, and run metadata.
type Report struct {
	RunID           string            `json:"run_id"`
	Stats           *metrics.Summary  `json:"stats"`
	Config          RunConfig         `json:"config"`
	ActualDuration  float64           `json:"actual_duration_seconds"`
	NumRawResults   int               `json:"num_raw_results"`
	Results         []metrics.Outcome `json:"results"`
	Errors          []string          `json:"errors,omitempty"`
}

// NewReport assembles a report from a finished run's outcomes.
func NewReport(runID string, stats *metrics.Summary, outcomes []metrics.Outcome, cfg RunConfig, actualDuration float64) Report {
	var errs []string
	for _, o := range outcomes {
		if o.Error != nil {
			errs = append(errs, *o.Error)
		}
	}
	return Report{
		RunID:          runID,
		Stats:          stats,
		Config:         cfg,
		ActualDuration: actualDuration,
		NumRawResults:  len(outcomes),
		Results:        outcomes,
		Errors:         errs,
	}
}

// PrintBenchmarkResults writes the report as one indented JSON object between
// the literal start and end markers.
func PrintBenchmarkResults(w io.Writer, report Report) error {
	fmt.Fprintln(w, ResultsStartMarker)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	err := enc.Encode(report)
	fmt.Fprintln(w, ResultsEndMarker)
	return err
}

// PrintSummary outputs a human-readable summary table.
func PrintSummary(w io.Writer, s *metrics.Summary) {
	if s == nil {
		fmt.Fprintln(w, "\nNo statistics computable: no outcomes were recorded.")
		return
	}
	fmt.Fprintln(w, "\n--- Benchmark Summary ---")
	fmt.Fprintf(w, "Total Requests:      %d\n", s.TotalRequests)
	fmt.Fprintf(w, "Successful:          %d\n", s.TotalRequests-s.FailedRequests)
	fmt.Fprintf(w, "Failed:              %d\n", s.FailedRequests)
	fmt.Fprintf(w, "Total Time:          %.2f s\n", s.TotalTimeSeconds)
	fmt.Fprintf(w, "Requests/sec:        %.2f\n", s.RequestsPerSecond)
	fmt.Fprintf(w, "Output Tokens:       %d\n", s.TotalOutputTokens)
	fmt.Fprintf(w, "Output Tokens/sec:   %.2f\n", s.OutputTokensPerSecond)
	fmt.Fprintln(w, "\nLatency (end-to-end):")
	fmt.Fprintf(w, "  Mean:              %s\n", formatLatency(s.AvgLatencyMs))
	fmt.Fprintf(w, "  P50:               %s\n", formatLatency(s.P50LatencyMs))
	fmt.Fprintf(w, "  P90:               %s\n", formatLatency(s.P90LatencyMs))
	fmt.Fprintf(w, "  P99:               %s\n", formatLatency(s.P99LatencyMs))
}

func formatLatency(ms *float64) string {
	if ms == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f ms", *ms)
}

// WriteResultsFile writes the report JSON to path, holding a file lock so
// concurrent runs sharing a results directory cannot interleave writes.
func WriteResultsFile(path string, report Report) error {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock results file: %w", err)
	}
	defer lock.Unlock()

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create results directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write results file: %w", err)
	}
	return nil
}
