// Package config defines the benchmark run parameters and their validation.
// Configuration comes from an optional YAML/JSON file plus command-line
// flags; flags win. Validation is fatal and happens before any request is
// sent.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all parameters for one benchmark run.
type Config struct {
	Endpoint    string        `mapstructure:"endpoint"`
	Model       string        `mapstructure:"model"`
	Prompt      string        `mapstructure:"prompt"`
	PromptFile  string        `mapstructure:"prompt_file"`
	Concurrency int           `mapstructure:"concurrency"`
	NumRequests int           `mapstructure:"num_requests"`
	Duration    time.Duration `mapstructure:"duration"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Rate        int           `mapstructure:"rate"`
	ResultsFile string        `mapstructure:"results_file"`
	LogErrors   bool          `mapstructure:"log_errors"`
	Thresholds  []string      `mapstructure:"thresholds"`
	Tracing     TracingConfig `mapstructure:"tracing"`
	ConfigFile  string        `mapstructure:"-"`
}

// TracingConfig controls OpenTelemetry span export. Tracing is disabled
// unless an OTLP endpoint is configured.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	ServiceName string  `mapstructure:"service_name"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" or "http"
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Propagate   bool    `mapstructure:"propagate"`
}

func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != ""
}

func (t TracingConfig) ShouldPropagate() bool {
	return t.Propagate
}

// ValidationError aggregates every configuration issue found in one pass.
type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

// Validate checks the configuration before any work begins. Invalid or
// conflicting run parameters abort the run entirely.
func (c Config) Validate() error {
	var issues []string

	if strings.TrimSpace(c.Endpoint) == "" {
		issues = append(issues, "endpoint is required")
	}
	if strings.TrimSpace(c.Model) == "" {
		issues = append(issues, "model is required")
	}

	hasCount := c.NumRequests > 0
	hasDuration := c.Duration > 0
	switch {
	case hasCount && hasDuration:
		issues = append(issues, "num-requests and duration are mutually exclusive")
	case !hasCount && !hasDuration:
		issues = append(issues, "either num-requests or duration must be specified")
	}
	if c.NumRequests < 0 {
		issues = append(issues, "num-requests must be >= 0")
	}
	if c.Duration < 0 {
		issues = append(issues, "duration must be >= 0")
	}

	if c.Concurrency < 1 {
		issues = append(issues, "concurrency must be >= 1")
	}
	if c.MaxTokens < 1 {
		issues = append(issues, "max-tokens must be >= 1")
	}
	if c.Timeout <= 0 {
		issues = append(issues, "timeout must be > 0")
	}
	if c.Rate < 0 {
		issues = append(issues, "rate must be >= 0")
	}

	hasPrompt := strings.TrimSpace(c.Prompt) != ""
	hasPromptFile := strings.TrimSpace(c.PromptFile) != ""
	switch {
	case hasPrompt && hasPromptFile:
		issues = append(issues, "prompt and prompt-file are mutually exclusive")
	case !hasPrompt && !hasPromptFile:
		issues = append(issues, "either prompt or prompt-file must be specified")
	}

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1.0 {
		issues = append(issues, "tracing sample_rate must be between 0.0 and 1.0")
	}
	if c.Tracing.Enabled() {
		switch strings.ToLower(strings.TrimSpace(c.Tracing.Protocol)) {
		case "", "grpc", "http":
		default:
			issues = append(issues, fmt.Sprintf("tracing protocol %q is not supported", c.Tracing.Protocol))
		}
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}
