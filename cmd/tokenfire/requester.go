package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/tokenfire/internal/config"
	"github.com/torosent/tokenfire/internal/metrics"
	"github.com/torosent/tokenfire/internal/runner"
	"github.com/torosent/tokenfire/internal/tracing"
)

const (
	completionsPath = "/v1/completions"

	// Failure reasons embed at most this much of the response body.
	maxErrorBodyBytes = 100

	// Upper bound on how much of a response we read. Completion responses
	// are small; anything bigger is a misbehaving server.
	maxResponseBytes = 4 << 20
)

type completionRequest struct {
	Model     string `json:"model"`
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens"`
	Stream    bool   `json:"stream"`
}

// completionRequester issues one non-streaming completion request per attempt
// and records the outcome. Every code path appends exactly one outcome.
type completionRequester struct {
	client    *http.Client
	url       string
	model     string
	maxTokens int
	collector *metrics.Collector
	live      *metrics.Live
	tracer    trace.Tracer
	propagate bool
	logErrors bool
	log       logrus.FieldLogger
}

func newCompletionRequester(cfg *config.Config, client *http.Client, collector *metrics.Collector, live *metrics.Live, tp *tracing.Provider, log logrus.FieldLogger) *completionRequester {
	return &completionRequester{
		client:    client,
		url:       cfg.Endpoint + completionsPath,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		collector: collector,
		live:      live,
		tracer:    tp.Tracer(),
		propagate: tp.ShouldPropagate(),
		logErrors: cfg.LogErrors,
		log:       log,
	}
}

// Do sends one completion request. The returned error is a classification
// signal for the runner's failure count; the outcome record is the source of
// truth either way.
func (r *completionRequester) Do(ctx context.Context, prompt string) error {
	payload, err := json.Marshal(completionRequest{
		Model:     r.model,
		Prompt:    prompt,
		MaxTokens: r.maxTokens,
		Stream:    false,
	})
	if err != nil {
		return r.fail(nil, time.Now(), fmt.Errorf("encode request: %w", err))
	}

	start := time.Now()
	ctx, span := tracing.StartCompletionSpan(ctx, r.tracer, r.model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(payload))
	if err != nil {
		return r.fail(span, start, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if r.propagate {
		tracing.InjectHTTPHeaders(ctx, req.Header)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return r.fail(span, start, classifyTransportError(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	latency := time.Since(start)
	if err != nil {
		return r.fail(span, start, fmt.Errorf("read response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return r.fail(span, start, &runner.HTTPError{
			StatusCode: resp.StatusCode,
			Body:       truncate(string(body), maxErrorBodyBytes),
		})
	}

	if !gjson.ValidBytes(body) {
		return r.fail(span, start, errors.New("failed to decode response JSON"))
	}
	// Missing usage is not an error; the server just did not report tokens.
	tokens := int(gjson.GetBytes(body, "usage.completion_tokens").Int())

	end := time.Now()
	r.collector.Append(metrics.SuccessOutcome(start, end, latency, tokens))
	r.live.Observe(true, latency)
	tracing.EndSpan(span, nil,
		attribute.Int("http.response.status_code", resp.StatusCode),
		attribute.Int("gen_ai.usage.output_tokens", tokens),
	)
	return nil
}

func (r *completionRequester) fail(span trace.Span, start time.Time, cause error) error {
	end := time.Now()
	reason := cause.Error()
	r.collector.Append(metrics.FailureOutcome(start, end, reason))
	r.live.Observe(false, 0)
	if span != nil {
		tracing.EndSpan(span, cause)
	}
	if r.logErrors {
		r.log.WithField("error", reason).Warn("request failed")
	}
	return cause
}

// classifyTransportError collapses client-side timeouts into a stable reason
// string so aggregated error lists stay readable.
func classifyTransportError(err error) error {
	var urlErr *url.Error
	if (errors.As(err, &urlErr) && urlErr.Timeout()) || errors.Is(err, context.DeadlineExceeded) {
		return errors.New("request timed out")
	}
	return fmt.Errorf("request failed: %v", err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
