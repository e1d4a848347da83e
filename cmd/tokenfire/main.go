package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/torosent/tokenfire/internal/config"
	"github.com/torosent/tokenfire/internal/httpclient"
	"github.com/torosent/tokenfire/internal/metrics"
	"github.com/torosent/tokenfire/internal/output"
	"github.com/torosent/tokenfire/internal/prompts"
	"github.com/torosent/tokenfire/internal/runner"
	"github.com/torosent/tokenfire/internal/threshold"
	"github.com/torosent/tokenfire/internal/tracing"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, config.ErrHelpRequested) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	log := logrus.New()
	log.SetOutput(stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Threshold strings are run configuration; reject them before any
	// request is sent.
	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	promptList := []string{cfg.Prompt}
	if cfg.PromptFile != "" {
		promptList, err = prompts.LoadJSONL(cfg.PromptFile, log)
		if err != nil {
			return err
		}
	}
	source, err := prompts.NewSource(promptList)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("tracing shutdown failed")
		}
	}()

	client := httpclient.NewClient(cfg.Timeout)
	collector := metrics.NewCollector()
	live := metrics.NewLive()
	requester := newCompletionRequester(cfg, client, collector, live, tp, log)

	r, err := runner.New(runner.Options{
		Concurrency:   cfg.Concurrency,
		TotalRequests: cfg.NumRequests,
		Duration:      cfg.Duration,
		RatePerSecond: cfg.Rate,
		Prompts:       source,
		Requester:     requester,
	})
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"endpoint":    cfg.Endpoint,
		"model":       cfg.Model,
		"concurrency": cfg.Concurrency,
		"prompts":     source.Len(),
	}).Info("starting benchmark")

	progress := output.NewProgressReporter(live, time.Second, stderr)
	progress.Start()

	live.Start()
	result, runErr := r.Run(ctx)
	progress.Stop()
	fmt.Fprintln(stderr)
	if runErr != nil {
		return runErr
	}

	// Count mode reports measured wall time; duration mode reports the
	// configured window, because the drain tail past the deadline is
	// designed overshoot rather than load time.
	override := result.Duration.Seconds()
	if cfg.Duration > 0 {
		override = cfg.Duration.Seconds()
	}

	outcomes := collector.Snapshot()
	summary := metrics.Aggregate(outcomes, override)
	report := output.NewReport(ulid.Make().String(), summary, outcomes, runConfigFrom(cfg, source.Len()), result.Duration.Seconds())

	if err := output.PrintBenchmarkResults(stdout, report); err != nil {
		return fmt.Errorf("print results: %w", err)
	}
	output.PrintSummary(stdout, summary)

	if cfg.ResultsFile != "" {
		if err := output.WriteResultsFile(cfg.ResultsFile, report); err != nil {
			return err
		}
		log.WithField("path", cfg.ResultsFile).Info("results written")
	}

	if summary == nil {
		return errors.New("no statistics could be calculated: no requests completed")
	}

	if len(thresholds) > 0 {
		results := threshold.Evaluate(thresholds, summary)
		for _, res := range results {
			fmt.Fprintln(stdout, res.Message)
		}
		if !threshold.AllPassed(results) {
			return errors.New("one or more thresholds failed")
		}
	}

	if result.Errors > 0 {
		log.WithField("failed", result.Errors).Warn("benchmark completed with failed requests")
	} else {
		log.Info("benchmark completed successfully")
	}
	return nil
}

func runConfigFrom(cfg *config.Config, promptCount int) output.RunConfig {
	return output.RunConfig{
		Endpoint:    cfg.Endpoint,
		Model:       cfg.Model,
		Concurrency: cfg.Concurrency,
		NumRequests: cfg.NumRequests,
		DurationSec: cfg.Duration.Seconds(),
		MaxTokens:   cfg.MaxTokens,
		TimeoutSec:  cfg.Timeout.Seconds(),
		PromptCount: promptCount,
	}
}
