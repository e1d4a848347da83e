// Package runner provides the concurrent load-generation engine for
// tokenfire.
//
// A [Runner] executes one of two stop policies:
//
//   - Count mode: exactly TotalRequests attempts are issued, indices 0..n-1,
//     each bound to the prompt at that index.
//   - Duration mode: Concurrency long-lived workers issue attempts with
//     random prompts until the configured wall-clock duration elapses.
//
// In both modes at most Concurrency attempts are in flight at any instant,
// and optional pacing caps the request rate. Duration expiry is cooperative:
// workers check the stop signal only between attempts, so an attempt in
// flight at the deadline still completes and contributes its outcome.
//
// # Requester Interface
//
// The [Requester] interface defines what a runner executes:
//
//	type Requester interface {
//		Do(ctx context.Context, prompt string) error
//	}
//
// Implementations record their own outcomes; the returned error only feeds
// the run's failure count. The [HTTPError] type carries status details for
// requests that completed with a non-2xx response.
package runner
