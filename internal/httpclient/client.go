// Package httpclient builds the shared HTTP transport used by all benchmark
// workers. The client is safe for concurrent use and enforces the per-request
// timeout; workers never need locking beyond what the transport provides.
package httpclient

import (
	"net"
	"net/http"
	"time"
)

// NewClient creates an HTTP client tuned for sustained concurrent load.
// The timeout bounds each full request/response cycle; a timed-out attempt
// surfaces as a transport error, never a hang.
func NewClient(timeout time.Duration) *http.Client {
	if timeout < 0 {
		timeout = 0
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
