package runner

import "fmt"

// HTTPError represents a request that completed with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP status %d: %s", e.StatusCode, e.Body)
}
