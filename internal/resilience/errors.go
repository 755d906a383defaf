// Package resilience implements retry with exponential backoff and the
// retryable/fatal classification of upstream API failures.
package resilience

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// StatusError is a non-2xx HTTP response from an upstream API. The status
// code decides retryability: 5xx is transient, 4xx is fatal (the request or
// credentials are presumed bad, retrying cannot help).
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api: HTTP %d: %s", e.StatusCode, truncate(e.Body, 300))
}

// truncate cuts s at the first rune boundary at or past max bytes, so an
// abbreviated body stays valid UTF-8.
func truncate(s string, max int) string {
	for i := range s {
		if i >= max {
			return s[:i]
		}
	}
	return s
}

// Retryable reports whether an error is safe to retry: server-side HTTP
// failures (5xx) and transport-level errors. Client errors (4xx) and
// everything else are fatal.
func Retryable(err error) bool {
	if err == nil {
		return false
	}

	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= 500 && se.StatusCode < 600
	}

	return isTransportError(err)
}

// isTransportError matches network-level failures: timeouts, connection
// resets, DNS trouble. These happen before any HTTP status exists and are
// always worth retrying.
func isTransportError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// Wrapped client errors lose their type; fall back to message matching.
	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"eof",
		"server closed idle connection",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}
