package loadgen

import (
	"context"
	"errors"
	"io"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// Classify maps a transport error to its ErrorKind. It checks the most
// specific signal first so classification is deterministic regardless of how
// the error is wrapped: timeouts, then redirect loops, then connection-level
// failures, then protocol violations, then generic socket faults. Anything
// unrecognized becomes Other with the original message.
func Classify(err error) *RequestError {
	if err == nil {
		return nil
	}

	msg := err.Error()

	if isTimeout(err) {
		return &RequestError{Kind: KindTimeout, Message: msg}
	}

	// net/http reports a redirect loop as "stopped after N redirects"
	// wrapped in a *url.Error.
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "stopped after") && strings.Contains(lower, "redirect") {
		return &RequestError{Kind: KindTooManyRedirects, Message: msg}
	}

	if isConnectionError(err, lower) {
		return &RequestError{Kind: KindConnectionError, Message: msg}
	}

	if strings.Contains(lower, "malformed http") || strings.Contains(lower, "malformed response") {
		return &RequestError{Kind: KindHTTPProtocolError, Message: msg}
	}

	if isSocketError(err) {
		return &RequestError{Kind: KindSocketError, Message: msg}
	}

	return &RequestError{Kind: KindOther, Message: msg}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	// url.Error wraps its cause but some timeout paths only surface in text.
	return strings.Contains(strings.ToLower(err.Error()), "timeout")
}

func isConnectionError(err error, lower string) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.EHOSTUNREACH) {
		return true
	}
	return strings.Contains(lower, "connection refused") ||
		strings.Contains(lower, "connection reset") ||
		strings.Contains(lower, "no such host") ||
		strings.Contains(lower, "network is unreachable") ||
		strings.Contains(lower, "no route to host")
}

func isSocketError(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var errno syscall.Errno
	return errors.As(err, &errno)
}

// classifyURL is a convenience for errors coming out of http.Client.Do, which
// always wraps the cause in a *url.Error. Unwrapping first keeps the Message
// free of the "Get \"http://...\": " prefix for the common kinds.
func classifyURL(err error) *RequestError {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		classified := Classify(urlErr.Err)
		// The redirect-loop message lives on the inner error, but timeout
		// detection needs the outer wrapper's Timeout(). Re-check.
		if classified.Kind == KindOther && urlErr.Timeout() {
			classified.Kind = KindTimeout
		}
		return classified
	}
	return Classify(err)
}
