package loadgen

import (
	"context"
	"errors"
	"io"
	"net"
	"net/url"
	"os"
	"syscall"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"context deadline", context.DeadlineExceeded, KindTimeout},
		{"os deadline", os.ErrDeadlineExceeded, KindTimeout},
		{"timeout text", errors.New("net/http: request canceled (Client.Timeout exceeded)"), KindTimeout},
		{"redirect loop", errors.New("stopped after 10 redirects"), KindTooManyRedirects},
		{"dns failure", &net.DNSError{Err: "no such host", Name: "missing.invalid"}, KindConnectionError},
		{"connection refused", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, KindConnectionError},
		{"connection reset", &net.OpError{Op: "read", Err: syscall.ECONNRESET}, KindConnectionError},
		{"host unreachable", syscall.EHOSTUNREACH, KindConnectionError},
		{"malformed response", errors.New("malformed HTTP response \"\\x00\""), KindHTTPProtocolError},
		{"unexpected eof", io.ErrUnexpectedEOF, KindSocketError},
		{"eof", io.EOF, KindSocketError},
		{"bare errno", syscall.EPIPE, KindSocketError},
		{"unknown", errors.New("unsupported protocol scheme"), KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if got == nil {
				t.Fatal("Classify returned nil for non-nil error")
			}
			if got.Kind != tt.want {
				t.Errorf("Classify(%v).Kind = %s, want %s", tt.err, got.Kind, tt.want)
			}
			if got.Message == "" {
				t.Error("Message should keep the original error text")
			}
		})
	}
}

func TestClassifyNil(t *testing.T) {
	if got := Classify(nil); got != nil {
		t.Errorf("Classify(nil) = %v, want nil", got)
	}
}

func TestClassifyURLUnwraps(t *testing.T) {
	// http.Client.Do wraps everything in *url.Error; classification should
	// see the cause, not the wrapper text.
	err := &url.Error{
		Op:  "Get",
		URL: "http://example.com",
		Err: errors.New("stopped after 10 redirects"),
	}
	got := classifyURL(err)
	if got.Kind != KindTooManyRedirects {
		t.Errorf("Kind = %s, want %s", got.Kind, KindTooManyRedirects)
	}
	if got.Message != "stopped after 10 redirects" {
		t.Errorf("Message = %q, want the inner message", got.Message)
	}
}

func TestClassifyURLTimeout(t *testing.T) {
	err := &url.Error{
		Op:  "Get",
		URL: "http://example.com",
		Err: context.DeadlineExceeded,
	}
	if got := classifyURL(err); got.Kind != KindTimeout {
		t.Errorf("Kind = %s, want %s", got.Kind, KindTimeout)
	}
}

func TestRequestErrorMessage(t *testing.T) {
	other := &RequestError{Kind: KindOther, Message: "something odd happened"}
	if other.Error() != "something odd happened" {
		t.Errorf("Other errors should surface the message, got %q", other.Error())
	}

	timeout := &RequestError{Kind: KindTimeout, Message: "context deadline exceeded"}
	if timeout.Error() != "Timeout" {
		t.Errorf("categorized errors should surface the kind, got %q", timeout.Error())
	}
}
