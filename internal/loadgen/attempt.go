package loadgen

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"
)

const (
	tcpDialTimeout       = 5 * time.Second
	tcpKeepAliveInterval = 30 * time.Second
	tlsHandshakeTimeout  = 5 * time.Second
	idleConnTimeout      = 90 * time.Second
)

// Attempter performs exactly one request attempt against a target. It never
// returns a Go error: failures are classified into the Outcome so the retry
// and dispatch layers can treat every attempt uniformly as data.
type Attempter interface {
	Attempt(ctx context.Context, target string) Outcome
}

// HTTPAttempter issues single GET attempts over a shared pooled client. The
// pool is sized to the run's concurrency so workers reuse connections instead
// of exhausting ephemeral ports.
type HTTPAttempter struct {
	client  *http.Client
	timeout time.Duration
}

// NewHTTPAttempter builds the attempt executor for a run.
func NewHTTPAttempter(cfg *Config) *HTTPAttempter {
	transport := &http.Transport{
		MaxIdleConns:        cfg.Concurrency,
		MaxIdleConnsPerHost: cfg.Concurrency,
		MaxConnsPerHost:     cfg.Concurrency * 2,
		IdleConnTimeout:     idleConnTimeout,
		ForceAttemptHTTP2:   true,

		DialContext: (&net.Dialer{
			Timeout:   tcpDialTimeout,
			KeepAlive: tcpKeepAliveInterval,
		}).DialContext,

		TLSHandshakeTimeout:   tlsHandshakeTimeout,
		ResponseHeaderTimeout: cfg.Timeout,
	}

	return &HTTPAttempter{
		client:  &http.Client{Transport: transport},
		timeout: cfg.Timeout,
	}
}

// Attempt performs one GET with the per-attempt timeout. Any HTTP status code
// is a success at this layer; only transport-level failures populate Err.
// Duration is the elapsed wall time up to the response body being drained, or
// up to the failure.
func (a *HTTPAttempter) Attempt(ctx context.Context, target string) Outcome {
	start := time.Now()

	attemptCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, target, nil)
	if err != nil {
		return Outcome{Duration: time.Since(start), Err: Classify(err)}
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return Outcome{Duration: time.Since(start), Err: classifyURL(err)}
	}

	// Drain the body so the transport can reuse the connection. A read
	// failure mid-body still counts against the attempt.
	_, err = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if err != nil {
		return Outcome{Duration: time.Since(start), Err: Classify(err)}
	}

	return Outcome{StatusCode: resp.StatusCode, Duration: time.Since(start)}
}

// CloseIdleConnections releases pooled connections after a run.
func (a *HTTPAttempter) CloseIdleConnections() {
	if t, ok := a.client.Transport.(*http.Transport); ok {
		t.CloseIdleConnections()
	}
}
