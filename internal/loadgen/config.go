package loadgen

import (
	"fmt"
	"net/url"
	"time"
)

// Default knobs for a run. These match the values the tool shipped with and
// are used by the CLI when a flag is not provided.
const (
	DefaultTotalRequests = 100000
	DefaultConcurrency   = 100
	DefaultMaxRetries    = 3
	DefaultTimeout       = 1 * time.Second

	// Hard caps to keep a misconfigured run from exhausting the host.
	MaxConcurrency   = 1000
	MaxTotalRequests = 1000000
)

// Config describes a single load test run. It is immutable once the run
// starts; a Runner takes a copy at construction.
type Config struct {
	// Target is the URL every request is issued against.
	Target string

	// TotalRequests is the number of logical requests to dispatch.
	TotalRequests int

	// Concurrency is the hard ceiling on requests in flight at any instant.
	Concurrency int

	// MaxRetries is the total number of attempts per logical request,
	// including the first one. Must be at least 1.
	MaxRetries int

	// Timeout bounds each individual attempt.
	Timeout time.Duration
}

// Validate checks the configuration before a run starts. A config that fails
// validation is fatal; nothing is dispatched.
func (c *Config) Validate() error {
	if c.Target == "" {
		return fmt.Errorf("target URL is required")
	}
	u, err := url.Parse(c.Target)
	if err != nil {
		return fmt.Errorf("invalid target URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("target URL must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("target URL has no host")
	}
	if c.TotalRequests <= 0 {
		return fmt.Errorf("total requests must be greater than 0")
	}
	if c.TotalRequests > MaxTotalRequests {
		return fmt.Errorf("total requests cannot exceed %d", MaxTotalRequests)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be greater than 0")
	}
	if c.Concurrency > MaxConcurrency {
		return fmt.Errorf("concurrency cannot exceed %d", MaxConcurrency)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max retries must be at least 1")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
