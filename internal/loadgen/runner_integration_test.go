package loadgen

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testConfig(target string, requests, concurrency int) Config {
	return Config{
		Target:        target,
		TotalRequests: requests,
		Concurrency:   concurrency,
		MaxRetries:    3,
		Timeout:       5 * time.Second,
	}
}

func runToCompletion(t *testing.T, cfg Config) *Result {
	t.Helper()
	runner, err := NewRunner(cfg, nil)
	if err != nil {
		t.Fatalf("Failed to create runner: %v", err)
	}
	runner.Start()
	return runner.Wait()
}

// TestRunner_BasicExecution sends a small run against a healthy server and
// checks the summary end to end.
func TestRunner_BasicExecution(t *testing.T) {
	requestCount := int64(0)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requestCount, 1)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}))
	defer server.Close()

	cfg := testConfig(server.URL, 50, 5)
	cfg.MaxRetries = 1
	result := runToCompletion(t, cfg)

	s := result.Summary
	if s.TotalSent != 50 {
		t.Errorf("TotalSent = %d, want 50", s.TotalSent)
	}
	if s.SuccessCount != 50 || s.FailureCount != 0 {
		t.Errorf("success/failure = %d/%d, want 50/0", s.SuccessCount, s.FailureCount)
	}
	if s.StatusCodes[200] != 50 {
		t.Errorf("StatusCodes = %v, want {200: 50}", s.StatusCodes)
	}
	if len(s.ErrorKinds) != 0 {
		t.Errorf("ErrorKinds = %v, want empty", s.ErrorKinds)
	}
	if result.Cancelled {
		t.Error("run should not be marked cancelled")
	}
	if len(result.Outcomes) != 50 {
		t.Fatalf("got %d outcomes, want 50", len(result.Outcomes))
	}
	if atomic.LoadInt64(&requestCount) != 50 {
		t.Errorf("server saw %d requests, want 50 (no retries on success)", requestCount)
	}

	// Every sequence number settles exactly once.
	seen := make(map[int]bool, 50)
	for _, o := range result.Outcomes {
		if seen[o.Seq] {
			t.Errorf("sequence %d settled twice", o.Seq)
		}
		seen[o.Seq] = true
		if o.Err == nil && o.StatusCode == 0 {
			t.Errorf("outcome %d has neither status nor error", o.Seq)
		}
		if o.Err != nil && o.StatusCode != 0 {
			t.Errorf("outcome %d has both status and error", o.Seq)
		}
	}
	for i := 0; i < 50; i++ {
		if !seen[i] {
			t.Errorf("sequence %d never settled", i)
		}
	}
}

// TestRunner_AllTimeouts points the run at a server that never answers within
// the attempt timeout. Every request must fail with the Timeout kind.
func TestRunner_AllTimeouts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	cfg := testConfig(server.URL, 20, 4)
	cfg.Timeout = 30 * time.Millisecond
	cfg.MaxRetries = 2
	result := runToCompletion(t, cfg)

	s := result.Summary
	if s.SuccessCount != 0 {
		t.Errorf("SuccessCount = %d, want 0", s.SuccessCount)
	}
	if s.FailureCount != 20 {
		t.Errorf("FailureCount = %d, want 20", s.FailureCount)
	}
	if s.ErrorKinds[KindTimeout] != 20 {
		t.Errorf("ErrorKinds = %v, want {Timeout: 20}", s.ErrorKinds)
	}
	if len(s.StatusCodes) != 0 {
		t.Errorf("StatusCodes = %v, want empty", s.StatusCodes)
	}
}

// TestRunner_ServerErrorsNotRetried verifies a 5xx settles the request on the
// first attempt: it counts as a failure but never as a transport error.
func TestRunner_ServerErrorsNotRetried(t *testing.T) {
	requestCount := int64(0)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requestCount, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	result := runToCompletion(t, testConfig(server.URL, 30, 3))

	s := result.Summary
	if s.SuccessCount != 0 || s.FailureCount != 30 {
		t.Errorf("success/failure = %d/%d, want 0/30", s.SuccessCount, s.FailureCount)
	}
	if s.StatusCodes[500] != 30 {
		t.Errorf("StatusCodes = %v, want {500: 30}", s.StatusCodes)
	}
	if len(s.ErrorKinds) != 0 {
		t.Errorf("ErrorKinds = %v, want empty", s.ErrorKinds)
	}
	if got := atomic.LoadInt64(&requestCount); got != 30 {
		t.Errorf("server saw %d requests, want 30 (HTTP errors are not retried)", got)
	}
}

// TestRunner_ConcurrencyCeiling instruments the server to track the maximum
// number of requests in flight at once.
func TestRunner_ConcurrencyCeiling(t *testing.T) {
	var inFlight, maxInFlight int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&inFlight, 1)
		for {
			max := atomic.LoadInt64(&maxInFlight)
			if n <= max || atomic.CompareAndSwapInt64(&maxInFlight, max, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	result := runToCompletion(t, testConfig(server.URL, 60, 5))

	if result.Summary.TotalSent != 60 {
		t.Errorf("TotalSent = %d, want 60", result.Summary.TotalSent)
	}
	if got := atomic.LoadInt64(&maxInFlight); got > 5 {
		t.Errorf("observed %d requests in flight, concurrency ceiling is 5", got)
	}
}

// TestRunner_Cancel stops a run partway through and checks the partial result
// is still coherent.
func TestRunner_Cancel(t *testing.T) {
	settled := make(chan struct{}, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(10 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	runner, err := NewRunner(testConfig(server.URL, 10000, 5), nil)
	if err != nil {
		t.Fatalf("Failed to create runner: %v", err)
	}
	runner.OnProgress(func(done, total int) {
		if done == 10 {
			select {
			case settled <- struct{}{}:
			default:
			}
		}
	})
	runner.Start()

	select {
	case <-settled:
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for the first outcomes")
	}
	result := runner.Stop()

	if !result.Cancelled {
		t.Error("result should be marked cancelled")
	}
	if len(result.Outcomes) == 0 || len(result.Outcomes) >= 10000 {
		t.Errorf("got %d outcomes, want a partial run", len(result.Outcomes))
	}
	if result.Summary.TotalSent != len(result.Outcomes) {
		t.Errorf("TotalSent = %d, outcomes = %d; partial summary must match",
			result.Summary.TotalSent, len(result.Outcomes))
	}
	s := result.Summary
	if s.SuccessCount+s.FailureCount != s.TotalSent {
		t.Errorf("success (%d) + failure (%d) != total (%d)",
			s.SuccessCount, s.FailureCount, s.TotalSent)
	}
}

// TestRunner_ProgressMonotonic checks the progress callback reports a
// non-decreasing settled count ending at the total.
func TestRunner_ProgressMonotonic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	runner, err := NewRunner(testConfig(server.URL, 40, 8), nil)
	if err != nil {
		t.Fatalf("Failed to create runner: %v", err)
	}

	var reports []int
	runner.OnProgress(func(done, total int) {
		if total != 40 {
			t.Errorf("total = %d, want 40", total)
		}
		reports = append(reports, done)
	})
	runner.Start()
	runner.Wait()

	if len(reports) != 40 {
		t.Fatalf("got %d progress reports, want 40", len(reports))
	}
	for i := 1; i < len(reports); i++ {
		if reports[i] < reports[i-1] {
			t.Fatalf("progress went backwards: %d after %d", reports[i], reports[i-1])
		}
	}
	if reports[len(reports)-1] != 40 {
		t.Errorf("final progress = %d, want 40", reports[len(reports)-1])
	}
}

func TestRunner_InvalidConfig(t *testing.T) {
	_, err := NewRunner(Config{}, nil)
	if err == nil {
		t.Fatal("expected an error for an empty config")
	}
}

// TestRunner_RetriesRecoverFlakyServer fails the first attempt of every
// request at the transport level, so each request succeeds on a retry.
func TestRunner_RetriesRecoverFlakyServer(t *testing.T) {
	attempts := int64(0)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&attempts, 1)%2 == 1 {
			// Hijack and drop the connection mid-request.
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Fatal("server does not support hijacking")
			}
			conn, _, err := hj.Hijack()
			if err != nil {
				t.Errorf("hijack failed: %v", err)
				return
			}
			conn.Close()
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := testConfig(server.URL, 20, 1)
	result := runToCompletion(t, cfg)

	s := result.Summary
	if s.SuccessCount != 20 {
		t.Errorf("SuccessCount = %d, want 20 (every request recovers on retry)", s.SuccessCount)
	}
	if s.FailureCount != 0 {
		t.Errorf("FailureCount = %d, want 0", s.FailureCount)
	}
}
