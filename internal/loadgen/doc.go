/*
Package loadgen implements the concurrent request engine behind surge.

# Overview

A run fires a configured number of GET requests against a single target URL
through a fixed-size worker pool, retries failed attempts up to a limit, and
aggregates every terminal outcome into summary statistics.

The package is organized around four pieces:

 1. Attempter (attempt.go): one HTTP GET with a per-attempt timeout,
    returning a classified Outcome. Never retries.
 2. Retrier (retry.go): bounded retry loop over an Attempter. Returns the
    first transport success or the last failure.
 3. Runner (runner.go): worker pool, scheduler, and result collector.
 4. Aggregator (stats.go): streaming accumulation plus exact percentiles.

# Runner design

The Runner uses a worker pool pattern:
  - Fixed number of concurrent workers, each running one request to
    completion before taking the next
  - Shared HTTP client with connection pooling sized to the worker count
  - Task channel for work distribution, result channel for collection
  - A single collector goroutine that owns all aggregation state
  - Context-based cancellation

Worker lifecycle:
 1. Workers signal ready via WaitGroup
 2. Scheduler queues sequence numbers
 3. Workers execute the retry loop and send outcomes
 4. The collector ingests outcomes and fires progress callbacks
 5. Cleanup on completion or cancellation

# Outcomes

Every logical request settles into exactly one Outcome carrying either an
HTTP status code or a classified error, never both. Any HTTP status is a
transport success at the attempt layer; the aggregator counts only status
200 as a successful request. Failed requests still contribute their duration
to the latency statistics.

# Statistics

Mean, min, max, and standard deviation are maintained as running values;
percentiles (P50/P95/P99) are computed at finalize time from the full sorted
sample set with linear interpolation, not a streaming approximation.
Aggregation is commutative, so results do not depend on the order in which
concurrent requests settle.

# Example

	cfg := loadgen.Config{
		Target:        "http://localhost:8084",
		TotalRequests: 1000,
		Concurrency:   50,
		MaxRetries:    3,
		Timeout:       time.Second,
	}

	runner, err := loadgen.NewRunner(cfg, nil)
	if err != nil {
		return err
	}

	runner.Start()
	result := runner.Wait()

	fmt.Printf("success: %d/%d\n", result.Summary.SuccessCount, result.Summary.TotalSent)
	fmt.Printf("p95: %s\n", result.Summary.P95Latency)

# Thread safety

Runner.Snapshot, ActiveWorkers, and Elapsed are safe to call from other
goroutines while a run is in progress; the live progress view polls them.
Everything else on Runner is meant to be driven from a single goroutine.
*/
package loadgen
