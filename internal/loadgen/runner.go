package loadgen

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Progress receives (settled, total) after each outcome settles. Calls are
// serialized by the collector goroutine and settled is monotonically
// non-decreasing. The callback must not block.
type Progress func(settled, total int)

// Result is what a completed (or cancelled) run produces: the immutable
// summary plus the raw outcomes in settlement order.
type Result struct {
	Summary   *Summary
	Outcomes  []Outcome
	Cancelled bool
}

// Runner drives a run: it schedules Config.TotalRequests logical requests
// across Config.Concurrency workers, each request going through the retry
// loop, and funnels every outcome through a single collector goroutine into
// the aggregator. Concurrency is a hard ceiling: a worker finishes one
// request before picking up the next, so no more than Concurrency attempts
// are ever in flight.
type Runner struct {
	cfg      Config
	retrier  *Retrier
	agg      *Aggregator
	progress Progress

	ctx        context.Context
	cancelFunc context.CancelFunc

	wg            sync.WaitGroup
	workersReady  sync.WaitGroup
	taskChan      chan int
	resultChan    chan Outcome
	closeOnce     sync.Once
	activeWorkers int32

	start      time.Time
	lastSettle time.Time
	outcomes   []Outcome

	done   chan struct{}
	result *Result
}

// NewRunner validates cfg and prepares a run. attempter may be nil, in which
// case the default HTTP executor is used. A validation failure is the only
// fatal condition; once a run starts, individual request failures are
// recorded as outcomes, never raised.
func NewRunner(cfg Config, attempter Attempter) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if attempter == nil {
		attempter = NewHTTPAttempter(&cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		cfg:        cfg,
		retrier:    NewRetrier(attempter, cfg.MaxRetries),
		agg:        NewAggregator(cfg.TotalRequests),
		ctx:        ctx,
		cancelFunc: cancel,
		taskChan:   make(chan int, cfg.Concurrency*2),
		resultChan: make(chan Outcome, cfg.Concurrency*2),
		outcomes:   make([]Outcome, 0, cfg.TotalRequests),
		done:       make(chan struct{}),
	}, nil
}

// OnProgress registers the progress callback. Must be called before Start.
func (r *Runner) OnProgress(fn Progress) {
	r.progress = fn
}

// Start begins the run. It returns immediately; use Wait for the result.
func (r *Runner) Start() {
	r.start = time.Now()
	r.lastSettle = r.start

	r.workersReady.Add(r.cfg.Concurrency)
	for i := 0; i < r.cfg.Concurrency; i++ {
		r.wg.Add(1)
		go r.worker()
	}

	collectorDone := make(chan struct{})
	go r.collect(collectorDone)

	// Wait for all workers to be receiving before scheduling, so the task
	// channel cannot close before a worker ever saw it.
	go func() {
		ready := make(chan struct{})
		go func() {
			r.workersReady.Wait()
			close(ready)
		}()
		select {
		case <-ready:
			r.schedule()
		case <-r.ctx.Done():
		}
	}()

	go func() {
		r.wg.Wait()
		r.closeResultChan()
		<-collectorDone
		r.finish()
	}()
}

// Wait blocks until the run finishes or is cancelled and returns the result.
func (r *Runner) Wait() *Result {
	<-r.done
	return r.result
}

// Cancel requests a graceful stop. In-flight attempts are abandoned; already
// settled outcomes stay in the result.
func (r *Runner) Cancel() {
	r.cancelFunc()
}

// Stop cancels the run and waits for cleanup.
func (r *Runner) Stop() *Result {
	r.cancelFunc()
	return r.Wait()
}

// Done is closed when the run has fully finished.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// Snapshot returns the current aggregate statistics for live reporting.
func (r *Runner) Snapshot() Snapshot {
	return r.agg.Snapshot()
}

// ActiveWorkers returns the number of workers currently executing a request.
func (r *Runner) ActiveWorkers() int {
	return int(atomic.LoadInt32(&r.activeWorkers))
}

// Elapsed returns the wall time since the run started.
func (r *Runner) Elapsed() time.Duration {
	if r.start.IsZero() {
		return 0
	}
	return time.Since(r.start)
}

// Config returns the run configuration.
func (r *Runner) Config() Config {
	return r.cfg
}

func (r *Runner) schedule() {
	for i := 0; i < r.cfg.TotalRequests; i++ {
		select {
		case <-r.ctx.Done():
			close(r.taskChan)
			return
		case r.taskChan <- i:
		}
	}
	close(r.taskChan)
}

func (r *Runner) worker() {
	defer r.wg.Done()
	r.workersReady.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case seq, ok := <-r.taskChan:
			if !ok {
				return
			}

			atomic.AddInt32(&r.activeWorkers, 1)
			outcome := r.retrier.Execute(r.ctx, r.cfg.Target)
			atomic.AddInt32(&r.activeWorkers, -1)

			outcome.Seq = seq
			outcome.SettledAt = time.Now()

			select {
			case <-r.ctx.Done():
				return
			case r.resultChan <- outcome:
			}
		}
	}
}

// collect is the single consumer of settled outcomes. Funneling every
// outcome through one goroutine serializes aggregator writes and progress
// callbacks without per-outcome locking on the hot path.
func (r *Runner) collect(done chan<- struct{}) {
	defer close(done)

	for outcome := range r.resultChan {
		r.agg.Ingest(outcome)
		r.outcomes = append(r.outcomes, outcome)
		r.lastSettle = outcome.SettledAt

		if r.progress != nil {
			r.progress(len(r.outcomes), r.cfg.TotalRequests)
		}
	}
}

func (r *Runner) closeResultChan() {
	r.closeOnce.Do(func() {
		close(r.resultChan)
	})
}

// finish builds the result after workers and collector have exited. The wall
// clock runs from the first dispatch to the last settlement, not the sum of
// attempt durations.
func (r *Runner) finish() {
	wall := r.lastSettle.Sub(r.start)
	if wall < 0 {
		wall = 0
	}

	r.result = &Result{
		Summary:   r.agg.Finalize(wall),
		Outcomes:  r.outcomes,
		Cancelled: len(r.outcomes) < r.cfg.TotalRequests,
	}
	r.cancelFunc()
	close(r.done)
}
