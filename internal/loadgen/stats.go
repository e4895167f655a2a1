package loadgen

import (
	"math"
	"sort"
	"sync"
	"time"
)

// Aggregator accumulates outcomes into running statistics. The Runner's
// collector goroutine is the only writer; Snapshot is safe to call from other
// goroutines while a run is in progress. Accumulation is commutative, so the
// final summary does not depend on settlement order.
type Aggregator struct {
	mu sync.Mutex

	total      int
	completed  int
	success    int // status 200 exactly
	failure    int
	sumSec     float64
	sumSqSec   float64
	minLatency time.Duration // -1 until first sample
	maxLatency time.Duration

	// samples is append-only and keeps every duration, failed requests
	// included, for exact percentile calculation at finalize time.
	samples     []time.Duration
	statusCodes map[int]int
	errorKinds  map[ErrorKind]int
}

// NewAggregator creates an aggregator expecting total outcomes.
func NewAggregator(total int) *Aggregator {
	return &Aggregator{
		total:       total,
		minLatency:  -1,
		maxLatency:  -1,
		samples:     make([]time.Duration, 0, total),
		statusCodes: make(map[int]int),
		errorKinds:  make(map[ErrorKind]int),
	}
}

// Ingest records one settled outcome. Called exactly once per logical
// request.
func (a *Aggregator) Ingest(o Outcome) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.completed++
	sec := o.Duration.Seconds()
	a.sumSec += sec
	a.sumSqSec += sec * sec
	a.samples = append(a.samples, o.Duration)

	if a.minLatency == -1 || o.Duration < a.minLatency {
		a.minLatency = o.Duration
	}
	if o.Duration > a.maxLatency {
		a.maxLatency = o.Duration
	}

	if o.Err != nil {
		a.failure++
		a.errorKinds[o.Err.Kind]++
		return
	}

	a.statusCodes[o.StatusCode]++
	// Success means status 200 exactly; every other status is a failure.
	if o.StatusCode == 200 {
		a.success++
	} else {
		a.failure++
	}
}

// Snapshot is a point-in-time copy of the running statistics, used by the
// live progress view.
type Snapshot struct {
	Total     int
	Completed int
	Success   int
	Failure   int
	Mean      time.Duration
	Min       time.Duration
	Max       time.Duration
	P50       time.Duration
	P95       time.Duration
	P99       time.Duration
}

// Progress returns the completion fraction in percent.
func (s Snapshot) Progress() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Completed) / float64(s.Total) * 100
}

// Snapshot returns a consistent copy of the current statistics.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap := Snapshot{
		Total:     a.total,
		Completed: a.completed,
		Success:   a.success,
		Failure:   a.failure,
		Min:       a.minLatency,
		Max:       a.maxLatency,
	}
	if snap.Min == -1 {
		snap.Min = 0
	}
	if snap.Max == -1 {
		snap.Max = 0
	}
	if a.completed > 0 {
		snap.Mean = time.Duration(a.sumSec / float64(a.completed) * float64(time.Second))
	}
	sorted := make([]time.Duration, len(a.samples))
	copy(sorted, a.samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	snap.P50 = percentileSorted(sorted, 50)
	snap.P95 = percentileSorted(sorted, 95)
	snap.P99 = percentileSorted(sorted, 99)
	return snap
}

// Summary is the final aggregated result of a run. It is built once, after
// all outcomes are collected, and never mutated afterwards.
type Summary struct {
	TotalSent     int
	SuccessCount  int
	FailureCount  int
	WallClock     time.Duration
	Throughput    float64 // requests per second over the wall clock
	MeanLatency   time.Duration
	MinLatency    time.Duration
	MaxLatency    time.Duration
	StdDevLatency time.Duration
	P50Latency    time.Duration
	P95Latency    time.Duration
	P99Latency    time.Duration
	StatusCodes   map[int]int
	ErrorKinds    map[ErrorKind]int
}

// Finalize computes the summary over everything ingested so far. wall is the
// dispatcher-measured duration from first dispatch to last settlement.
func (a *Aggregator) Finalize(wall time.Duration) *Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := &Summary{
		TotalSent:    a.completed,
		SuccessCount: a.success,
		FailureCount: a.failure,
		WallClock:    wall,
		MinLatency:   a.minLatency,
		MaxLatency:   a.maxLatency,
		StatusCodes:  make(map[int]int, len(a.statusCodes)),
		ErrorKinds:   make(map[ErrorKind]int, len(a.errorKinds)),
	}
	if s.MinLatency == -1 {
		s.MinLatency = 0
	}
	if s.MaxLatency == -1 {
		s.MaxLatency = 0
	}
	for code, n := range a.statusCodes {
		s.StatusCodes[code] = n
	}
	for kind, n := range a.errorKinds {
		s.ErrorKinds[kind] = n
	}

	n := float64(a.completed)
	if a.completed > 0 {
		mean := a.sumSec / n
		s.MeanLatency = time.Duration(mean * float64(time.Second))
		// Sample standard deviation (n-1 denominator).
		if a.completed > 1 {
			variance := (a.sumSqSec - n*mean*mean) / (n - 1)
			if variance > 0 {
				s.StdDevLatency = time.Duration(math.Sqrt(variance) * float64(time.Second))
			}
		}
	}
	if wall > 0 {
		s.Throughput = n / wall.Seconds()
	}

	sorted := make([]time.Duration, len(a.samples))
	copy(sorted, a.samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	s.P50Latency = percentileSorted(sorted, 50)
	s.P95Latency = percentileSorted(sorted, 95)
	s.P99Latency = percentileSorted(sorted, 99)

	return s
}

// percentileSorted computes an exact percentile over a sorted sample set
// using linear interpolation between the two nearest ranks
// (index = p/100 * (n-1)).
func percentileSorted(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := (p / 100.0) * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := index - float64(lower)
	return time.Duration(float64(sorted[lower])*(1-weight) + float64(sorted[upper])*weight)
}
