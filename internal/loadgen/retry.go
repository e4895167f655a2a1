package loadgen

import "context"

// Retrier wraps an Attempter with a bounded retry loop.
type Retrier struct {
	attempter  Attempter
	maxRetries int
}

// NewRetrier creates a retrier that makes up to maxRetries attempts per
// logical request, including the first one.
func NewRetrier(a Attempter, maxRetries int) *Retrier {
	return &Retrier{attempter: a, maxRetries: maxRetries}
}

// Execute runs sequential attempts against target and returns the first
// transport success, regardless of HTTP status code. If every attempt fails,
// the outcome of the last attempt is returned; earlier attempts' durations
// and errors are discarded. A cancelled context stops retrying early with
// whatever the last attempt produced.
func (r *Retrier) Execute(ctx context.Context, target string) Outcome {
	var last Outcome
	for i := 0; i < r.maxRetries; i++ {
		last = r.attempter.Attempt(ctx, target)
		if last.Err == nil {
			return last
		}
		if ctx.Err() != nil {
			break
		}
	}
	return last
}
