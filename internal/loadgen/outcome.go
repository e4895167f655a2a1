package loadgen

import "time"

// ErrorKind classifies a failed attempt into a closed set of categories.
// Classification happens once, at the attempt layer, so every consumer
// (aggregation, CSV export, persistence) sees the same label for the same
// failure.
type ErrorKind string

const (
	KindTimeout           ErrorKind = "Timeout"
	KindConnectionError   ErrorKind = "ConnectionError"
	KindHTTPProtocolError ErrorKind = "HttpProtocolError"
	KindTooManyRedirects  ErrorKind = "TooManyRedirects"
	KindSocketError       ErrorKind = "SocketError"
	KindOther             ErrorKind = "Other"
)

// RequestError is the classified failure of a request. Kind is always one of
// the ErrorKind constants; Message keeps the underlying error text for
// export and debugging.
type RequestError struct {
	Kind    ErrorKind
	Message string
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.Kind == KindOther {
		return e.Message
	}
	return string(e.Kind)
}

// Outcome is the terminal result of one logical request after all retries.
// Exactly one of StatusCode and Err is meaningful: StatusCode is non-zero iff
// the final attempt got an HTTP response (any status counts, including 4xx
// and 5xx), Err is non-nil iff it did not.
type Outcome struct {
	// Seq is the dispatch sequence number of the logical request.
	Seq int

	// StatusCode is the HTTP status of the final attempt, 0 on failure.
	StatusCode int

	// Duration is the wall time of the last attempt made, whether it
	// succeeded or failed.
	Duration time.Duration

	// Err is the classified failure of the last attempt, nil on success.
	Err *RequestError

	// SettledAt is when the outcome became terminal.
	SettledAt time.Time
}

// OK reports whether the request got an HTTP response. Note this is transport
// success; the aggregator separately counts only status 200 as a successful
// request.
func (o Outcome) OK() bool {
	return o.Err == nil
}
