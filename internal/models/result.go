package models

// ResultStatus classifies the outcome of an upstream operation.
type ResultStatus string

const (
	// ResultOK means the value is usable
	ResultOK ResultStatus = "ok"
	// ResultEmpty means nothing was found (unknown symbol, rate limit, blank input)
	ResultEmpty ResultStatus = "empty"
	// ResultFailed means a transport or parse failure occurred
	ResultFailed ResultStatus = "failed"
)

// Result carries {Ok(value) | Empty | Failed(reason)} so the caller decides
// what to surface instead of the data layer hiding failures.
type Result[T any] struct {
	Status ResultStatus
	Value  T
	Reason string
}

// Ok wraps a usable value.
func Ok[T any](value T) Result[T] {
	return Result[T]{Status: ResultOK, Value: value}
}

// Empty reports that no data was available.
func Empty[T any](reason string) Result[T] {
	return Result[T]{Status: ResultEmpty, Reason: reason}
}

// Failed reports a transport or parse failure.
func Failed[T any](reason string) Result[T] {
	return Result[T]{Status: ResultFailed, Reason: reason}
}

// IsOK reports whether the result carries a usable value.
func (r Result[T]) IsOK() bool {
	return r.Status == ResultOK
}
