package shapecheck

// Result is the outcome of validating a value: either the parsed value or
// the failure envelope. The zero Result is a failure without detail and is
// never produced by the engine.
type Result[T any] struct {
	ok      bool
	value   T
	failure *Failure
}

// Ok returns a successful result carrying v.
func Ok[T any](v T) Result[T] { return Result[T]{ok: true, value: v} }

// Fail returns a failed result carrying f.
func Fail[T any](f *Failure) Result[T] { return Result[T]{failure: f} }

// OK reports whether validation succeeded.
func (r Result[T]) OK() bool { return r.ok }

// Value returns the parsed value; it is the zero value on failure.
func (r Result[T]) Value() T { return r.value }

// Failure returns the failure envelope; it is nil on success.
func (r Result[T]) Failure() *Failure { return r.failure }

// Unwrap converts the result into the usual (value, error) pair.
func (r Result[T]) Unwrap() (T, error) {
	if r.ok {
		return r.value, nil
	}
	var zero T
	if r.failure == nil {
		return zero, &Failure{Err: &Error{Code: CodeType}}
	}
	return zero, r.failure
}
