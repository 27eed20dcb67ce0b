package result

import (
	"encoding/json"
	"fmt"
	"runtime/debug"
)

// Result carries either a value or a failure through a chain of steps.
// The zero value is a valid result holding nil.
type Result struct {
	value any
	err   error
	stack string
}

// Of wraps a plain value in a valid result.
func Of(value any) Result {
	return Result{value: value}
}

// Err wraps an error in a failed result, capturing the current stack.
func Err(err error) Result {
	return Result{err: err, stack: string(debug.Stack())}
}

// Errf is Err with fmt.Errorf formatting.
func Errf(format string, args ...any) Result {
	return Err(fmt.Errorf(format, args...))
}

// Try runs fn, converting a returned error or a panic into a failed result.
func Try(fn func() (any, error)) (r Result) {
	defer func() {
		if rec := recover(); rec != nil {
			r = Result{
				err:   fmt.Errorf("panic: %v", rec),
				stack: string(debug.Stack()),
			}
		}
	}()

	v, err := fn()
	if err != nil {
		return Err(err)
	}
	return Of(v)
}

// IsError reports whether the result carries a failure.
func (r Result) IsError() bool {
	return r.err != nil
}

// Then applies fn to the value of a valid result and returns the outcome.
// A failed result passes through unchanged; an error or panic in fn turns
// the chain into a failed result.
func (r Result) Then(fn func(value any) (any, error)) Result {
	if r.err != nil {
		return r
	}
	return Try(func() (any, error) { return fn(r.value) })
}

// OnError applies fn to the failure of a failed result, giving it a chance
// to recover with a substitute value. A valid result passes through.
func (r Result) OnError(fn func(err error) (any, error)) Result {
	if r.err == nil {
		return r
	}
	next := Try(func() (any, error) { return fn(r.err) })
	if next.IsError() {
		// Keep the original stack when the handler merely re-fails.
		if next.stack == "" {
			next.stack = r.stack
		}
	}
	return next
}

// Get returns the value of a valid result, or nil and the failure.
func (r Result) Get() (any, error) {
	return r.value, r.err
}

// GetOr returns the value of a valid result, or fallback on failure.
func (r Result) GetOr(fallback any) any {
	if r.err != nil {
		return fallback
	}
	return r.value
}

// Unwrap returns the carried failure, or nil for a valid result.
func (r Result) Unwrap() error {
	return r.err
}

// Stack returns the stack trace captured when the result failed.
func (r Result) Stack() string {
	return r.stack
}

// ErrorBody is the wire shape a failed result renders to.
type ErrorBody struct {
	Message    string `json:"message"`
	Exception  string `json:"exception"`
	Stacktrace string `json:"stacktrace"`
}

// AsMap returns the body as a generic JSON tree.
func (b ErrorBody) AsMap() map[string]any {
	return map[string]any{
		"message":    b.Message,
		"exception":  b.Exception,
		"stacktrace": b.Stacktrace,
	}
}

// Render returns the value for a valid result, or the ErrorBody describing
// the failure. The second return value reports success.
func (r Result) Render() (any, bool) {
	if r.err == nil {
		return r.value, true
	}
	return ErrorBody{
		Message:    "The requested operation failed.",
		Exception:  r.err.Error(),
		Stacktrace: r.stack,
	}, false
}

// MarshalJSON encodes the value directly, or the error body on failure.
func (r Result) MarshalJSON() ([]byte, error) {
	body, _ := r.Render()
	return json.Marshal(body)
}
