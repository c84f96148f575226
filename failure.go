package goGate

import (
	"fmt"
	"runtime"
)

// FailureKind defines a public type used by goGate APIs.
//
// FailureKind instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type FailureKind string

const (
	// KindUnauthenticated is an exported constant or variable used by the gating engine.
	KindUnauthenticated FailureKind = "unauthenticated"
	// KindForbidden is an exported constant or variable used by the gating engine.
	KindForbidden FailureKind = "forbidden"
	// KindValidation is an exported constant or variable used by the gating engine.
	KindValidation FailureKind = "validation"
	// KindNotFound is an exported constant or variable used by the gating engine.
	KindNotFound FailureKind = "not_found"
	// KindMethodNotAllowed is an exported constant or variable used by the gating engine.
	KindMethodNotAllowed FailureKind = "method_not_allowed"
	// KindDatabase is an exported constant or variable used by the gating engine.
	KindDatabase FailureKind = "database"
	// KindModel is an exported constant or variable used by the gating engine.
	KindModel FailureKind = "model"
	// KindContainer is an exported constant or variable used by the gating engine.
	KindContainer FailureKind = "container"
	// KindInternal is an exported constant or variable used by the gating engine.
	KindInternal FailureKind = "internal"
)

// Failure is the typed error raised by gates and controllers for conditions
// the caller did not anticipate. Routine denials (missing auth, insufficient
// role, CSRF mismatch, rate limit) are returned as [Decision] values instead;
// a Failure is reserved for broken storage, malformed state, and controller
// errors, and is always intercepted by the [Translator].
type Failure struct {
	Kind    FailureKind
	Message string

	// Status optionally carries the failure's own HTTP status. Zero means
	// "resolve through the translator registry". Values outside 400-599 are
	// ignored at translation time.
	Status int

	// Fields holds field-keyed validation messages, present only for
	// KindValidation failures.
	Fields map[string][]string

	// File and Line record the raise site for debug output.
	File string
	Line int

	// Trace holds up to ten formatted frames from the raise site, exposed
	// only in debug mode.
	Trace []string

	cause error
}

// Error describes the error operation and its observable behavior.
//
// Error may return an error when input validation, dependency calls, or security checks fail.
// Error does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (f *Failure) Error() string {
	if f.cause != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.cause)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Unwrap describes the unwrap operation and its observable behavior.
//
// Unwrap may return an error when input validation, dependency calls, or security checks fail.
// Unwrap does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (f *Failure) Unwrap() error {
	return f.cause
}

// NewFailure describes the newfailure operation and its observable behavior.
//
// NewFailure may return an error when input validation, dependency calls, or security checks fail.
// NewFailure does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewFailure(kind FailureKind, message string) *Failure {
	f := &Failure{Kind: kind, Message: message}
	f.File, f.Line = raiseSite(2)
	f.Trace = captureTrace(2)
	return f
}

// WrapFailure describes the wrapfailure operation and its observable behavior.
//
// WrapFailure may return an error when input validation, dependency calls, or security checks fail.
// WrapFailure does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func WrapFailure(kind FailureKind, message string, cause error) *Failure {
	f := &Failure{Kind: kind, Message: message, cause: cause}
	f.File, f.Line = raiseSite(2)
	f.Trace = captureTrace(2)
	return f
}

// ValidationFailure describes the validationfailure operation and its observable behavior.
//
// ValidationFailure may return an error when input validation, dependency calls, or security checks fail.
// ValidationFailure does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func ValidationFailure(message string, fields map[string][]string) *Failure {
	f := &Failure{Kind: KindValidation, Message: message, Fields: fields}
	f.File, f.Line = raiseSite(2)
	f.Trace = captureTrace(2)
	return f
}

// WithStatus describes the withstatus operation and its observable behavior.
//
// WithStatus may return an error when input validation, dependency calls, or security checks fail.
// WithStatus does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (f *Failure) WithStatus(status int) *Failure {
	f.Status = status
	return f
}

// WithCause records the underlying sentinel so callers can match the failure
// with errors.Is.
func (f *Failure) WithCause(err error) *Failure {
	f.cause = err
	return f
}

func raiseSite(skip int) (string, int) {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "", 0
	}
	return file, line
}

const maxTraceFrames = 10

func captureTrace(skip int) []string {
	pcs := make([]uintptr, maxTraceFrames)
	n := runtime.Callers(skip+1, pcs)
	if n == 0 {
		return nil
	}

	frames := runtime.CallersFrames(pcs[:n])
	out := make([]string, 0, n)
	for {
		frame, more := frames.Next()
		out = append(out, fmt.Sprintf("%s (%s:%d)", frame.Function, frame.File, frame.Line))
		if !more || len(out) == maxTraceFrames {
			break
		}
	}
	return out
}
