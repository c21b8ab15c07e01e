// Package apperr defines the application error taxonomy shared by the
// lifecycle stages.
//
// Every error carries a human readable description and optional structured
// parameters. The Kind tells the lifecycle controller which stage raised it,
// which in turn decides whether the run aborts (Setup) or continues with the
// remaining stages (Process, Evaluate, Teardown).
package apperr

import (
	"errors"
	"fmt"
)

// Kind categorizes an application error by the stage that raised it.
type Kind int

const (
	// KindGeneric is an application error not bound to a stage.
	KindGeneric Kind = iota
	// KindSetup aborts the run before any business logic executes.
	KindSetup
	// KindProcess is raised from action or processing code.
	KindProcess
	// KindEvaluate is raised while evaluating the run.
	KindEvaluate
	// KindTeardown is raised while persisting state at the end of the run.
	KindTeardown
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindSetup:
		return "setup"
	case KindProcess:
		return "process"
	case KindEvaluate:
		return "evaluate"
	case KindTeardown:
		return "teardown"
	default:
		return "application"
	}
}

// Error is an application error with structured context.
type Error struct {
	Kind        Kind
	Description string
	Params      map[string]interface{}
	Cause       error
}

// Error returns the description. The cause is reachable through Unwrap and
// Detail.
func (e *Error) Error() string {
	return e.Description
}

// Detail returns the description followed by the cause when present.
func (e *Error) Detail() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Description, e.Cause)
	}
	return e.Description
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithCause returns a copy of e that wraps cause.
func (e *Error) WithCause(cause error) *Error {
	cp := *e
	cp.Cause = cause
	return &cp
}

// New creates a generic application error.
func New(description string, params map[string]interface{}) *Error {
	return &Error{Kind: KindGeneric, Description: description, Params: params}
}

// Setup creates an error that aborts application setup.
func Setup(description string, params map[string]interface{}) *Error {
	return &Error{Kind: KindSetup, Description: description, Params: params}
}

// Setupf creates a setup error from a format string.
func Setupf(format string, args ...interface{}) *Error {
	return Setup(fmt.Sprintf(format, args...), nil)
}

// Process creates an error raised by action or processing code.
func Process(description string, params map[string]interface{}) *Error {
	return &Error{Kind: KindProcess, Description: description, Params: params}
}

// Processf creates a process error from a format string.
func Processf(format string, args ...interface{}) *Error {
	return Process(fmt.Sprintf(format, args...), nil)
}

// Evaluate creates an error raised during run evaluation.
func Evaluate(description string, params map[string]interface{}) *Error {
	return &Error{Kind: KindEvaluate, Description: description, Params: params}
}

// Teardown creates an error raised while tearing the application down.
func Teardown(description string, params map[string]interface{}) *Error {
	return &Error{Kind: KindTeardown, Description: description, Params: params}
}

// Teardownf creates a teardown error from a format string.
func Teardownf(format string, args ...interface{}) *Error {
	return Teardown(fmt.Sprintf(format, args...), nil)
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return KindGeneric, false
}

// IsKind reports whether err's chain contains an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
