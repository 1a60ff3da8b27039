package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/user/docshot/pkg/ports"
)

// ErrorKind classifies a pipeline failure.
type ErrorKind string

const (
	// KindInvalidTarget is a configuration error detected before navigation.
	// It aborts the whole run.
	KindInvalidTarget ErrorKind = "InvalidTarget"
	// KindReadinessTimeout is a selector, font or network wait that exceeded its bound.
	KindReadinessTimeout ErrorKind = "ReadinessTimeout"
	// KindActionFailed is an interaction step whose precondition was not met.
	KindActionFailed ErrorKind = "ActionFailed"
	// KindCaptureWriteFailed is a filesystem error while persisting an image.
	KindCaptureWriteFailed ErrorKind = "CaptureWriteFailed"
	// KindNavigationFailed is a navigation the engine reported as failed.
	KindNavigationFailed ErrorKind = "NavigationFailed"
	// KindBrowserFailed is a page-level engine failure (page creation,
	// viewport, script injection, screenshot).
	KindBrowserFailed ErrorKind = "BrowserFailed"
	// KindCancelled is a wait or run interrupted by the caller.
	KindCancelled ErrorKind = "Cancelled"
)

// Error is a classified pipeline failure.
type Error struct {
	Kind   ErrorKind
	Target string // Target name, empty for run-level errors
	Op     string // Operation that failed, e.g. "click #save"
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Target != "" {
		msg += " [" + e.Target + "]"
	}
	if e.Op != "" {
		msg += " " + e.Op
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf builds an Error with a formatted cause.
func Errorf(kind ErrorKind, target, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Target: target, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain.
// Unclassified errors report KindBrowserFailed.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, context.Canceled) {
		return KindCancelled
	}
	return KindBrowserFailed
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// ClassifyWait turns the error of a bounded wait into a classified Error.
// parent is the caller's context: if it was cancelled the wait is Cancelled,
// otherwise deadline and engine timeouts become ReadinessTimeout and
// anything else becomes fallback.
func ClassifyWait(parent context.Context, err error, fallback ErrorKind, target, op string) *Error {
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	if parent.Err() == context.Canceled || errors.Is(err, context.Canceled) {
		return &Error{Kind: KindCancelled, Target: target, Op: op, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ports.ErrTimeout) {
		return &Error{Kind: KindReadinessTimeout, Target: target, Op: op, Err: err}
	}
	return &Error{Kind: fallback, Target: target, Op: op, Err: err}
}
