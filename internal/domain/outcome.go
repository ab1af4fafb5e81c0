package domain

import (
	"errors"
	"fmt"
)

// OutcomeKind classifies how a task ended
type OutcomeKind string

const (
	OutcomeComplete          OutcomeKind = "complete"
	OutcomeAlreadyDownloaded OutcomeKind = "already_downloaded"
	OutcomeCancelled         OutcomeKind = "cancelled"
	OutcomeFailed            OutcomeKind = "failed"
)

// TerminalOutcome is produced exactly once per task
type TerminalOutcome struct {
	Kind   OutcomeKind `json:"kind"`
	Reason string      `json:"reason,omitempty"`
	Err    error       `json:"-"`
}

// Complete returns the outcome of a clean end of stream
func Complete() TerminalOutcome {
	return TerminalOutcome{Kind: OutcomeComplete}
}

// AlreadyDownloaded returns the outcome for a file that was already present
func AlreadyDownloaded() TerminalOutcome {
	return TerminalOutcome{Kind: OutcomeAlreadyDownloaded}
}

// Cancelled returns the outcome of a user cancellation
func Cancelled() TerminalOutcome {
	return TerminalOutcome{Kind: OutcomeCancelled}
}

// Failed wraps a task error into a failed outcome
func Failed(err *TaskError) TerminalOutcome {
	return TerminalOutcome{Kind: OutcomeFailed, Reason: err.Detail(), Err: err}
}

// Message returns the terminal stage message shown to observers
func (o TerminalOutcome) Message() string {
	switch o.Kind {
	case OutcomeComplete:
		return "Complete"
	case OutcomeAlreadyDownloaded:
		return "Already downloaded"
	case OutcomeCancelled:
		return "Cancelled"
	case OutcomeFailed:
		return "Error: " + o.Reason
	default:
		return string(o.Kind)
	}
}

// Succeeded reports whether the downloader produced (or found) the file
func (o TerminalOutcome) Succeeded() bool {
	return o.Kind == OutcomeComplete || o.Kind == OutcomeAlreadyDownloaded
}

// Task error kinds, usable with errors.Is
var (
	ErrStartFailure  = errors.New("downloader failed to start")
	ErrStreamRead    = errors.New("failed to read downloader output")
	ErrUpstreamFatal = errors.New("downloader reported an error")
)

// TaskError is a fatal task failure of one of the kinds above
type TaskError struct {
	Kind error
	Err  error
}

// NewTaskError creates a task error of the given kind
func NewTaskError(kind error, err error) *TaskError {
	return &TaskError{Kind: kind, Err: err}
}

// UpstreamError creates a task error from an ERROR: line of the downloader
func UpstreamError(message string) *TaskError {
	return &TaskError{Kind: ErrUpstreamFatal, Err: errors.New(message)}
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

// Detail returns the underlying cause without the kind prefix
func (e *TaskError) Detail() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Err.Error()
}

func (e *TaskError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
