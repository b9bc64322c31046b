package domain

import (
	"context"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

// ErrorKind classifies a failure for retry and reporting decisions.
type ErrorKind string

const (
	KindValidation            ErrorKind = "validation"
	KindDependencyUnavailable ErrorKind = "dependency_unavailable"
	KindProviderUnavailable   ErrorKind = "provider_unavailable"
	KindRateLimited           ErrorKind = "rate_limited"
	KindTimeout               ErrorKind = "timeout"
	KindInvalidInput          ErrorKind = "invalid_input"
	KindPersistence           ErrorKind = "persistence"
	KindPollTimedOut          ErrorKind = "poll_timed_out"
	KindCanceled              ErrorKind = "canceled"
)

// Retryable reports whether a failure of this kind may succeed on a
// fresh attempt. Invalid input and missing dependencies never will;
// transient provider trouble might.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindProviderUnavailable, KindRateLimited, KindTimeout:
		return true
	default:
		return false
	}
}

// StageError is a classified failure. Stage is empty for request-level
// failures (validation, persistence).
type StageError struct {
	Stage StageKind
	Kind  ErrorKind
	Err   error
}

func (e *StageError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Fail wraps err as a classified stage failure.
func Fail(stage StageKind, kind ErrorKind, err error) *StageError {
	return &StageError{Stage: stage, Kind: kind, Err: err}
}

// Failf is Fail with a formatted message.
func Failf(stage StageKind, kind ErrorKind, format string, args ...any) *StageError {
	return &StageError{Stage: stage, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Classify maps an arbitrary error onto the taxonomy. Context
// cancellation and deadlines win over any wrapped classification;
// everything unclassified is treated as a provider fault.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	}
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindProviderUnavailable
}
