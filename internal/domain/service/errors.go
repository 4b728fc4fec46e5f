package service

import "errors"

// Request-path error taxonomy. Each failure is scoped to a single request;
// nothing here is fatal to the process.
var (
	// ErrInvalidInput marks a malformed or absent request. Fails fast, no
	// downstream call is attempted.
	ErrInvalidInput = errors.New("invalid transaction request")

	// ErrDependencyUnavailable marks an infrastructure failure reaching the
	// profile store or cache.
	ErrDependencyUnavailable = errors.New("profile dependency unavailable")

	// ErrScoringUnavailable marks a failed or timed-out scoring call. No
	// event is published since no assessment exists.
	ErrScoringUnavailable = errors.New("scoring service unavailable")
)
