package models

import "errors"

// Sentinel errors for the analysis and learning pipeline. Callers match
// with errors.Is; lower layers wrap them with context.
var (
	// ErrInvalidURL marks input that cannot be parsed as a URL
	ErrInvalidURL = errors.New("invalid url")

	// ErrInvalidReportType marks a report type outside the closed set
	ErrInvalidReportType = errors.New("invalid report type")

	// ErrUpstreamTimeout marks a classifier call that exceeded its deadline
	ErrUpstreamTimeout = errors.New("classifier timeout")

	// ErrUpstreamError marks a classifier call that failed or answered garbage
	ErrUpstreamError = errors.New("classifier error")

	// ErrModelNotFound marks operations against an unregistered model
	ErrModelNotFound = errors.New("model not found")

	// ErrPersistenceConflict marks a write that lost a uniqueness race
	ErrPersistenceConflict = errors.New("persistence conflict")

	// ErrQueueItemFailure marks one queue entry failing during a drain pass
	ErrQueueItemFailure = errors.New("queue item failure")
)
