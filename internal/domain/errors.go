package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDataUnavailable means the sensor reading is not yet usable. It is
	// retryable and drives the orchestrator's bounded loop.
	ErrDataUnavailable = errors.New("valid wave data unavailable")

	// ErrReportSuperseded is returned by a store when a newer report for the
	// same key already exists and the write was skipped.
	ErrReportSuperseded = errors.New("report superseded by a newer run")

	// ErrRunInProgress is returned when another run holds the lock for a key.
	ErrRunInProgress = errors.New("report run already in progress")

	// ErrUnknownLocation is returned when a requested location is not in the catalog.
	ErrUnknownLocation = errors.New("unknown location")

	// ErrNotFound is returned by readers when no row exists for a key.
	ErrNotFound = errors.New("not found")
)

// UpstreamFetchError wraps a failed weather or tide refresh. It is logged
// and absorbed; the report is composed from whatever data remains.
type UpstreamFetchError struct {
	Source string
	Err    error
}

func (e *UpstreamFetchError) Error() string {
	return fmt.Sprintf("%s fetch failed: %v", e.Source, e.Err)
}

func (e *UpstreamFetchError) Unwrap() error { return e.Err }

// PersistenceError wraps a failed report store operation. It aborts the run.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist report (%s): %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ConfigurationError reports a missing or invalid setting. It is fatal and
// never retried.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Key, e.Reason)
}
