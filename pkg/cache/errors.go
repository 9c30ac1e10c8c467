package cache

import "errors"

// Sentinel errors shared by cache-backed fetchers.
var (
	// ErrNotFound is returned when a remote resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")
)
