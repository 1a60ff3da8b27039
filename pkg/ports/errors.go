package ports

import "errors"

// Sentinel errors adapters translate engine-specific conditions into.
var (
	// ErrElementNotFound reports that a selector matched nothing.
	ErrElementNotFound = errors.New("element not found")

	// ErrTimeout reports that an engine-side wait exceeded its bound.
	ErrTimeout = errors.New("timed out")
)
