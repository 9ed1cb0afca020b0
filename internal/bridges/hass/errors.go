package hass

import (
	"errors"
	"fmt"
)

// Domain errors for the Home Assistant bridge package.
var (
	// ErrReadOnly is returned when a write targets a read-only point.
	ErrReadOnly = errors.New("hass: point is read only")

	// ErrValidation is returned when a type-correct value fails a domain's
	// range or membership rule (e.g. brightness 300).
	ErrValidation = errors.New("hass: value not valid for point")

	// ErrUnsupportedDomain is returned when a write targets an entity domain
	// with no command mapping (the generic fallback).
	ErrUnsupportedDomain = errors.New("hass: writes not supported for entity domain")

	// ErrUnsupportedPoint is returned when the entity point is not writable
	// for the entity's domain (e.g. climate humidity).
	ErrUnsupportedPoint = errors.New("hass: entity point not supported for domain")

	// ErrUnexpectedState is returned when the hub reports a state string
	// the codec cannot translate (e.g. climate "heat_cool").
	ErrUnexpectedState = errors.New("hass: unexpected entity state")

	// ErrTransport is returned when a hub request fails at the HTTP level.
	ErrTransport = errors.New("hass: hub request failed")
)

// TransportError carries the details of a failed hub request. It matches
// ErrTransport under errors.Is.
type TransportError struct {
	// Op describes the attempted operation (e.g. "get state of light.kitchen").
	Op string

	// StatusCode is the HTTP status, or 0 if the request never completed.
	StatusCode int

	// Body is the response body for non-2xx responses, truncated.
	Body string

	// Err is the underlying error for connection-level failures.
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("hass: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("hass: %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Unwrap returns the underlying connection error, if any.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrTransport, so callers can use errors.Is
// without knowing the concrete type.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}
