package registry

import "errors"

// Domain errors for the registry package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, registry.ErrPointNotFound) {
//	    // handle unknown point name
//	}
var (
	// ErrMissingField is returned when a registry entry lacks a required field.
	ErrMissingField = errors.New("registry: missing required field")

	// ErrDuplicatePoint is returned when two entries share a point name.
	ErrDuplicatePoint = errors.New("registry: duplicate point name")

	// ErrPointNotFound is returned when a point name does not exist in the table.
	ErrPointNotFound = errors.New("registry: point not found")

	// ErrTypeMismatch is returned when a value cannot be coerced to a point's
	// declared type.
	ErrTypeMismatch = errors.New("registry: value does not match declared type")
)
