package registry

import (
	"fmt"
	"strconv"
	"strings"
)

// Domain represents the Home Assistant entity domain a point belongs to.
//
// The domain selects which codec and dispatch rules apply to a point. It is
// resolved once from the entity-id prefix when the table is built, rather
// than re-parsed from the entity id on every call.
type Domain string

// Domain constants.
const (
	DomainLight        Domain = "light"
	DomainClimate      Domain = "climate"
	DomainFan          Domain = "fan"
	DomainSwitch       Domain = "switch"
	DomainCover        Domain = "cover"
	DomainInputBoolean Domain = "input_boolean"

	// DomainGeneric covers every other entity. Generic points are read-only:
	// state and attributes pass through untranslated.
	DomainGeneric Domain = "generic"
)

// DomainForEntity resolves the domain from a Home Assistant entity id.
//
// Example: "light.kitchen" → DomainLight, "sensor.outdoor_temp" → DomainGeneric.
func DomainForEntity(entityID string) Domain {
	prefix, _, ok := strings.Cut(entityID, ".")
	if !ok {
		return DomainGeneric
	}
	switch Domain(prefix) {
	case DomainLight, DomainClimate, DomainFan, DomainSwitch, DomainCover, DomainInputBoolean:
		return Domain(prefix)
	default:
		return DomainGeneric
	}
}

// ValueType is the declared type of a point, used to coerce write payloads
// before domain validation.
type ValueType string

// ValueType constants.
const (
	TypeString ValueType = "string"
	TypeInt    ValueType = "int"
	TypeFloat  ValueType = "float"
	TypeBool   ValueType = "bool"
)

// ParseValueType maps a registry "Type" field to a ValueType.
//
// Accepted spellings: string, int, integer, float, bool, boolean.
// Anything else (including empty) defaults to string, matching the
// registry schema's default.
func ParseValueType(s string) ValueType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "int", "integer":
		return TypeInt
	case "float":
		return TypeFloat
	case "bool", "boolean":
		return TypeBool
	default:
		return TypeString
	}
}

// Coerce converts a value to the declared type.
//
// Values typically arrive as JSON-decoded any (string, float64, bool) from
// the API or the message bus. Floats coerced to int are truncated.
//
// Returns:
//   - any: the coerced value (string, int, float64, or bool)
//   - error: wrapping ErrTypeMismatch if the value cannot be converted
func (t ValueType) Coerce(v any) (any, error) {
	switch t {
	case TypeInt:
		switch val := v.(type) {
		case int:
			return val, nil
		case int64:
			return int(val), nil
		case float64:
			return int(val), nil
		case bool:
			if val {
				return 1, nil
			}
			return 0, nil
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(val))
			if err != nil {
				return nil, fmt.Errorf("%w: %q is not an int", ErrTypeMismatch, val)
			}
			return n, nil
		}

	case TypeFloat:
		switch val := v.(type) {
		case float64:
			return val, nil
		case int:
			return float64(val), nil
		case int64:
			return float64(val), nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %q is not a float", ErrTypeMismatch, val)
			}
			return f, nil
		}

	case TypeBool:
		switch val := v.(type) {
		case bool:
			return val, nil
		case int:
			return val != 0, nil
		case float64:
			return val != 0, nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(val))
			if err != nil {
				return nil, fmt.Errorf("%w: %q is not a bool", ErrTypeMismatch, val)
			}
			return b, nil
		}

	case TypeString:
		switch val := v.(type) {
		case string:
			return val, nil
		case int:
			return strconv.Itoa(val), nil
		case float64:
			return strconv.FormatFloat(val, 'f', -1, 64), nil
		case bool:
			return strconv.FormatBool(val), nil
		}
	}

	return nil, fmt.Errorf("%w: cannot coerce %T to %s", ErrTypeMismatch, v, t)
}

// PointDefinition is one configured point: a driver-facing name backed by a
// Home Assistant entity/sub-point pair.
//
// All fields are immutable after Build except the cached value.
type PointDefinition struct {
	// Name is the unique driver-facing point name.
	Name string

	// EntityID is the Home Assistant entity identifier (e.g. "light.kitchen").
	EntityID string

	// EntityPoint is the facet of the entity being read or written:
	// "state" or an attribute name ("brightness", "temperature", ...).
	EntityPoint string

	// Domain is resolved from the EntityID prefix at build time.
	Domain Domain

	// ReadOnly is true unless the registry entry's Writable field is "true".
	ReadOnly bool

	// Type is the declared value type, used to coerce write payloads.
	Type ValueType

	// Units is display metadata. For climate temperature points, units of
	// "C" or "celsius" cause Fahrenheit write values to be converted.
	Units string

	// Description is free-text display metadata from the Notes field.
	Description string

	// value is the last known value, seeded from the Starting Value field.
	// Access is NOT synchronised: the command dispatcher and the scrape
	// orchestrator are the only writers, and concurrent writers race
	// (last network response wins).
	value any
}

// Value returns the last known value for the point, or nil if none.
func (p *PointDefinition) Value() any {
	return p.value
}

// SetValue updates the cached value after a successful read or write.
func (p *PointDefinition) SetValue(v any) {
	p.value = v
}
