package hass

import (
	"fmt"
	"math"
	"strings"

	"github.com/nerrad567/hass-bridge/internal/registry"
)

// Hub-side value ranges.
const (
	maxBrightness = 255
	maxPercent    = 100
)

// serviceCall is one hub service invocation produced by the dispatcher.
type serviceCall struct {
	domain  string
	service string
	payload map[string]any
}

// commandFor maps a coerced write value onto the hub service call for the
// point's domain and entity point.
//
// Returns:
//   - serviceCall: the call to execute
//   - error: ErrValidation for out-of-range values, ErrUnsupportedPoint for
//     unwritable entity points, ErrUnsupportedDomain for generic entities
func commandFor(p *registry.PointDefinition, value any) (serviceCall, error) {
	switch p.Domain {
	case registry.DomainLight:
		switch p.EntityPoint {
		case "state":
			return onOffCall("light", p, value)
		case "brightness":
			level, ok := intValue(value)
			if !ok || level < 0 || level > maxBrightness {
				return serviceCall{}, fmt.Errorf("%w: brightness must be an integer between 0 and %d, got %v",
					ErrValidation, maxBrightness, value)
			}
			return serviceCall{"light", "turn_on", map[string]any{
				"entity_id":  p.EntityID,
				"brightness": level,
			}}, nil
		default:
			return serviceCall{}, unsupportedPoint(p)
		}

	case registry.DomainInputBoolean:
		if p.EntityPoint == "state" {
			return onOffCall("input_boolean", p, value)
		}
		return serviceCall{}, unsupportedPoint(p)

	case registry.DomainSwitch:
		if p.EntityPoint == "state" {
			return onOffCall("switch", p, value)
		}
		return serviceCall{}, unsupportedPoint(p)

	case registry.DomainFan:
		switch p.EntityPoint {
		case "state":
			return onOffCall("fan", p, value)
		case "percentage":
			speed, ok := intValue(value)
			if !ok || speed < 0 || speed > maxPercent {
				return serviceCall{}, fmt.Errorf("%w: fan percentage must be an integer between 0 and %d, got %v",
					ErrValidation, maxPercent, value)
			}
			return serviceCall{"fan", "set_speed", map[string]any{
				"entity_id": p.EntityID,
				"speed":     speed,
			}}, nil
		default:
			return serviceCall{}, unsupportedPoint(p)
		}

	case registry.DomainClimate:
		switch p.EntityPoint {
		case "state":
			mode, err := hvacMode(value)
			if err != nil {
				return serviceCall{}, err
			}
			return serviceCall{"climate", "set_hvac_mode", map[string]any{
				"entity_id": p.EntityID,
				"hvac_mode": mode,
			}}, nil
		case "temperature":
			temp, ok := floatValue(value)
			if !ok {
				return serviceCall{}, fmt.Errorf("%w: temperature must be numeric, got %v",
					ErrValidation, value)
			}
			if celsiusUnits(p.Units) {
				temp = fahrenheitToCelsius(temp)
			}
			return serviceCall{"climate", "set_temperature", map[string]any{
				"entity_id":   p.EntityID,
				"temperature": temp,
			}}, nil
		default:
			return serviceCall{}, unsupportedPoint(p)
		}

	case registry.DomainCover:
		switch p.EntityPoint {
		case "state":
			state, ok := intValue(value)
			if !ok || (state != 0 && state != 1) {
				return serviceCall{}, stateValidationError(p, value)
			}
			service := "close_cover"
			if state == 1 {
				service = "open_cover"
			}
			return serviceCall{"cover", service, map[string]any{
				"entity_id": p.EntityID,
			}}, nil
		case "position":
			pos, ok := intValue(value)
			if !ok || pos < 0 || pos > maxPercent {
				return serviceCall{}, fmt.Errorf("%w: cover position must be an integer between 0 and %d, got %v",
					ErrValidation, maxPercent, value)
			}
			return serviceCall{"cover", "set_cover_position", map[string]any{
				"entity_id": p.EntityID,
				"position":  pos,
			}}, nil
		default:
			return serviceCall{}, unsupportedPoint(p)
		}

	default:
		return serviceCall{}, fmt.Errorf("%w: %s", ErrUnsupportedDomain, p.EntityID)
	}
}

// onOffCall builds a turn_on/turn_off call from a 1/0 state value.
func onOffCall(domain string, p *registry.PointDefinition, value any) (serviceCall, error) {
	state, ok := intValue(value)
	if !ok || (state != 0 && state != 1) {
		return serviceCall{}, stateValidationError(p, value)
	}
	service := "turn_off"
	if state == 1 {
		service = "turn_on"
	}
	return serviceCall{domain, service, map[string]any{
		"entity_id": p.EntityID,
	}}, nil
}

// hvacMode maps the numeric climate encoding back to a hub mode string.
func hvacMode(value any) (string, error) {
	code, ok := intValue(value)
	if !ok {
		return "", fmt.Errorf("%w: climate state must be an integer value of 0, 2, 3, or 4, got %v",
			ErrValidation, value)
	}
	switch code {
	case climateOff:
		return "off", nil
	case climateHeat:
		return "heat", nil
	case climateCool:
		return "cool", nil
	case climateAuto:
		return "auto", nil
	default:
		return "", fmt.Errorf("%w: climate state must be an integer value of 0, 2, 3, or 4, got %d",
			ErrValidation, code)
	}
}

// stateValidationError reports an invalid on/off state write.
func stateValidationError(p *registry.PointDefinition, value any) error {
	return fmt.Errorf("%w: state value for %s must be an integer value of 1 or 0, got %v",
		ErrValidation, p.EntityID, value)
}

// unsupportedPoint reports an unwritable entity point for a domain.
func unsupportedPoint(p *registry.PointDefinition) error {
	return fmt.Errorf("%w: %s point %q", ErrUnsupportedPoint, p.Domain, p.EntityPoint)
}

// intValue extracts an int from a coerced write value. Only values already
// coerced to int qualify; floats are not silently truncated here.
func intValue(v any) (int, bool) {
	n, ok := v.(int)
	return n, ok
}

// floatValue extracts a float from a coerced write value.
func floatValue(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	default:
		return 0, false
	}
}

// celsiusUnits reports whether a point's units request Fahrenheit-to-Celsius
// conversion on temperature writes.
func celsiusUnits(units string) bool {
	switch strings.ToLower(units) {
	case "c", "celsius":
		return true
	default:
		return false
	}
}

// fahrenheitToCelsius converts and rounds to one decimal place, matching the
// hub's thermostat display precision.
func fahrenheitToCelsius(f float64) float64 {
	return math.Round((f-32)*5/9*10) / 10
}
