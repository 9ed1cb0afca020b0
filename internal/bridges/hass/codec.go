package hass

import (
	"fmt"

	"github.com/nerrad567/hass-bridge/internal/registry"
)

// Climate hvac mode encoding. Heat pumps and thermostats report mode as a
// string; the platform side carries the numeric code.
const (
	climateOff  = 0
	climateHeat = 2
	climateCool = 3
	climateAuto = 4
)

// decodePoint translates a hub entity payload to a point's uniform value.
//
// Returns:
//   - any: the decoded value
//   - bool: false when the payload yields no value for this point (an
//     unrecognised on/off state); the point keeps its previous value
//   - error: wrapping ErrUnexpectedState for untranslatable climate states
func (d *Driver) decodePoint(p *registry.PointDefinition, es EntityState) (any, bool, error) {
	if p.EntityPoint != "state" {
		return attributeValue(es, p.EntityPoint), true, nil
	}

	switch p.Domain {
	case registry.DomainLight, registry.DomainSwitch, registry.DomainFan, registry.DomainInputBoolean:
		switch es.State {
		case "on":
			return 1, true, nil
		case "off":
			return 0, true, nil
		default:
			// Transitional states like "unavailable" carry no value.
			return nil, false, nil
		}

	case registry.DomainClimate:
		switch es.State {
		case "off":
			return climateOff, true, nil
		case "heat":
			return climateHeat, true, nil
		case "cool":
			return climateCool, true, nil
		case "auto":
			return climateAuto, true, nil
		default:
			return nil, false, fmt.Errorf("%w: climate state %q from %s",
				ErrUnexpectedState, es.State, p.EntityID)
		}

	case registry.DomainCover:
		switch es.State {
		case "open", "opening":
			return 1, true, nil
		case "closed", "closing":
			return 0, true, nil
		default:
			d.logWarn("unsupported cover state, reporting closed",
				"entity_id", p.EntityID, "state", es.State)
			return 0, true, nil
		}

	default:
		// Generic fallback: state passes through untranslated.
		return es.State, true, nil
	}
}

// attributeValue reads an entity attribute, defaulting to 0 when absent.
func attributeValue(es EntityState, name string) any {
	if v, ok := es.Attributes[name]; ok {
		return v
	}
	return 0
}
