package registry

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Registry entry field names. Rows keep the upstream column headings so
// registry files are interchangeable with the platform's CSV exports.
const (
	FieldEntityID      = "Entity ID"
	FieldEntityPoint   = "Entity Point"
	FieldPointName     = "Volttron Point Name"
	FieldUnits         = "Units"
	FieldWritable      = "Writable"
	FieldType          = "Type"
	FieldNotes         = "Notes"
	FieldStartingValue = "Starting Value"
)

// Entry is one raw registry row as loaded from the registry file. Keeping the
// raw map distinguishes a missing column from an empty value.
type Entry map[string]any

// Table is the built register table: point definitions in file order with a
// name index. Read-only after Build.
type Table struct {
	points []*PointDefinition
	byName map[string]*PointDefinition
}

// LoadFile reads a YAML registry file into raw entries.
//
// The file is a YAML list of maps, one per point:
//
//	- Entity ID: light.kitchen
//	  Entity Point: state
//	  Volttron Point Name: kitchen_light_state
//	  Writable: "true"
//	  Type: int
func LoadFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: read %s: %w", path, err)
	}

	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("registry: parse %s: %w", path, err)
	}
	return entries, nil
}

// Build constructs the register table from raw entries.
//
// Entries with an empty (but present) Entity ID are skipped. A missing
// Entity ID, Entity Point, or point name column is a configuration error,
// as is a duplicate point name. Starting values are coerced to the declared
// type; values that fail coercion are discarded.
//
// Returns:
//   - *Table: the built table, points in entry order
//   - error: wrapping ErrMissingField or ErrDuplicatePoint
func Build(entries []Entry) (*Table, error) {
	t := &Table{
		byName: make(map[string]*PointDefinition, len(entries)),
	}

	for i, entry := range entries {
		raw, ok := entry[FieldEntityID]
		if !ok {
			return nil, fmt.Errorf("%w: %q (entry %d)", ErrMissingField, FieldEntityID, i)
		}
		entityID := strings.TrimSpace(fieldString(raw))
		if entityID == "" {
			// Blank rows are placeholders, not errors.
			continue
		}

		raw, ok = entry[FieldEntityPoint]
		if !ok {
			return nil, fmt.Errorf("%w: %q (entry %d, entity %s)", ErrMissingField, FieldEntityPoint, i, entityID)
		}
		entityPoint := strings.TrimSpace(fieldString(raw))

		raw, ok = entry[FieldPointName]
		name := strings.TrimSpace(fieldString(raw))
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q (entry %d, entity %s)", ErrMissingField, FieldPointName, i, entityID)
		}

		if _, exists := t.byName[name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicatePoint, name)
		}

		point := &PointDefinition{
			Name:        name,
			EntityID:    entityID,
			EntityPoint: entityPoint,
			Domain:      DomainForEntity(entityID),
			ReadOnly:    !strings.EqualFold(fieldString(entry[FieldWritable]), "true"),
			Type:        ParseValueType(fieldString(entry[FieldType])),
			Units:       strings.TrimSpace(fieldString(entry[FieldUnits])),
			Description: strings.TrimSpace(fieldString(entry[FieldNotes])),
		}

		if seed, ok := entry[FieldStartingValue]; ok && seed != nil {
			if v, err := point.Type.Coerce(seed); err == nil {
				point.value = v
			}
		}

		t.points = append(t.points, point)
		t.byName[name] = point
	}

	return t, nil
}

// Lookup returns the point definition for a name.
//
// Returns ErrPointNotFound (wrapped with the name) for unknown points.
func (t *Table) Lookup(name string) (*PointDefinition, error) {
	point, ok := t.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPointNotFound, name)
	}
	return point, nil
}

// ListByAccess returns the points whose access mode matches readOnly,
// in table order.
func (t *Table) ListByAccess(readOnly bool) []*PointDefinition {
	var out []*PointDefinition
	for _, p := range t.points {
		if p.ReadOnly == readOnly {
			out = append(out, p)
		}
	}
	return out
}

// All returns every point definition in table order. The returned slice is
// shared; callers must not modify it.
func (t *Table) All() []*PointDefinition {
	return t.points
}

// Len returns the number of points in the table.
func (t *Table) Len() int {
	return len(t.points)
}

// fieldString renders a registry cell as a string. YAML cells may decode as
// string, bool, or number depending on quoting.
func fieldString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}
