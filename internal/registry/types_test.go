package registry

import (
	"errors"
	"testing"
)

func TestDomainForEntity(t *testing.T) {
	tests := []struct {
		entityID string
		want     Domain
	}{
		{"light.kitchen", DomainLight},
		{"climate.thermostat", DomainClimate},
		{"fan.bedroom", DomainFan},
		{"switch.outlet_1", DomainSwitch},
		{"cover.garage_door", DomainCover},
		{"input_boolean.vacation_mode", DomainInputBoolean},
		{"sensor.outdoor_temp", DomainGeneric},
		{"binary_sensor.door", DomainGeneric},
		{"no_dot_at_all", DomainGeneric},
		{"", DomainGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.entityID, func(t *testing.T) {
			if got := DomainForEntity(tt.entityID); got != tt.want {
				t.Errorf("DomainForEntity(%q) = %q, want %q", tt.entityID, got, tt.want)
			}
		})
	}
}

func TestParseValueType(t *testing.T) {
	tests := []struct {
		in   string
		want ValueType
	}{
		{"int", TypeInt},
		{"integer", TypeInt},
		{"INT", TypeInt},
		{"float", TypeFloat},
		{"bool", TypeBool},
		{"boolean", TypeBool},
		{"string", TypeString},
		{"", TypeString},
		{"unknown", TypeString},
		{"  float  ", TypeFloat},
	}

	for _, tt := range tests {
		if got := ParseValueType(tt.in); got != tt.want {
			t.Errorf("ParseValueType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		name    string
		vt      ValueType
		in      any
		want    any
		wantErr bool
	}{
		{"int from int", TypeInt, 42, 42, false},
		{"int from float", TypeInt, float64(3.7), 3, false},
		{"int from string", TypeInt, "17", 17, false},
		{"int from bool", TypeInt, true, 1, false},
		{"int from bad string", TypeInt, "abc", nil, true},
		{"float from float", TypeFloat, 21.5, 21.5, false},
		{"float from int", TypeFloat, 21, 21.0, false},
		{"float from string", TypeFloat, "21.5", 21.5, false},
		{"float from bool", TypeFloat, true, nil, true},
		{"bool from bool", TypeBool, true, true, false},
		{"bool from int", TypeBool, 0, false, false},
		{"bool from string", TypeBool, "true", true, false},
		{"bool from bad string", TypeBool, "maybe", nil, true},
		{"string from string", TypeString, "on", "on", false},
		{"string from int", TypeString, 5, "5", false},
		{"string from bool", TypeString, false, "false", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.vt.Coerce(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Coerce() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrTypeMismatch) {
					t.Errorf("Coerce() error = %v, want ErrTypeMismatch", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("Coerce() = %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestPointValue(t *testing.T) {
	p := &PointDefinition{Name: "test_point"}

	if p.Value() != nil {
		t.Errorf("Value() = %v, want nil before any set", p.Value())
	}

	p.SetValue(42)
	if got := p.Value(); got != 42 {
		t.Errorf("Value() = %v, want 42", got)
	}
}
