package hass

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nerrad567/hass-bridge/internal/registry"
)

// mockHub implements HubClient for testing.
type mockHub struct {
	mu       sync.Mutex
	states   map[string]EntityState
	stateErr map[string]error
	calls    []hubCall
	callErr  error
}

type hubCall struct {
	Domain  string
	Service string
	Payload map[string]any
}

func (m *mockHub) EntityState(ctx context.Context, entityID string) (EntityState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.stateErr[entityID]; ok {
		return EntityState{}, err
	}
	if es, ok := m.states[entityID]; ok {
		return es, nil
	}
	return EntityState{}, &TransportError{Op: "get state of " + entityID, StatusCode: 404, Body: "not found"}
}

func (m *mockHub) CallService(ctx context.Context, domain, service string, payload map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.callErr != nil {
		return m.callErr
	}
	m.calls = append(m.calls, hubCall{Domain: domain, Service: service, Payload: payload})
	return nil
}

func (m *mockHub) Calls() []hubCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func testEntries() []registry.Entry {
	return []registry.Entry{
		{
			registry.FieldEntityID:    "light.kitchen",
			registry.FieldEntityPoint: "state",
			registry.FieldPointName:   "kitchen_light_state",
			registry.FieldWritable:    "true",
			registry.FieldType:        "int",
		},
		{
			registry.FieldEntityID:    "light.kitchen",
			registry.FieldEntityPoint: "brightness",
			registry.FieldPointName:   "kitchen_light_brightness",
			registry.FieldWritable:    "true",
			registry.FieldType:        "int",
		},
		{
			registry.FieldEntityID:    "climate.thermostat",
			registry.FieldEntityPoint: "state",
			registry.FieldPointName:   "thermostat_mode",
			registry.FieldWritable:    "true",
			registry.FieldType:        "int",
		},
		{
			registry.FieldEntityID:    "climate.thermostat",
			registry.FieldEntityPoint: "temperature",
			registry.FieldPointName:   "thermostat_setpoint",
			registry.FieldWritable:    "true",
			registry.FieldType:        "float",
			registry.FieldUnits:       "C",
		},
		{
			registry.FieldEntityID:    "sensor.outdoor_temp",
			registry.FieldEntityPoint: "state",
			registry.FieldPointName:   "outdoor_temp",
			registry.FieldType:        "string",
		},
	}
}

func newTestDriver(t *testing.T, hub HubClient) *Driver {
	t.Helper()

	table, err := registry.Build(testEntries())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	d, err := NewDriver(table, hub, nil)
	if err != nil {
		t.Fatalf("NewDriver() error = %v", err)
	}
	return d
}

func TestGetPoint(t *testing.T) {
	hub := &mockHub{states: map[string]EntityState{
		"light.kitchen": {State: "on", Attributes: map[string]any{"brightness": float64(180)}},
	}}
	d := newTestDriver(t, hub)

	got, err := d.GetPoint(context.Background(), "kitchen_light_state")
	if err != nil {
		t.Fatalf("GetPoint() error = %v", err)
	}
	if got != 1 {
		t.Errorf("GetPoint() = %v, want 1", got)
	}

	// Cached value updated
	p, _ := d.Table().Lookup("kitchen_light_state")
	if p.Value() != 1 {
		t.Errorf("cached value = %v, want 1", p.Value())
	}

	got, err = d.GetPoint(context.Background(), "kitchen_light_brightness")
	if err != nil {
		t.Fatalf("GetPoint() error = %v", err)
	}
	if got != float64(180) {
		t.Errorf("GetPoint() = %v, want 180", got)
	}
}

func TestGetPointUnknownName(t *testing.T) {
	d := newTestDriver(t, &mockHub{})

	_, err := d.GetPoint(context.Background(), "no_such_point")
	if !errors.Is(err, registry.ErrPointNotFound) {
		t.Errorf("GetPoint() error = %v, want ErrPointNotFound", err)
	}
}

func TestGetPointTransportError(t *testing.T) {
	d := newTestDriver(t, &mockHub{})

	_, err := d.GetPoint(context.Background(), "kitchen_light_state")
	if !errors.Is(err, ErrTransport) {
		t.Errorf("GetPoint() error = %v, want ErrTransport", err)
	}
}

func TestGetPointTransitionalStateKeepsLastKnown(t *testing.T) {
	hub := &mockHub{states: map[string]EntityState{
		"light.kitchen": {State: "unavailable"},
	}}
	d := newTestDriver(t, hub)

	p, _ := d.Table().Lookup("kitchen_light_state")
	p.SetValue(1)

	got, err := d.GetPoint(context.Background(), "kitchen_light_state")
	if err != nil {
		t.Fatalf("GetPoint() error = %v", err)
	}
	if got != 1 {
		t.Errorf("GetPoint() = %v, want last known value 1", got)
	}
}

func TestWritePoint(t *testing.T) {
	hub := &mockHub{}
	d := newTestDriver(t, hub)

	got, err := d.WritePoint(context.Background(), "kitchen_light_state", float64(1))
	if err != nil {
		t.Fatalf("WritePoint() error = %v", err)
	}
	if got != 1 {
		t.Errorf("WritePoint() = %v, want coerced int 1", got)
	}

	calls := hub.Calls()
	if len(calls) != 1 {
		t.Fatalf("hub received %d calls, want 1", len(calls))
	}
	if calls[0].Domain != "light" || calls[0].Service != "turn_on" {
		t.Errorf("hub call = %s/%s, want light/turn_on", calls[0].Domain, calls[0].Service)
	}

	p, _ := d.Table().Lookup("kitchen_light_state")
	if p.Value() != 1 {
		t.Errorf("cached value = %v, want 1", p.Value())
	}
}

func TestWritePointClimateTemperatureConversion(t *testing.T) {
	hub := &mockHub{}
	d := newTestDriver(t, hub)

	// Point units are "C": the Fahrenheit setpoint is converted for the hub
	if _, err := d.WritePoint(context.Background(), "thermostat_setpoint", 72); err != nil {
		t.Fatalf("WritePoint() error = %v", err)
	}

	calls := hub.Calls()
	if len(calls) != 1 {
		t.Fatalf("hub received %d calls, want 1", len(calls))
	}
	if calls[0].Payload["temperature"] != 22.2 {
		t.Errorf("temperature sent = %v, want 22.2", calls[0].Payload["temperature"])
	}

	// Cache keeps the caller's coerced value, not the converted one
	p, _ := d.Table().Lookup("thermostat_setpoint")
	if p.Value() != 72.0 {
		t.Errorf("cached value = %v, want 72", p.Value())
	}
}

func TestWritePointErrors(t *testing.T) {
	tests := []struct {
		name    string
		point   string
		value   any
		wantErr error
	}{
		{"unknown point", "no_such_point", 1, registry.ErrPointNotFound},
		{"read only", "outdoor_temp", 1, ErrReadOnly},
		{"type mismatch", "kitchen_light_state", "abc", registry.ErrTypeMismatch},
		{"out of range", "kitchen_light_brightness", 300, ErrValidation},
		{"invalid mode", "thermostat_mode", 1, ErrValidation},
	}

	hub := &mockHub{}
	d := newTestDriver(t, hub)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.WritePoint(context.Background(), tt.point, tt.value)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("WritePoint() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if len(hub.Calls()) != 0 {
		t.Errorf("hub received %d calls, want 0 (all writes rejected before dispatch)", len(hub.Calls()))
	}
}

func TestWritePointHubFailureLeavesCache(t *testing.T) {
	hub := &mockHub{callErr: &TransportError{Op: "call service light/turn_on", StatusCode: 500, Body: "boom"}}
	d := newTestDriver(t, hub)

	p, _ := d.Table().Lookup("kitchen_light_state")
	p.SetValue(0)

	_, err := d.WritePoint(context.Background(), "kitchen_light_state", 1)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("WritePoint() error = %v, want ErrTransport", err)
	}
	if p.Value() != 0 {
		t.Errorf("cached value = %v, want unchanged 0 after failed write", p.Value())
	}
}

func TestScrapeAll(t *testing.T) {
	hub := &mockHub{states: map[string]EntityState{
		"light.kitchen":       {State: "on", Attributes: map[string]any{"brightness": float64(128)}},
		"climate.thermostat":  {State: "heat", Attributes: map[string]any{"temperature": 21.5}},
		"sensor.outdoor_temp": {State: "12.3"},
	}}
	d := newTestDriver(t, hub)

	values, stats := d.ScrapeAll(context.Background())

	want := map[string]any{
		"kitchen_light_state":      1,
		"kitchen_light_brightness": float64(128),
		"thermostat_mode":          2,
		"thermostat_setpoint":      21.5,
		"outdoor_temp":             "12.3",
	}
	if len(values) != len(want) {
		t.Fatalf("ScrapeAll() returned %d values, want %d: %v", len(values), len(want), values)
	}
	for name, wantValue := range want {
		if values[name] != wantValue {
			t.Errorf("ScrapeAll()[%s] = %v, want %v", name, values[name], wantValue)
		}
	}

	if stats.Points != 5 || stats.Scraped != 5 || stats.Failed != 0 {
		t.Errorf("stats = %+v, want 5 points, 5 scraped, 0 failed", stats)
	}

	// Cached values updated
	p, _ := d.Table().Lookup("thermostat_mode")
	if p.Value() != 2 {
		t.Errorf("cached value = %v, want 2", p.Value())
	}
}

func TestScrapeAllIsolatesFailures(t *testing.T) {
	hub := &mockHub{
		states: map[string]EntityState{
			"light.kitchen":       {State: "on", Attributes: map[string]any{"brightness": float64(50)}},
			"sensor.outdoor_temp": {State: "9.1"},
		},
		stateErr: map[string]error{
			"climate.thermostat": &TransportError{Op: "get state of climate.thermostat", StatusCode: 500, Body: "boom"},
		},
	}
	d := newTestDriver(t, hub)

	values, stats := d.ScrapeAll(context.Background())

	if len(values) != 3 {
		t.Fatalf("ScrapeAll() returned %d values, want 3 (thermostat points skipped): %v", len(values), values)
	}
	if _, ok := values["thermostat_mode"]; ok {
		t.Error("ScrapeAll() included thermostat_mode despite hub failure")
	}
	if values["kitchen_light_state"] != 1 || values["outdoor_temp"] != "9.1" {
		t.Errorf("ScrapeAll() healthy points wrong: %v", values)
	}

	if stats.Scraped != 3 || stats.Failed != 2 {
		t.Errorf("stats = %+v, want 3 scraped, 2 failed", stats)
	}
}

func TestScrapeAllUnexpectedClimateState(t *testing.T) {
	hub := &mockHub{states: map[string]EntityState{
		"light.kitchen":       {State: "on", Attributes: map[string]any{"brightness": float64(50)}},
		"climate.thermostat":  {State: "heat_cool", Attributes: map[string]any{"temperature": 20.0}},
		"sensor.outdoor_temp": {State: "5"},
	}}
	d := newTestDriver(t, hub)

	values, stats := d.ScrapeAll(context.Background())

	// The mode point fails to decode; the setpoint attribute still scrapes
	if _, ok := values["thermostat_mode"]; ok {
		t.Error("ScrapeAll() included thermostat_mode despite unsupported state")
	}
	if values["thermostat_setpoint"] != 20.0 {
		t.Errorf("thermostat_setpoint = %v, want 20", values["thermostat_setpoint"])
	}
	if stats.Failed != 1 {
		t.Errorf("stats.Failed = %d, want 1", stats.Failed)
	}
}

func TestScrapeAllCancelledContext(t *testing.T) {
	hub := &mockHub{states: map[string]EntityState{
		"light.kitchen": {State: "on"},
	}}
	d := newTestDriver(t, hub)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	values, stats := d.ScrapeAll(ctx)
	if len(values) != 0 || stats.Scraped != 0 {
		t.Errorf("ScrapeAll() with cancelled context collected %d values, want 0", len(values))
	}
}
