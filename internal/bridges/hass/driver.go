package hass

import (
	"context"
	"fmt"
	"sync"

	"github.com/nerrad567/hass-bridge/internal/registry"
)

// HubClient is the transport interface used by the driver.
// This allows mocking the hub in tests and flexibility in implementation.
type HubClient interface {
	// EntityState fetches the state and attributes of one entity.
	EntityState(ctx context.Context, entityID string) (EntityState, error)

	// CallService invokes a hub service with a JSON payload.
	CallService(ctx context.Context, domain, service string, payload map[string]any) error
}

// Driver translates between uniform point operations and hub entity calls.
// It is stateless apart from the cached values held by the register table.
//
// Thread Safety: methods are safe for concurrent use, but concurrent writers
// to the same point race on the cached value (see internal/registry).
type Driver struct {
	table *registry.Table
	hub   HubClient

	logger   Logger
	loggerMu sync.RWMutex
}

// NewDriver creates a driver over a built register table and hub client.
func NewDriver(table *registry.Table, hub HubClient, logger Logger) (*Driver, error) {
	if table == nil {
		return nil, fmt.Errorf("hass: register table is required")
	}
	if hub == nil {
		return nil, fmt.Errorf("hass: hub client is required")
	}
	return &Driver{
		table:  table,
		hub:    hub,
		logger: logger,
	}, nil
}

// Table returns the driver's register table.
func (d *Driver) Table() *registry.Table {
	return d.table
}

// GetPoint reads a single point from the hub and decodes it to its uniform
// value. The cached value is updated on success. When the hub reports a
// transitional state the codec cannot translate, the last known value is
// returned unchanged.
//
// Returns:
//   - any: the decoded point value
//   - error: registry.ErrPointNotFound, ErrUnexpectedState, or ErrTransport
func (d *Driver) GetPoint(ctx context.Context, name string) (any, error) {
	point, err := d.table.Lookup(name)
	if err != nil {
		return nil, err
	}

	state, err := d.hub.EntityState(ctx, point.EntityID)
	if err != nil {
		return nil, err
	}

	value, ok, err := d.decodePoint(point, state)
	if err != nil {
		return nil, err
	}
	if !ok {
		d.logWarn("state carries no value, returning last known",
			"point", name, "entity_id", point.EntityID, "state", state.State)
		return point.Value(), nil
	}

	point.SetValue(value)
	return value, nil
}

// WritePoint writes a single point: read-only guard, coercion to the
// declared type, domain validation, hub service call, cache update.
//
// Returns:
//   - any: the coerced value that was written
//   - error: registry.ErrPointNotFound, ErrReadOnly, registry.ErrTypeMismatch,
//     ErrValidation, ErrUnsupportedPoint, ErrUnsupportedDomain, or ErrTransport
func (d *Driver) WritePoint(ctx context.Context, name string, value any) (any, error) {
	point, err := d.table.Lookup(name)
	if err != nil {
		return nil, err
	}

	if point.ReadOnly {
		return nil, fmt.Errorf("%w: %s", ErrReadOnly, name)
	}

	coerced, err := point.Type.Coerce(value)
	if err != nil {
		return nil, err
	}

	call, err := commandFor(point, coerced)
	if err != nil {
		return nil, err
	}

	if err := d.hub.CallService(ctx, call.domain, call.service, call.payload); err != nil {
		return nil, err
	}

	point.SetValue(coerced)
	d.logInfo("point written",
		"point", name, "entity_id", point.EntityID, "value", coerced)
	return coerced, nil
}

// SetLogger sets the logger for the driver.
func (d *Driver) SetLogger(logger Logger) {
	d.loggerMu.Lock()
	d.logger = logger
	d.loggerMu.Unlock()
}

// logInfo logs an info message if logger is set.
func (d *Driver) logInfo(msg string, keysAndValues ...any) {
	d.loggerMu.RLock()
	logger := d.logger
	d.loggerMu.RUnlock()

	if logger != nil {
		logger.Info(msg, keysAndValues...)
	}
}

// logWarn logs a warning if logger is set.
func (d *Driver) logWarn(msg string, keysAndValues ...any) {
	d.loggerMu.RLock()
	logger := d.logger
	d.loggerMu.RUnlock()

	if logger != nil {
		logger.Warn(msg, keysAndValues...)
	}
}

// logError logs an error message if logger is set.
func (d *Driver) logError(msg string, err error) {
	d.loggerMu.RLock()
	logger := d.logger
	d.loggerMu.RUnlock()

	if logger != nil {
		logger.Error(msg, "error", err)
	}
}
