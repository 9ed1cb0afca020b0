package hass

import (
	"fmt"
	"time"
)

// MQTT message types for communication between the platform core and the
// Home Assistant bridge.

// CommandMessage is sent from Core to Bridge to write a point.
// Topic: hassbridge/command/{point}
type CommandMessage struct {
	// ID uniquely identifies this command for correlation with acknowledgments.
	ID string `json:"id"`

	// Timestamp is when the command was issued (UTC, ISO8601).
	Timestamp time.Time `json:"timestamp"`

	// Point is the driver-facing point name.
	Point string `json:"point"`

	// Value is the value to write, coerced to the point's declared type.
	Value any `json:"value"`

	// Source indicates where the command originated.
	// Values: "api", "automation", "schedule"
	Source string `json:"source,omitempty"`
}

// AckStatus represents the acknowledgment status of a command.
type AckStatus string

const (
	// AckAccepted indicates the command was executed against the hub.
	AckAccepted AckStatus = "accepted"

	// AckFailed indicates the command could not be executed.
	AckFailed AckStatus = "failed"
)

// AckMessage is sent from Bridge to Core to acknowledge a command.
// Topic: hassbridge/ack/{point}
type AckMessage struct {
	// CommandID is the ID from the original command.
	CommandID string `json:"command_id"`

	// Timestamp is when the acknowledgment was sent (UTC, ISO8601).
	Timestamp time.Time `json:"timestamp"`

	// Point is the driver-facing point name.
	Point string `json:"point"`

	// Status indicates the acknowledgment status.
	Status AckStatus `json:"status"`

	// Value is the coerced value that was written (accepted acks only).
	Value any `json:"value,omitempty"`

	// Error contains details if status is "failed".
	Error *AckError `json:"error,omitempty"`
}

// AckError contains error details for failed commands.
type AckError struct {
	// Code is the error code (e.g. "READ_ONLY", "INVALID_VALUE").
	Code string `json:"code"`

	// Message is a human-readable error description.
	Message string `json:"message"`
}

// Error codes for command failures.
const (
	ErrCodeNotFound       = "POINT_NOT_FOUND"
	ErrCodeReadOnly       = "READ_ONLY"
	ErrCodeInvalidValue   = "INVALID_VALUE"
	ErrCodeUnsupported    = "UNSUPPORTED"
	ErrCodeHubUnreachable = "HUB_UNREACHABLE"
	ErrCodeBridgeError    = "BRIDGE_ERROR"
)

// StateMessage is sent from Bridge to Core when a point value is observed.
// Topic: hassbridge/state/{point}
// QoS: 1, Retained: Yes
type StateMessage struct {
	// Point is the driver-facing point name.
	Point string `json:"point"`

	// Timestamp is when the value was observed (UTC, ISO8601).
	Timestamp time.Time `json:"timestamp"`

	// Value is the uniform point value.
	Value any `json:"value"`

	// EntityID is the backing hub entity.
	EntityID string `json:"entity_id"`
}

// HealthStatus represents the operational status of the bridge.
type HealthStatus string

const (
	// HealthHealthy indicates the bridge is operating normally.
	HealthHealthy HealthStatus = "healthy"

	// HealthDegraded indicates the bridge is operating with issues.
	HealthDegraded HealthStatus = "degraded"

	// HealthOffline indicates the bridge is not connected (from LWT).
	HealthOffline HealthStatus = "offline"

	// HealthStarting indicates the bridge is starting up.
	HealthStarting HealthStatus = "starting"

	// HealthStopping indicates the bridge is shutting down.
	HealthStopping HealthStatus = "stopping"
)

// HealthMessage is sent from Bridge to Core to report operational status.
// Topic: hassbridge/health
// QoS: 1, Retained: Yes
type HealthMessage struct {
	// Bridge is the bridge identifier.
	Bridge string `json:"bridge"`

	// Timestamp is when the health status was generated (UTC, ISO8601).
	Timestamp time.Time `json:"timestamp"`

	// Status indicates the current operational status.
	Status HealthStatus `json:"status"`

	// Version is the bridge software version.
	Version string `json:"version"`

	// UptimeSeconds is how long the bridge has been running.
	UptimeSeconds int64 `json:"uptime_seconds"`

	// PointsManaged is the number of configured points.
	PointsManaged int `json:"points_managed"`

	// HubConnected reports whether the hub answered the last reachability check.
	HubConnected bool `json:"hub_connected"`

	// Reason explains the status (especially for offline/degraded).
	Reason string `json:"reason,omitempty"`
}

// NewAckMessage creates an acknowledgment for a successfully executed command.
func NewAckMessage(cmd CommandMessage, value any) AckMessage {
	return AckMessage{
		CommandID: cmd.ID,
		Timestamp: time.Now().UTC(),
		Point:     cmd.Point,
		Status:    AckAccepted,
		Value:     value,
	}
}

// NewAckError creates an acknowledgment with error details.
func NewAckError(cmd CommandMessage, code, message string) AckMessage {
	return AckMessage{
		CommandID: cmd.ID,
		Timestamp: time.Now().UTC(),
		Point:     cmd.Point,
		Status:    AckFailed,
		Error: &AckError{
			Code:    code,
			Message: message,
		},
	}
}

// NewStateMessage creates a state message for a point.
func NewStateMessage(point, entityID string, value any) StateMessage {
	return StateMessage{
		Point:     point,
		Timestamp: time.Now().UTC(),
		Value:     value,
		EntityID:  entityID,
	}
}

// NewLWTMessage creates a Last Will and Testament message for MQTT.
// The broker publishes it if the bridge disconnects unexpectedly.
func NewLWTMessage(bridgeID string) HealthMessage {
	return HealthMessage{
		Bridge:    bridgeID,
		Timestamp: time.Now().UTC(),
		Status:    HealthOffline,
		Reason:    "unexpected_disconnect",
	}
}

// Topic helpers

const (
	// TopicPrefix is the base topic for all bridge messages.
	TopicPrefix = "hassbridge"
)

// CommandTopic returns the MQTT topic for commands to a specific point.
// Example: hassbridge/command/kitchen_light_state
func CommandTopic(point string) string {
	return fmt.Sprintf("%s/command/%s", TopicPrefix, point)
}

// AckTopic returns the MQTT topic for command acknowledgments.
// Example: hassbridge/ack/kitchen_light_state
func AckTopic(point string) string {
	return fmt.Sprintf("%s/ack/%s", TopicPrefix, point)
}

// StateTopic returns the MQTT topic for point state updates.
// Example: hassbridge/state/kitchen_light_state
func StateTopic(point string) string {
	return fmt.Sprintf("%s/state/%s", TopicPrefix, point)
}

// HealthTopic returns the MQTT topic for health status.
// Example: hassbridge/health
func HealthTopic() string {
	return fmt.Sprintf("%s/health", TopicPrefix)
}

// CommandSubscribeTopic returns the MQTT subscription pattern for all commands.
// Example: hassbridge/command/#
func CommandSubscribeTopic() string {
	return fmt.Sprintf("%s/command/#", TopicPrefix)
}
