package mqtt

import "fmt"

// Topic prefixes for the bridge's MQTT namespace.
//
// All point topics use the flat scheme: hassbridge/{category}/{point_name}
// This matches the hass package's messages.go and all runtime subscribers.
const (
	// TopicPrefix is the base for all bridge topics.
	TopicPrefix = "hassbridge"

	// TopicPrefixSystem is the base for process-level system topics.
	TopicPrefixSystem = "hassbridge/system"
)

// Topics provides builders for the bridge's MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.PointState("kitchen_light_state")
//	// Returns: "hassbridge/state/kitchen_light_state"
type Topics struct{}

// PointState returns the topic for point value updates.
//
// Example: hassbridge/state/kitchen_light_state
func (Topics) PointState(point string) string {
	return fmt.Sprintf("%s/state/%s", TopicPrefix, point)
}

// PointCommand returns the topic for write commands to a point.
//
// Example: hassbridge/command/kitchen_light_state
func (Topics) PointCommand(point string) string {
	return fmt.Sprintf("%s/command/%s", TopicPrefix, point)
}

// PointAck returns the topic for command acknowledgements.
//
// Example: hassbridge/ack/kitchen_light_state
func (Topics) PointAck(point string) string {
	return fmt.Sprintf("%s/ack/%s", TopicPrefix, point)
}

// Health returns the bridge health status topic.
//
// Example: hassbridge/health
func (Topics) Health() string {
	return fmt.Sprintf("%s/health", TopicPrefix)
}

// SystemStatus returns the process status topic used for the default
// online/offline announcements.
//
// Example: hassbridge/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllCommands returns a pattern matching all point commands.
//
// Pattern: hassbridge/command/#
func (Topics) AllCommands() string {
	return fmt.Sprintf("%s/command/#", TopicPrefix)
}

// AllStates returns a pattern matching all point state updates.
//
// Pattern: hassbridge/state/#
func (Topics) AllStates() string {
	return fmt.Sprintf("%s/state/#", TopicPrefix)
}

// AllAcks returns a pattern matching all command acknowledgements.
//
// Pattern: hassbridge/ack/#
func (Topics) AllAcks() string {
	return fmt.Sprintf("%s/ack/#", TopicPrefix)
}

// AllTopics returns a pattern matching every bridge topic.
// Use with caution - this receives ALL traffic.
//
// Pattern: hassbridge/#
func (Topics) AllTopics() string {
	return "hassbridge/#"
}
