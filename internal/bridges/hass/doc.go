// Package hass implements the Home Assistant protocol bridge.
//
// This package drives Home Assistant entities through the hub's REST API.
// It translates between the platform's uniform point values and Home
// Assistant's entity state/attribute payloads.
//
// # Architecture
//
// The bridge operates as a translator between two surfaces:
//
//	┌─────────────────┐          ┌─────────────────┐
//	│    Platform     │   MQTT   │   HASS Bridge   │   REST
//	│      Core       │◄────────►│   (this pkg)    │◄────────► Home Assistant
//	└─────────────────┘  + HTTP  └─────────────────┘
//
// # Key Responsibilities
//
//   - Read entity state and attributes via GET /api/states/{entity_id}
//   - Execute writes via POST /api/services/{domain}/{service}
//   - Translate hub state strings to uniform numeric point values and back
//   - Scrape every configured point on a poll interval, isolating failures
//   - Accept write commands over MQTT and acknowledge them
//   - Publish per-point state and bridge health status
//
// # Value Translation
//
// Supported entity domains use numeric encodings on the platform side:
//
//   - light/switch/fan/input_boolean state: on=1, off=0
//   - climate state: off=0, heat=2, cool=3, auto=4
//   - cover state: open/opening=1, closed/closing=0
//   - light brightness 0-255, fan percentage 0-100, cover position 0-100
//
// Entities in any other domain fall back to read-only passthrough: the state
// string is returned untranslated and attributes are read as-is.
//
// # Thread Safety
//
// Bridge, Client, and HealthReporter are safe for concurrent use. Driver
// methods may be called concurrently, but cached point values follow the
// register table's single-writer discipline (see internal/registry).
package hass
