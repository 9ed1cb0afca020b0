// Package api implements the HTTP REST API for the Home Assistant bridge.
//
// This package provides:
//   - REST endpoints for point reads, writes, and on-demand scrapes
//   - Register table introspection
//   - Middleware stack (request ID, logging, recovery, CORS)
//
// # Architecture
//
// The API server sits alongside the MQTT command path as a second way to
// interact with the driver. Reads go straight to the hub; writes dispatch
// the same service calls as MQTT commands.
//
// # Graceful Degradation
//
// The server operates without MQTT — the REST surface talks to the driver
// directly, so reads and writes keep working if the broker is down.
package api
