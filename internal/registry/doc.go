// Package registry provides the point register table for the Home Assistant
// bridge.
//
// The register table is the in-memory catalogue of configured points. Each
// point maps a driver-facing name onto one Home Assistant entity/sub-point
// pair, together with its access mode, declared value type, and display
// metadata. The table is built once from the registry configuration at
// startup and is immutable afterwards, except for each point's cached value.
//
// # Key Types
//
//   - PointDefinition: one configured point (entity id, sub-point, type, ...)
//   - Table: ordered, name-keyed collection of point definitions
//   - Domain: Home Assistant entity domain, resolved from the entity-id prefix
//   - ValueType: declared point type used to coerce write payloads
//
// # Usage
//
//	entries, err := registry.LoadFile("configs/registry.yaml")
//	if err != nil { ... }
//	table, err := registry.Build(entries)
//	if err != nil { ... }
//
//	point, err := table.Lookup("kitchen_light_state")
//	writable := table.ListByAccess(false)
//
// # Thread Safety
//
// The table itself is read-only after Build and safe for concurrent lookups.
// Each point's cached value is NOT protected by any synchronisation
// primitive: it is mutated only by the command dispatcher and the scrape
// orchestrator, and is safe only under a single-writer-at-a-time usage
// discipline. Concurrent writers race, last response wins.
package registry
