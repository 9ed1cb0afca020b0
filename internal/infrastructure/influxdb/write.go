package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WritePointValue records a scraped point value.
//
// This is the primary method for recording point telemetry. The write is
// non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - point: The register point name (e.g., "kitchen_light_state")
//   - entityID: The backing hub entity (e.g., "light.kitchen")
//   - value: The decoded value (numeric or string)
//   - timestamp: When the value was scraped
//
// Example:
//
//	client.WritePointValue("thermostat_setpoint", "climate.thermostat", 21.5, time.Now())
func (c *Client) WritePointValue(point string, entityID string, value any, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	p := write.NewPoint(
		"point_values",
		map[string]string{
			"point":     point,
			"entity_id": entityID,
		},
		map[string]interface{}{
			"value": value,
		},
		timestamp,
	)

	c.writeAPI.WritePoint(p)
}

// WriteScrapeStats records the outcome of a full scrape cycle.
//
// Used for monitoring scrape latency and failure rates over time.
//
// Parameters:
//   - points: Total points in the register table
//   - scraped: Points successfully read this cycle
//   - failed: Points that returned errors this cycle
//   - duration: Wall-clock time for the full cycle
//   - timestamp: When the cycle completed
func (c *Client) WriteScrapeStats(points, scraped, failed int, duration time.Duration, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	p := write.NewPoint(
		"scrape",
		map[string]string{},
		map[string]interface{}{
			"points":      points,
			"scraped":     scraped,
			"failed":      failed,
			"duration_ms": float64(duration.Milliseconds()),
		},
		timestamp,
	)

	c.writeAPI.WritePoint(p)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("system_stats",
//	    map[string]string{"host": "bridge-01"},
//	    map[string]interface{}{"cpu_percent": 45.2, "memory_mb": 512})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
