package hass

import (
	"context"
	"fmt"
	"time"
)

// ScrapeStats summarises one bulk scrape pass.
type ScrapeStats struct {
	// Points is the number of configured points.
	Points int

	// Scraped is the number of points that yielded a value.
	Scraped int

	// Failed is the number of points skipped due to a per-point error.
	Failed int

	// Duration is how long the pass took.
	Duration time.Duration
}

// ScrapeAll reads every configured point in table order and returns the
// values keyed by point name. Each point is isolated: a hub error or codec
// failure for one point is logged and the pass continues, so the result may
// be partial. Cached values are updated for every successfully read point.
//
// Cancellation of ctx stops the pass early with whatever was collected.
func (d *Driver) ScrapeAll(ctx context.Context) (map[string]any, ScrapeStats) {
	start := time.Now()
	result := make(map[string]any)
	stats := ScrapeStats{Points: d.table.Len()}

	for _, point := range d.table.All() {
		if ctx.Err() != nil {
			d.logWarn("scrape interrupted", "collected", stats.Scraped)
			break
		}

		state, err := d.hub.EntityState(ctx, point.EntityID)
		if err != nil {
			stats.Failed++
			d.logError("scrape failed for point",
				fmt.Errorf("point %s entity %s: %w", point.Name, point.EntityID, err))
			continue
		}

		value, ok, err := d.decodePoint(point, state)
		if err != nil {
			stats.Failed++
			d.logError("scrape failed for point",
				fmt.Errorf("point %s: %w", point.Name, err))
			continue
		}
		if !ok {
			// No value for this pass; the point keeps its previous value.
			continue
		}

		point.SetValue(value)
		result[point.Name] = value
		stats.Scraped++
	}

	stats.Duration = time.Since(start)
	return result, stats
}
