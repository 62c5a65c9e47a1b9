package fleet

import (
	"sort"

	"github.com/campus-velo/velo/internal/models"
)

// FillPercentage returns docked/capacity as a percentage clamped to [0,100].
// A station without capacity is 0% full.
func FillPercentage(docked, capacity int) float64 {
	if capacity <= 0 {
		return 0
	}
	pct := float64(docked) / float64(capacity) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// AvailableCount returns the free docks at a station, never negative
func AvailableCount(capacity, docked int) int {
	if n := capacity - docked; n > 0 {
		return n
	}
	return 0
}

// BikeCounts aggregates a bike collection by lifecycle status
type BikeCounts struct {
	Total     int            `json:"total"`
	PerStatus map[string]int `json:"perStatus"`
}

// Count returns the number of bikes with the given status
func (c BikeCounts) Count(status string) int {
	return c.PerStatus[status]
}

// Buckets returns the status names: known statuses first in lifecycle order,
// then any others alphabetically
func (c BikeCounts) Buckets() []string {
	known := []string{models.BikeAvailable, models.BikeInUse, models.BikeMaintenance}
	out := make([]string, 0, len(c.PerStatus))
	seen := make(map[string]bool, len(known))
	for _, k := range known {
		seen[k] = true
		if _, ok := c.PerStatus[k]; ok {
			out = append(out, k)
		}
	}
	var rest []string
	for k := range c.PerStatus {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// AggregateBikeCounts counts bikes per status in a single pass. Unknown
// statuses get their own bucket so the buckets always sum to Total.
func AggregateBikeCounts(bikes []models.Bike) BikeCounts {
	counts := BikeCounts{
		Total:     len(bikes),
		PerStatus: make(map[string]int),
	}
	for _, b := range bikes {
		status := b.Status
		if status == "" {
			status = models.BikeUnknown
		}
		counts.PerStatus[status]++
	}
	return counts
}
