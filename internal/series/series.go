// Package series normalises the 24 hour utilization series for charting.
package series

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/campus-velo/velo/internal/models"
)

const defaultHour = "00:00"

// Normalize coerces raw usage records into chart points and orders them so
// the series reads forward from its first hour, wrapping past midnight.
//
// A missing or malformed count becomes 0 and a missing or malformed hour
// becomes "00:00". Records with the same sort key keep their input order.
func Normalize(raw []models.UsageResponse) []models.UsagePoint {
	points := make([]models.UsagePoint, 0, len(raw))
	if len(raw) == 0 {
		return points
	}

	hours := make([]int, len(raw))
	for i, r := range raw {
		h, ok := ParseHour(r.Hour.String())
		if !ok {
			h = 0
		}
		hours[i] = h

		count := r.Count.IntOr(0)
		if count < 0 {
			count = 0
		}
		points = append(points, models.UsagePoint{Hour: FormatHour(h), Count: count})
	}

	anchor := hours[0]
	keys := make([]int, len(hours))
	for i, h := range hours {
		keys[i] = h
		if h < anchor {
			keys[i] = h + 24
		}
	}

	idx := make([]int, len(points))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return keys[idx[a]] < keys[idx[b]]
	})

	sorted := make([]models.UsagePoint, len(points))
	for i, j := range idx {
		sorted[i] = points[j]
	}
	return sorted
}

// ParseHour extracts the hour of day from "HH:MM", "HH" or "H".
func ParseHour(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if i := strings.IndexByte(s, ':'); i >= 0 {
		s = s[:i]
	}
	h, err := strconv.Atoi(s)
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	return h, true
}

// FormatHour renders an hour of day as "HH:00"
func FormatHour(h int) string {
	if h < 0 || h > 23 {
		return defaultHour
	}
	return fmt.Sprintf("%02d:00", h)
}

// Peak returns the first point with the highest count. ok is false for an
// empty series.
func Peak(points []models.UsagePoint) (peak models.UsagePoint, ok bool) {
	for i, p := range points {
		if i == 0 || p.Count > peak.Count {
			peak = p
		}
	}
	return peak, len(points) > 0
}

// Total sums the counts of a series
func Total(points []models.UsagePoint) int {
	total := 0
	for _, p := range points {
		total += p.Count
	}
	return total
}
