// Package marker turns a station and its derived metrics into a declarative
// map marker. Nothing here draws; renderers read the Description.
package marker

import (
	"fmt"
	"math"

	"github.com/campus-velo/velo/internal/fleet"
	"github.com/campus-velo/velo/internal/models"
	"github.com/lucasb-eyer/go-colorful"
)

// Scheme is a marker colour set as hex strings
type Scheme struct {
	Fill   string `json:"fill"`
	Stroke string `json:"stroke"`
	Text   string `json:"text"`
}

// Description is everything a renderer needs to draw one station marker
type Description struct {
	StationID     string       `json:"stationId"`
	Label         string       `json:"label"`
	Status        fleet.Status `json:"status"`
	Scheme        Scheme       `json:"scheme"`
	Glyph         rune         `json:"glyph"`
	Scale         float64      `json:"scale"`
	FillPercent   float64      `json:"fillPercent"`
	ShowAvailable bool         `json:"showAvailable"`
	Available     int          `json:"available"`
	Pulse         bool         `json:"pulse"`
	Blink         bool         `json:"blink"`
}

// Visible reports whether the marker should be drawn at all
func (d Description) Visible() bool {
	return d.Scale > 0
}

var (
	// Operational fill shades from an empty to a full station
	operationalEmpty = mustHex("#BBF7D0")
	operationalFull  = mustHex("#15803D")

	operationalScheme = Scheme{Fill: "#22C55E", Stroke: "#166534", Text: "#F0FDF4"}
	maintenanceScheme = Scheme{Fill: "#F59E0B", Stroke: "#B45309", Text: "#1C1917"}
	offlineScheme     = Scheme{Fill: "#6B7280", Stroke: "#374151", Text: "#F9FAFB"}
)

// SchemeFor returns the base colour scheme for a status. Anything that is not
// Operational or Maintenance gets the offline scheme.
func SchemeFor(status fleet.Status) Scheme {
	switch status {
	case fleet.Operational:
		return operationalScheme
	case fleet.Maintenance:
		return maintenanceScheme
	}
	return offlineScheme
}

// Describe builds the marker for a station. It is a pure function of its
// arguments: fill is clamped to [0,100] and an unknown status is drawn as
// offline.
func Describe(station models.Station, status fleet.Status, fill float64, revealed bool) Description {
	if status != fleet.Operational && status != fleet.Maintenance {
		status = fleet.Offline
	}
	fill = clampPercent(fill)
	available := fleet.AvailableCount(station.Capacity, station.Docked)

	d := Description{
		StationID:   station.ID,
		Status:      status,
		Scheme:      SchemeFor(status),
		FillPercent: fill,
		Available:   available,
	}
	if revealed {
		d.Scale = 1
	}

	switch status {
	case fleet.Operational:
		d.Scheme.Fill = ShadeForFill(fill)
		d.Glyph = glyphForFill(fill)
		d.ShowAvailable = available > 0
		d.Pulse = revealed && d.ShowAvailable
		d.Label = fmt.Sprintf("%s · %d/%d", station.DisplayName(), clampDocked(station), station.Capacity)
	case fleet.Maintenance:
		d.Glyph = '▲'
		d.Label = fmt.Sprintf("%s · maintenance", station.DisplayName())
	default:
		d.Glyph = '✕'
		d.Blink = revealed
		d.Label = fmt.Sprintf("%s · offline", station.DisplayName())
	}

	return d
}

// DescribeView is Describe for a derived station view
func DescribeView(v fleet.StationView, revealed bool) Description {
	return Describe(v.Station, v.Status, v.Fill, revealed)
}

// ShadeForFill blends the operational fill colour by occupancy
func ShadeForFill(fill float64) string {
	t := clampPercent(fill) / 100
	switch t {
	case 0:
		return operationalEmpty.Hex()
	case 1:
		return operationalFull.Hex()
	}
	return operationalEmpty.BlendLab(operationalFull, t).Clamped().Hex()
}

func glyphForFill(fill float64) rune {
	switch {
	case fill <= 0:
		return '○'
	case fill < 37.5:
		return '◔'
	case fill < 62.5:
		return '◑'
	case fill < 100:
		return '◕'
	}
	return '●'
}

func clampPercent(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func clampDocked(s models.Station) int {
	if s.Docked < 0 {
		return 0
	}
	if s.Capacity > 0 && s.Docked > s.Capacity {
		return s.Capacity
	}
	return s.Docked
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(fmt.Sprintf("marker: bad colour %q: %v", s, err))
	}
	return c
}
