package output

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/campus-velo/velo/internal/fleet"
	"github.com/campus-velo/velo/internal/models"
	"github.com/mattn/go-runewidth"
)

const (
	nameWidth       = 24
	defaultBarWidth = 20
)

// TableOptions configures the table output
type TableOptions struct {
	Colors      *Colors
	BarWidth    int
	ChartHeight int
}

func (o TableOptions) colors() *Colors {
	if o.Colors == nil {
		return NewColors(ColorNever)
	}
	return o.Colors
}

func (o TableOptions) barWidth() int {
	if o.BarWidth <= 0 {
		return defaultBarWidth
	}
	return o.BarWidth
}

// padRight pads or truncates s to exactly width terminal cells
func padRight(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "…")
	}
	return runewidth.FillRight(s, width)
}

// CapacityBar draws fill (0-100) as a bar of width cells
func CapacityBar(fill float64, width int, c *Colors) string {
	if c == nil {
		c = NewColors(ColorNever)
	}
	if width <= 0 {
		width = defaultBarWidth
	}
	if math.IsNaN(fill) || fill < 0 {
		fill = 0
	}
	if fill > 100 {
		fill = 100
	}
	full := int(math.Round(fill / 100 * float64(width)))
	return c.BarFull("%s", strings.Repeat("█", full)) + c.BarEmpty("%s", strings.Repeat("░", width-full))
}

// RenderStations renders station views as a table
func RenderStations(w io.Writer, views []fleet.StationView, opts TableOptions) {
	if len(views) == 0 {
		_, _ = fmt.Fprintln(w, "No stations found.")
		return
	}

	c := opts.colors()
	bw := opts.barWidth()

	_, _ = fmt.Fprintf(w, "%s  %s  %s  %s  %s\n",
		c.Header("%s", padRight("STATION", nameWidth)),
		c.Header("%s", padRight("STATUS", 11)),
		c.Header("%7s", "DOCKED"),
		c.Header("%s", padRight("FILL", bw+6)),
		c.Header("FREE"),
	)

	for _, v := range views {
		// Offline stations report no availability
		free := c.Number("%4d", v.Available)
		if v.Status != fleet.Operational {
			free = c.Muted("%4s", "-")
		}

		_, _ = fmt.Fprintf(w, "%s  %s  %7s  %s %4.0f%%  %s\n",
			c.Name("%s", padRight(v.DisplayName(), nameWidth)),
			c.Status(v.Status),
			fmt.Sprintf("%d/%d", v.Docked, v.Capacity),
			CapacityBar(v.Fill, bw, c),
			v.Fill,
			free,
		)
	}
}

// RenderBikes renders bikes as a table
func RenderBikes(w io.Writer, bikes []models.Bike, opts TableOptions) {
	if len(bikes) == 0 {
		_, _ = fmt.Fprintln(w, "No bikes found.")
		return
	}

	c := opts.colors()

	_, _ = fmt.Fprintf(w, "%s  %s  %s  %s  %s\n",
		c.Header("%s", padRight("BIKE", 10)),
		c.Header("%s", padRight("STATUS", 11)),
		c.Header("%s", padRight("STATION", nameWidth)),
		c.Header("%9s", "SPEED"),
		c.Header("%10s", "DISTANCE"),
	)

	for _, b := range bikes {
		station := b.StationName()
		stationStr := c.Name("%s", padRight(station, nameWidth))
		if b.Station == nil {
			stationStr = c.Muted("%s", padRight(station, nameWidth))
		}

		_, _ = fmt.Fprintf(w, "%s  %s  %s  %9s  %10s\n",
			c.Number("%s", padRight(b.ID, 10)),
			c.BikeStatus(b.Status),
			stationStr,
			fmt.Sprintf("%.1f km/h", b.AvgSpeed),
			fmt.Sprintf("%.1f km", b.Distance),
		)
	}
}

// Overview is the aggregate view of one fleet fetch
type Overview struct {
	Online   bool                 `json:"online"`
	Stations fleet.StationSummary `json:"stations"`
	Bikes    fleet.BikeCounts     `json:"bikes"`
	Usage    []models.UsagePoint  `json:"usage"`
	Excluded int                  `json:"excluded"`
}

// RenderOverview renders the summary cards followed by the usage chart
func RenderOverview(w io.Writer, ov Overview, opts TableOptions) {
	c := opts.colors()

	conn := c.Operational("online")
	if !ov.Online {
		conn = c.Offline("OFFLINE - stations shown as offline")
	}
	_, _ = fmt.Fprintf(w, "%s %s\n\n", c.Header("Connectivity:"), conn)

	_, _ = fmt.Fprintln(w, c.Header("Stations"))
	_, _ = fmt.Fprintf(w, "  %s %s\n", c.Muted("%s", padRight("Total", 14)), c.Number("%d", ov.Stations.Total))
	for _, s := range fleet.Statuses {
		_, _ = fmt.Fprintf(w, "  %s %s\n", c.Status(s)+"   ", c.Number("%d", ov.Stations.PerStatus[s]))
	}
	_, _ = fmt.Fprintf(w, "  %s %s %s %.0f%%\n",
		c.Muted("%s", padRight("Docked", 14)),
		c.Number("%d/%d", ov.Stations.Docked, ov.Stations.Capacity),
		CapacityBar(ov.Stations.Fill, opts.barWidth(), c),
		ov.Stations.Fill,
	)
	_, _ = fmt.Fprintf(w, "  %s %s\n", c.Muted("%s", padRight("Free docks", 14)), c.Number("%d", ov.Stations.Available))

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, c.Header("Bikes"))
	_, _ = fmt.Fprintf(w, "  %s %s\n", c.Muted("%s", padRight("Total", 14)), c.Number("%d", ov.Bikes.Total))
	for _, s := range ov.Bikes.Buckets() {
		_, _ = fmt.Fprintf(w, "  %s    %s\n", c.BikeStatus(s), c.Number("%d", ov.Bikes.Count(s)))
	}

	if ov.Excluded > 0 {
		_, _ = fmt.Fprintf(w, "\n%s\n", c.Warn("%d malformed record(s) excluded", ov.Excluded))
	}

	if len(ov.Usage) > 0 {
		_, _ = fmt.Fprintln(w)
		RenderUsage(w, ov.Usage, opts)
	}
}
