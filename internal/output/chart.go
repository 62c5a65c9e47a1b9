package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/campus-velo/velo/internal/models"
	"github.com/campus-velo/velo/internal/series"
)

const defaultChartHeight = 8

// eighths are the partial block glyphs, index = filled eighths of a cell
var eighths = []rune(" ▁▂▃▄▅▆▇█")

// scaleEighths maps counts onto 0..height*8 eighth-cells relative to the peak
func scaleEighths(points []models.UsagePoint, height int) []int {
	peak, _ := series.Peak(points)
	out := make([]int, len(points))
	if peak.Count <= 0 {
		return out
	}
	for i, p := range points {
		out[i] = (p.Count*height*8 + peak.Count/2) / peak.Count
		// Any traffic at all stays visible
		if p.Count > 0 && out[i] == 0 {
			out[i] = 1
		}
	}
	return out
}

// Sparkline renders a series as one block glyph per point
func Sparkline(points []models.UsagePoint) string {
	var sb strings.Builder
	for _, units := range scaleEighths(points, 1) {
		sb.WriteRune(eighths[units])
	}
	return sb.String()
}

// ChartLines renders a series as a column chart of height rows plus an axis
// and an hour label row. Each point takes two cells.
func ChartLines(points []models.UsagePoint, height int) []string {
	if height <= 0 {
		height = defaultChartHeight
	}
	scaled := scaleEighths(points, height)
	lines := make([]string, 0, height+2)

	for row := height - 1; row >= 0; row-- {
		var sb strings.Builder
		sb.WriteString("│")
		for _, units := range scaled {
			u := units - row*8
			if u < 0 {
				u = 0
			}
			if u > 8 {
				u = 8
			}
			sb.WriteRune(eighths[u])
			sb.WriteRune(' ')
		}
		lines = append(lines, strings.TrimRight(sb.String(), " "))
	}

	lines = append(lines, "└"+strings.Repeat("──", len(points)))

	labels := []rune(strings.Repeat(" ", 1+2*len(points)))
	for i := 0; i < len(points); i += 6 {
		hh := []rune(points[i].Hour)
		if len(hh) > 2 {
			hh = hh[:2]
		}
		copy(labels[1+2*i:], hh)
	}
	lines = append(lines, strings.TrimRight(string(labels), " "))
	return lines
}

// RenderUsage renders the 24h utilization chart
func RenderUsage(w io.Writer, points []models.UsagePoint, opts TableOptions) {
	if len(points) == 0 {
		_, _ = fmt.Fprintln(w, "No usage data.")
		return
	}

	c := opts.colors()
	peak, _ := series.Peak(points)

	_, _ = fmt.Fprintf(w, "%s %s\n",
		c.Header("Bikes in use, last 24h"),
		c.Muted("(peak %d at %s, %d bike-hours)", peak.Count, peak.Hour, series.Total(points)),
	)

	lines := ChartLines(points, opts.ChartHeight)
	for i, line := range lines {
		switch {
		case i < len(lines)-2:
			_, _ = fmt.Fprintln(w, c.BarFull("%s", line))
		default:
			_, _ = fmt.Fprintln(w, c.Muted("%s", line))
		}
	}
}
