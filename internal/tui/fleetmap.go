package tui

import (
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/campus-velo/velo/internal/fleet"
	"github.com/campus-velo/velo/internal/marker"
)

// mapPin is one marker placed at a coordinate
type mapPin struct {
	lat, lon float64
	desc     marker.Description
	selected bool
}

type gridPoint struct {
	col int
	row int
}

// projection maps coordinates onto a character grid. Terminal cells are
// roughly twice as tall as wide, so latitude is halved.
type projection struct {
	minLat, maxLat float64
	minLon, maxLon float64
	scale          float64
	xOffset        float64
	yOffset        float64
	width, height  int
}

// newProjection fits the pins into width x height with 10% padding. A
// degenerate extent (a single station) is widened so it lands centered.
func newProjection(pins []mapPin, width, height int) projection {
	p := projection{
		minLat: pins[0].lat, maxLat: pins[0].lat,
		minLon: pins[0].lon, maxLon: pins[0].lon,
		width: width, height: height,
	}
	for _, pin := range pins[1:] {
		p.minLat = math.Min(p.minLat, pin.lat)
		p.maxLat = math.Max(p.maxLat, pin.lat)
		p.minLon = math.Min(p.minLon, pin.lon)
		p.maxLon = math.Max(p.maxLon, pin.lon)
	}

	// ~100m
	const minSpan = 0.001
	if p.maxLat-p.minLat < minSpan {
		mid := (p.minLat + p.maxLat) / 2
		p.minLat, p.maxLat = mid-minSpan/2, mid+minSpan/2
	}
	if p.maxLon-p.minLon < minSpan {
		mid := (p.minLon + p.maxLon) / 2
		p.minLon, p.maxLon = mid-minSpan/2, mid+minSpan/2
	}

	latPad := (p.maxLat - p.minLat) * 0.1
	lonPad := (p.maxLon - p.minLon) * 0.1
	p.minLat -= latPad
	p.maxLat += latPad
	p.minLon -= lonPad
	p.maxLon += lonPad
	latSpan := p.maxLat - p.minLat
	lonSpan := p.maxLon - p.minLon

	xScale := float64(width-1) / lonSpan
	yScale := float64(height-1) / latSpan * 2.0
	p.scale = math.Min(xScale, yScale)

	p.xOffset = (float64(width-1) - p.scale*lonSpan) / 2
	p.yOffset = (float64(height-1) - p.scale*latSpan/2.0) / 2
	return p
}

// point projects a coordinate, clamped to the grid
func (p projection) point(lat, lon float64) gridPoint {
	col := int(math.Round((lon-p.minLon)*p.scale + p.xOffset))
	row := int(math.Round((p.maxLat-lat)*p.scale/2.0 + p.yOffset))
	return gridPoint{
		col: min(max(col, 0), p.width-1),
		row: min(max(row, 0), p.height-1),
	}
}

// renderFleetMap draws revealed station markers on a character grid.
// Offline markers blink by frame; the selected station is shown in reverse.
func renderFleetMap(pins []mapPin, width, height int, blinkOn bool) string {
	if width < 3 || height < 3 {
		return ""
	}
	var visible []mapPin
	for _, pin := range pins {
		if pin.desc.Visible() {
			visible = append(visible, pin)
		}
	}
	if len(visible) == 0 {
		return ""
	}

	proj := newProjection(visible, width, height)

	grid := make([][]string, height)
	for r := range grid {
		grid[r] = make([]string, width)
		for c := range grid[r] {
			grid[r][c] = " "
		}
	}

	// Selected last so it is never hidden behind a neighbour
	for _, selectedPass := range []bool{false, true} {
		for _, pin := range visible {
			if pin.selected != selectedPass {
				continue
			}
			pt := proj.point(pin.lat, pin.lon)
			grid[pt.row][pt.col] = renderMarker(pin.desc, pin.selected, blinkOn)
		}
	}

	var b strings.Builder
	for r, row := range grid {
		b.WriteString(strings.Join(row, ""))
		if r < height-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderMarker styles one marker glyph from its description
func renderMarker(d marker.Description, selected, blinkOn bool) string {
	glyph := string(d.Glyph)
	if d.Blink && !blinkOn {
		glyph = "·"
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(d.Scheme.Fill))
	if d.Pulse {
		style = style.Bold(true)
	}
	if selected {
		style = style.Reverse(true)
	}
	return style.Render(glyph)
}

// mapPins describes every station view as a pin
func (m Model) mapPins(selectedID string) []mapPin {
	pins := make([]mapPin, 0, len(m.views))
	for _, v := range m.views {
		pins = append(pins, mapPin{
			lat:      v.Lat,
			lon:      v.Lon,
			desc:     marker.DescribeView(v, m.reveal.IsVisible(v.ID)),
			selected: v.ID == selectedID,
		})
	}
	return pins
}

// renderLegend renders the marker key with per-status counts
func (m Model) renderLegend() string {
	glyphs := map[fleet.Status]string{
		fleet.Operational: "●",
		fleet.Maintenance: "▲",
		fleet.Offline:     "✕",
	}
	parts := make([]string, 0, len(fleet.Statuses))
	for _, st := range fleet.Statuses {
		parts = append(parts, styleStatus(st).Render(glyphs[st])+" "+
			styleMuted.Render(strings.ToLower(string(st)))+" "+
			styleNumber.Render(strconv.Itoa(m.summary.PerStatus[st])))
	}
	return strings.Join(parts, "   ")
}
