package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/campus-velo/velo/internal/api"
	"github.com/campus-velo/velo/internal/fleet"
	"github.com/campus-velo/velo/internal/marker"
	"github.com/campus-velo/velo/internal/models"
	"github.com/campus-velo/velo/internal/output"
	"github.com/campus-velo/velo/internal/series"
)

// View renders the entire TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	// Layout: header + cards + tabs + panel + status bar
	header := m.renderHeader()
	cards := m.renderCards()
	tabs := m.renderTabs()
	statusBar := m.renderStatusBar()

	panelHeight := m.height - lipgloss.Height(header) - lipgloss.Height(cards) -
		lipgloss.Height(tabs) - lipgloss.Height(statusBar)
	if panelHeight < 5 {
		panelHeight = 5
	}
	panelWidth := m.width - 2 // border
	if panelWidth < 20 {
		panelWidth = 20
	}

	var body string
	switch m.focus {
	case focusMap:
		body = m.renderMapPanel(panelWidth, panelHeight-2)
	case focusStations:
		body = m.renderStationList(panelWidth, panelHeight-2)
	case focusBikes:
		body = m.renderBikeList(panelWidth, panelHeight-2)
	case focusUsage:
		body = m.renderUsagePanel(panelWidth, panelHeight-2)
	}

	border := stylePanelNormal
	if !m.searching {
		border = stylePanelFocused
	}
	panel := border.
		Width(panelWidth).
		Height(panelHeight - 2).
		Render(body)

	return lipgloss.JoinVertical(lipgloss.Left, header, cards, tabs, panel, statusBar)
}

// renderHeader renders the brand line with connectivity and freshness.
func (m Model) renderHeader() string {
	logo := styleLogo.Render("velo") + styleMuted.Render(" · campus fleet")

	var conn string
	if m.online {
		conn = styleOnline.Render("● online")
	} else {
		conn = styleOffline.Render(" OFFLINE ")
	}
	if m.simulator != nil && m.simulator.Forced() {
		conn += styleMuted.Render(" (simulated)")
	}

	var fresh string
	switch {
	case m.loading:
		fresh = m.spinner.View() + styleLoading.Render(" refreshing")
	case !m.lastUpdate.IsZero():
		fresh = styleMuted.Render("updated " + m.lastUpdate.Format("15:04:05") + " (" + formatAge(m.age()) + " ago)")
	}

	return " " + logo + "   " + conn + "   " + fresh
}

// renderCards renders the animated overview numbers.
func (m Model) renderCards() string {
	boxes := make([]string, 0, len(m.cards))
	for i, c := range m.cards {
		v := m.cardValue(i)
		var num string
		if c.suffix == "%" {
			num = fmt.Sprintf("%.1f%%", v)
		} else {
			num = fmt.Sprintf("%d", int(math.Round(v)))
		}
		boxes = append(boxes, styleCard.Render(
			styleMuted.Render(c.label)+"\n"+styleNumber.Render(num)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
}

// renderTabs renders the panel tabs and the search bar.
func (m Model) renderTabs() string {
	tabs := make([]string, 0, len(panelLabels))
	for i, label := range panelLabels {
		text := fmt.Sprintf("%d %s", i+1, label)
		if focusPanel(i) == m.focus {
			tabs = append(tabs, styleTabActive.Render(text))
		} else {
			tabs = append(tabs, styleTab.Render(text))
		}
	}
	line := strings.Join(tabs, " ")

	switch {
	case m.searching:
		line += "   " + m.searchInput.View()
	case m.query() != "":
		line += "   " + styleMuted.Render("search: ") + styleSelected.Render(m.query())
	}
	return line
}

// renderFetchError renders the error state for a failed fetch
func (m Model) renderFetchError() string {
	return styleError.Render(" Error: " + api.Describe(m.fetchErr))
}

// selectedStationID returns the station under the stations cursor
func (m Model) selectedStationID() string {
	views := m.visibleViews()
	if m.stationCursor < len(views) {
		return views[m.stationCursor].ID
	}
	return ""
}

// renderMapPanel renders the fleet map, legend and selected station label.
func (m Model) renderMapPanel(width, height int) string {
	title := styleHeader.Render("MAP")
	if m.fetchErr != nil {
		return title + "\n" + m.renderFetchError()
	}
	if len(m.views) == 0 {
		if m.loading {
			return title + "\n" + styleLoading.Render(" Loading stations...")
		}
		return title + "\n" + styleMuted.Render(" No stations reported")
	}

	selected := m.selectedStationID()
	mapHeight := height - 3 // title, legend, label
	grid := renderFleetMap(m.mapPins(selected), width, mapHeight, m.blinkOn())

	label := ""
	if st, ok := m.stations.Lookup(selected); ok {
		label = styleSelected.Render(" > " + marker.DescribeView(m.engine.Station(st), true).Label)
	}

	mapBox := lipgloss.NewStyle().Width(width).Height(mapHeight).Render(grid)
	return title + "\n" + mapBox + "\n" + m.renderLegend() + "\n" + label
}

// renderStationList renders stations with capacity bars.
func (m Model) renderStationList(width, height int) string {
	title := styleHeader.Render("STATIONS")
	if m.fetchErr != nil {
		return title + "\n" + m.renderFetchError()
	}
	views := m.visibleViews()
	if len(views) == 0 {
		switch {
		case m.loading || m.revealPending():
			return title + "\n" + styleLoading.Render(" Loading stations...")
		case m.query() != "":
			return title + "\n" + styleMuted.Render(" No stations match "+m.query())
		}
		return title + "\n" + styleMuted.Render(" No stations reported")
	}

	var b strings.Builder
	b.WriteString(title)
	if m.stations.Excluded > 0 {
		b.WriteString(styleMuted.Render(fmt.Sprintf("  (%d malformed records skipped)", m.stations.Excluded)))
	}
	b.WriteString("\n")

	bar := m.bar
	bar.Width = 20
	nameWidth := width - bar.Width - 11 - 9 - 8 - 6
	if nameWidth < 10 {
		nameWidth = 10
	}

	maxVisible := height - 2
	if maxVisible < 1 {
		maxVisible = 1
	}
	start, end := visibleRange(m.stationCursor, len(views), maxVisible)

	for i := start; i < end; i++ {
		b.WriteString(renderStationLine(views[i], bar.ViewAs(views[i].Fill/100), nameWidth, i == m.stationCursor))
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderStationLine renders a single station entry.
func renderStationLine(v fleet.StationView, bar string, nameWidth int, selected bool) string {
	name := runewidth.FillRight(truncate(v.DisplayName(), nameWidth), nameWidth)
	status := styleStatus(v.Status).Render(runewidth.FillRight(string(v.Status), 11))
	docked := fmt.Sprintf("%3d/%-3d", v.Docked, v.Capacity)

	free := styleMuted.Render("   -")
	if v.Status == fleet.Operational {
		free = styleNumber.Render(fmt.Sprintf("%4d", v.Available))
	}

	entry := fmt.Sprintf("%s %s %s %s %s", name, status, bar, docked, free)
	if selected {
		return styleSelected.Render(">") + " " + entry
	}
	return "  " + entry
}

// renderBikeList renders the bike status filter bar and bikes.
func (m Model) renderBikeList(width, height int) string {
	title := styleHeader.Render("BIKES")
	if m.fetchErr != nil {
		return title + "\n" + m.renderFetchError()
	}
	if len(m.bikes.Bikes) == 0 {
		if m.loading {
			return title + "\n" + styleLoading.Render(" Loading bikes...")
		}
		return title + "\n" + styleMuted.Render(" No bikes reported")
	}

	var b strings.Builder
	b.WriteString(title + "  " + m.renderFilterBar())
	b.WriteString("\n")

	bikes := m.visibleBikes()
	if len(bikes) == 0 {
		b.WriteString(styleMuted.Render(" No bikes match the filter"))
		return b.String()
	}

	stationWidth := width - 10 - 13 - 10 - 10 - 4
	if stationWidth < 10 {
		stationWidth = 10
	}

	maxVisible := height - 2
	if maxVisible < 1 {
		maxVisible = 1
	}
	start, end := visibleRange(m.bikeCursor, len(bikes), maxVisible)

	for i := start; i < end; i++ {
		b.WriteString(renderBikeLine(bikes[i], stationWidth, i == m.bikeCursor))
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderBikeLine renders a single bike entry.
func renderBikeLine(bike models.Bike, stationWidth int, selected bool) string {
	station := bike.StationName()
	entry := fmt.Sprintf("%s %s %s %s %s",
		runewidth.FillRight(truncate(bike.ID, 10), 10),
		styleBikeStatus(bike.Status).Render(runewidth.FillRight(bike.Status, 12)),
		runewidth.FillRight(truncate(station, stationWidth), stationWidth),
		styleNumber.Render(fmt.Sprintf("%5.1f km/h", bike.AvgSpeed)),
		styleMuted.Render(fmt.Sprintf("%7.1f km", bike.Distance)),
	)
	if selected {
		return styleSelected.Render(">") + " " + entry
	}
	return "  " + entry
}

// renderUsagePanel renders the 24h utilization chart.
func (m Model) renderUsagePanel(width, height int) string {
	title := styleHeader.Render("USAGE, LAST 24H")
	if m.fetchErr != nil {
		return title + "\n" + m.renderFetchError()
	}
	if len(m.usage) == 0 {
		if m.loading {
			return title + "\n" + styleLoading.Render(" Loading usage...")
		}
		return title + "\n" + styleMuted.Render(" No usage data")
	}

	peak, _ := series.Peak(m.usage)
	var b strings.Builder
	b.WriteString(title)
	b.WriteString(styleMuted.Render(fmt.Sprintf("  peak %d at %s, %d bike-hours",
		peak.Count, peak.Hour, series.Total(m.usage))))
	b.WriteString("\n")

	chartHeight := height - 5
	if chartHeight < 2 {
		chartHeight = 2
	}
	if chartHeight > 16 {
		chartHeight = 16
	}
	lines := output.ChartLines(m.usage, chartHeight)
	for i, line := range lines {
		line = truncate(line, width)
		if i < len(lines)-2 {
			b.WriteString(styleOnline.Render(line))
		} else {
			b.WriteString(styleMuted.Render(line))
		}
		b.WriteString("\n")
	}
	b.WriteString(styleMuted.Render("trend ") + styleNumber.Render(output.Sparkline(m.usage)))
	return b.String()
}

// renderStatusBar renders context-aware keyboard hints at the bottom.
func (m Model) renderStatusBar() string {
	var hints string
	switch {
	case m.searching:
		hints = "type to filter  Enter:keep  Esc:clear  Ctrl+C:quit"
	case m.focus == focusStations:
		hints = "j/k:navigate  Tab:next  /:search  r:refresh  q:quit"
	case m.focus == focusBikes:
		hints = "h/l:status  j/k:navigate  s:cycle  /:search  r:refresh  q:quit"
	default:
		hints = "Tab/1-4:panels  /:search  s:bike status  r:refresh  q:quit"
	}
	if m.simulator != nil && !m.searching {
		hints += "  o:simulate offline"
	}
	return styleStatusBar.Width(m.width).Render(" " + hints)
}

// visibleRange calculates the start and end indices for a scrollable list.
func visibleRange(cursor, total, maxVisible int) (int, int) {
	if total <= maxVisible {
		return 0, total
	}

	start := cursor - maxVisible/2
	if start < 0 {
		start = 0
	}
	end := start + maxVisible
	if end > total {
		end = total
		start = end - maxVisible
		if start < 0 {
			start = 0
		}
	}
	return start, end
}

// truncate truncates a string to the given display width.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 1 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "~")
}

// formatAge renders a data age compactly
func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh", int(d.Hours()))
}
