package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// renderFilterBar renders the bike status chips, each with its count.
func (m Model) renderFilterBar() string {
	var chips strings.Builder
	for i, status := range m.bikeStatuses() {
		label := "All"
		n := m.bikeCounts.Total
		if status != "" {
			label = status
			n = m.bikeCounts.Count(status)
		}
		label = fmt.Sprintf("%s %d", label, n)
		focused := m.focus == focusBikes && m.bikeStatus == i
		chips.WriteString(m.renderChip(label, m.bikeStatus == i, focused))
		chips.WriteString(" ")
	}
	return strings.TrimRight(chips.String(), " ")
}

// renderChip renders a single chip with cursor highlighting.
func (m Model) renderChip(label string, active bool, focused bool) string {
	if focused {
		return styleChipCursor.Render("[" + label + "]")
	}
	if active {
		return styleSelected.Render("[" + label + "]")
	}
	return styleMuted.Render(" " + label + " ")
}

// handleFilterKeys handles key events when the bikes panel is focused.
func (m Model) handleFilterKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "h", "left":
		if m.bikeStatus > 0 {
			m.bikeStatus--
			m.bikeCursor = 0
		}
		return m, nil

	case "l", "right":
		if m.bikeStatus < len(m.bikeStatuses())-1 {
			m.bikeStatus++
			m.bikeCursor = 0
		}
		return m, nil

	case "a":
		m.bikeStatus = 0
		m.bikeCursor = 0
		return m, nil
	}

	m.bikeCursor = moveCursor(msg.String(), m.bikeCursor, len(m.visibleBikes()))
	return m, nil
}
