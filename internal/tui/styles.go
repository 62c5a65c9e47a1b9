package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/campus-velo/velo/internal/fleet"
	"github.com/campus-velo/velo/internal/marker"
	"github.com/campus-velo/velo/internal/models"
)

// Colors matching output/colors.go
var (
	colorCyan   = lipgloss.Color("6") // Cyan - focus, numbers
	colorYellow = lipgloss.Color("3") // Yellow - maintenance, loading
	colorRed    = lipgloss.Color("1") // Red - errors, offline banner
	colorGreen  = lipgloss.Color("2") // Green - operational
	colorWhite  = lipgloss.Color("15")
	colorGray   = lipgloss.Color("8") // Gray - muted text, offline
)

// Text styles
var (
	styleMuted   = lipgloss.NewStyle().Foreground(colorGray)
	styleHeader  = lipgloss.NewStyle().Foreground(colorWhite).Bold(true)
	styleNumber  = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	styleOnline  = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	styleOffline = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(colorRed).Bold(true)
)

// Panel border styles
var (
	stylePanelFocused = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorCyan)

	stylePanelNormal = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorGray)
)

// Selected item in a list
var styleSelected = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)

// Focused chip cursor in the filter bar, reverse video
var styleChipCursor = lipgloss.NewStyle().
	Foreground(lipgloss.Color("0")).
	Background(colorCyan).
	Bold(true)

// Active tab
var styleTabActive = lipgloss.NewStyle().
	Foreground(lipgloss.Color("0")).
	Background(colorCyan).
	Bold(true).
	Padding(0, 1)

var styleTab = lipgloss.NewStyle().Foreground(colorGray).Padding(0, 1)

// Overview card box
var styleCard = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorGray).
	Padding(0, 1)

// Status bar at the bottom
var styleStatusBar = lipgloss.NewStyle().
	Foreground(colorGray).
	Background(lipgloss.Color("0"))

// Loading indicator
var styleLoading = lipgloss.NewStyle().Foreground(colorYellow).Italic(true)

// Error text
var styleError = lipgloss.NewStyle().Foreground(colorRed)

// Logo/brand style
var styleLogo = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)

// styleStatus returns the text style for an effective station status
func styleStatus(s fleet.Status) lipgloss.Style {
	scheme := marker.SchemeFor(s)
	return lipgloss.NewStyle().Foreground(lipgloss.Color(scheme.Fill)).Bold(s != fleet.Offline)
}

// styleBikeStatus returns the text style for a bike lifecycle status
func styleBikeStatus(s string) lipgloss.Style {
	switch s {
	case models.BikeAvailable:
		return lipgloss.NewStyle().Foreground(colorGreen)
	case models.BikeInUse:
		return lipgloss.NewStyle().Foreground(colorCyan)
	case models.BikeMaintenance:
		return lipgloss.NewStyle().Foreground(colorYellow)
	}
	return styleMuted
}
