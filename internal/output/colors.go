package output

import (
	"os"

	"github.com/campus-velo/velo/internal/fleet"
	"github.com/campus-velo/velo/internal/models"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ColorMode represents the color output mode
type ColorMode int

const (
	// ColorAuto enables colors if output is a TTY
	ColorAuto ColorMode = iota
	// ColorAlways forces colors on
	ColorAlways
	// ColorNever disables colors
	ColorNever
)

type sprintf func(format string, a ...interface{}) string

// Colors holds the color functions for different output types
type Colors struct {
	Header      sprintf
	Name        sprintf
	Muted       sprintf
	Number      sprintf
	Operational sprintf
	Maintenance sprintf
	Offline     sprintf
	InUse       sprintf
	Warn        sprintf
	BarFull     sprintf
	BarEmpty    sprintf
}

// NewColors creates a new Colors instance based on the color mode
func NewColors(mode ColorMode) *Colors {
	useColors := false
	switch mode {
	case ColorAlways:
		useColors = true
		color.NoColor = false // Force colors on
	case ColorNever:
		useColors = false
	case ColorAuto:
		useColors = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	}

	if !useColors {
		noColor := func(format string, a ...interface{}) string {
			if len(a) == 0 {
				return format
			}
			return color.New().Sprintf(format, a...)
		}
		return &Colors{
			Header:      noColor,
			Name:        noColor,
			Muted:       noColor,
			Number:      noColor,
			Operational: noColor,
			Maintenance: noColor,
			Offline:     noColor,
			InUse:       noColor,
			Warn:        noColor,
			BarFull:     noColor,
			BarEmpty:    noColor,
		}
	}

	return &Colors{
		Header:      color.New(color.FgWhite, color.Bold).SprintfFunc(),
		Name:        color.New(color.FgWhite).SprintfFunc(),
		Muted:       color.New(color.FgHiBlack).SprintfFunc(),
		Number:      color.New(color.FgCyan, color.Bold).SprintfFunc(),
		Operational: color.New(color.FgGreen).SprintfFunc(),
		Maintenance: color.New(color.FgYellow).SprintfFunc(),
		Offline:     color.New(color.FgRed, color.Bold).SprintfFunc(),
		InUse:       color.New(color.FgBlue).SprintfFunc(),
		Warn:        color.New(color.FgYellow, color.Bold).SprintfFunc(),
		BarFull:     color.New(color.FgGreen).SprintfFunc(),
		BarEmpty:    color.New(color.FgHiBlack).SprintfFunc(),
	}
}

// Status colours an effective station status, padded to a fixed width
func (c *Colors) Status(s fleet.Status) string {
	label := padRight(string(s), 11)
	switch s {
	case fleet.Operational:
		return c.Operational("%s", label)
	case fleet.Maintenance:
		return c.Maintenance("%s", label)
	}
	return c.Offline("%s", label)
}

// BikeStatus colours a bike status, padded to a fixed width. Unknown
// statuses are shown verbatim as warnings.
func (c *Colors) BikeStatus(s string) string {
	label := padRight(s, 11)
	switch s {
	case models.BikeAvailable:
		return c.Operational("%s", label)
	case models.BikeInUse:
		return c.InUse("%s", label)
	case models.BikeMaintenance:
		return c.Maintenance("%s", label)
	}
	return c.Warn("%s", label)
}

// ParseColorMode parses a color mode string
func ParseColorMode(s string) ColorMode {
	switch s {
	case "always":
		return ColorAlways
	case "never":
		return ColorNever
	default:
		return ColorAuto
	}
}
