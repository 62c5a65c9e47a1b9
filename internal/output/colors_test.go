package output

import (
	"strings"
	"testing"

	"github.com/campus-velo/velo/internal/fleet"
	"github.com/campus-velo/velo/internal/models"
	"github.com/campus-velo/velo/internal/testutil"
	"github.com/fatih/color"
)

// plainColors returns uncoloured functions with color.NoColor restored at
// the end of the test
func plainColors(t *testing.T) *Colors {
	t.Helper()
	old := color.NoColor
	t.Cleanup(func() { color.NoColor = old })
	color.NoColor = true
	return NewColors(ColorNever)
}

func TestParseColorMode(t *testing.T) {
	tests := []struct {
		input string
		want  ColorMode
	}{
		{"always", ColorAlways},
		{"never", ColorNever},
		{"auto", ColorAuto},
		{"", ColorAuto},        // default
		{"invalid", ColorAuto}, // default
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			testutil.AssertEqual(t, ParseColorMode(tt.input), tt.want)
		})
	}
}

func TestNewColors_NeverMode(t *testing.T) {
	c := plainColors(t)

	testutil.AssertEqual(t, c.Header("Stations"), "Stations")
	testutil.AssertEqual(t, c.Name("Biblioteca"), "Biblioteca")
	testutil.AssertEqual(t, c.Muted("details"), "details")
	testutil.AssertEqual(t, c.Number("%d/%d", 3, 10), "3/10")
	testutil.AssertEqual(t, c.Offline("OFFLINE"), "OFFLINE")
	testutil.AssertEqual(t, c.Warn("%d excluded", 2), "2 excluded")
}

func TestNewColors_AlwaysMode(t *testing.T) {
	old := color.NoColor
	t.Cleanup(func() { color.NoColor = old })

	c := NewColors(ColorAlways)

	for _, got := range []string{c.Header("Stations"), c.Operational("ok"), c.Offline("down"), c.BarFull("█")} {
		testutil.AssertContains(t, got, "\033[")
	}
	testutil.AssertContains(t, stripANSI(c.Status(fleet.Offline)), "Offline")
}

func TestColors_Status(t *testing.T) {
	c := plainColors(t)

	for _, s := range fleet.Statuses {
		got := c.Status(s)
		testutil.AssertEqual(t, len(got), 11)
		testutil.AssertEqual(t, strings.TrimSpace(got), string(s))
	}
}

func TestColors_BikeStatus(t *testing.T) {
	c := plainColors(t)

	testutil.AssertEqual(t, strings.TrimSpace(c.BikeStatus(models.BikeInUse)), "InUse")
	// Unknown statuses are kept verbatim
	testutil.AssertEqual(t, strings.TrimSpace(c.BikeStatus("Lost")), "Lost")
	// Long values are truncated to the column
	testutil.AssertEqual(t, len([]rune(c.BikeStatus("DecommissionedForever"))), 11)
}

// Helper functions

func stripANSI(s string) string {
	var result strings.Builder
	inEscape := false

	for _, r := range s {
		if r == '\033' {
			inEscape = true
			continue
		}
		if inEscape {
			if r == 'm' {
				inEscape = false
			}
			continue
		}
		result.WriteRune(r)
	}

	return result.String()
}
