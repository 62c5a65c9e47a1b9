package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/campus-velo/velo/internal/fleet"
	"github.com/campus-velo/velo/internal/models"
	"github.com/campus-velo/velo/internal/testutil"
	"github.com/mattn/go-runewidth"
)

func sampleViews(connected bool) []fleet.StationView {
	stations := []models.Station{
		{ID: "1", Name: "Biblioteca Central", Capacity: 12, Docked: 8, ReportedStatus: "Operational"},
		{ID: "2", Name: "Facultad de Ingeniería", Capacity: 10, Docked: 0, ReportedStatus: "maintenance"},
		{ID: "3", Name: "Estadio Olímpico Universitario de Ciudad", Capacity: 10, Docked: 15, ReportedStatus: "OFFLINE"},
	}
	views := make([]fleet.StationView, 0, len(stations))
	for _, s := range stations {
		views = append(views, fleet.ViewStation(s, connected))
	}
	return views
}

func strptr(s string) *string { return &s }

func TestPadRight(t *testing.T) {
	testutil.AssertEqual(t, padRight("abc", 5), "abc  ")
	testutil.AssertEqual(t, runewidth.StringWidth(padRight("Jardín Botánico", 20)), 20)
	got := padRight("Estadio Olímpico Universitario", 10)
	testutil.AssertEqual(t, runewidth.StringWidth(got), 10)
	testutil.AssertTrue(t, strings.HasSuffix(got, "…"))
}

func TestCapacityBar(t *testing.T) {
	c := plainColors(t)

	tests := []struct {
		fill float64
		want string
	}{
		{0, "░░░░░░░░░░"},
		{30, "███░░░░░░░"},
		{100, "██████████"},
		{150, "██████████"},
		{-20, "░░░░░░░░░░"},
	}
	for _, tt := range tests {
		testutil.AssertEqual(t, CapacityBar(tt.fill, 10, c), tt.want)
	}
}

func TestRenderStations(t *testing.T) {
	c := plainColors(t)
	var buf bytes.Buffer

	RenderStations(&buf, sampleViews(true), TableOptions{Colors: c, BarWidth: 10})
	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	testutil.AssertLen(t, lines, 4)
	testutil.AssertContains(t, lines[0], "STATION")
	testutil.AssertContains(t, lines[1], "Biblioteca Central")
	testutil.AssertContains(t, lines[1], "Operational")
	testutil.AssertContains(t, lines[1], "8/12")
	testutil.AssertContains(t, lines[1], "67%")
	testutil.AssertContains(t, lines[2], "Maintenance")
	// Over-full station is clamped to 100%
	testutil.AssertContains(t, lines[3], "100%")
	testutil.AssertContains(t, lines[3], "15/10")
	testutil.AssertContains(t, lines[3], "…")
}

func TestRenderStations_OfflineHidesAvailability(t *testing.T) {
	c := plainColors(t)
	var buf bytes.Buffer

	RenderStations(&buf, sampleViews(false), TableOptions{Colors: c})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

	for _, line := range lines[1:] {
		testutil.AssertContains(t, line, "Offline")
		testutil.AssertTrue(t, strings.HasSuffix(line, "-"))
	}
	testutil.AssertNotContains(t, buf.String(), "Operational")
}

func TestRenderStations_Empty(t *testing.T) {
	var buf bytes.Buffer
	RenderStations(&buf, nil, TableOptions{})
	testutil.AssertEqual(t, buf.String(), "No stations found.\n")
}

func TestRenderBikes(t *testing.T) {
	c := plainColors(t)
	var buf bytes.Buffer

	bikes := []models.Bike{
		{ID: "B-001", Station: strptr("Biblioteca Central"), AvgSpeed: 14.2, Distance: 120.5, Status: models.BikeAvailable},
		{ID: "B-002", Status: models.BikeInUse},
		{ID: "B-004", Status: "Lost"},
	}
	RenderBikes(&buf, bikes, TableOptions{Colors: c})
	out := buf.String()

	testutil.AssertContains(t, out, "B-001")
	testutil.AssertContains(t, out, "14.2 km/h")
	testutil.AssertContains(t, out, "120.5 km")
	testutil.AssertContains(t, out, "Lost")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	testutil.AssertLen(t, lines, 4)
	// Bike without a station shows a dash
	testutil.AssertContains(t, lines[2], "  -  ")
}

func TestRenderBikes_Empty(t *testing.T) {
	var buf bytes.Buffer
	RenderBikes(&buf, []models.Bike{}, TableOptions{})
	testutil.AssertEqual(t, buf.String(), "No bikes found.\n")
}

func TestRenderOverview(t *testing.T) {
	c := plainColors(t)
	var buf bytes.Buffer

	views := sampleViews(true)
	ov := Overview{
		Online:   true,
		Stations: fleet.Summarize(views),
		Bikes: fleet.AggregateBikeCounts([]models.Bike{
			{ID: "a", Status: models.BikeAvailable},
			{ID: "b", Status: "Lost"},
		}),
		Usage:    []models.UsagePoint{{Hour: "10:00", Count: 2}, {Hour: "11:00", Count: 4}},
		Excluded: 1,
	}
	RenderOverview(&buf, ov, TableOptions{Colors: c})
	out := buf.String()

	testutil.AssertContains(t, out, "Connectivity: online")
	testutil.AssertContains(t, out, "18/32")
	testutil.AssertContains(t, out, "Lost")
	testutil.AssertContains(t, out, "1 malformed record(s) excluded")
	testutil.AssertContains(t, out, "peak 4 at 11:00")
}

func TestRenderOverview_Offline(t *testing.T) {
	c := plainColors(t)
	var buf bytes.Buffer

	ov := Overview{Online: false, Stations: fleet.Summarize(sampleViews(false))}
	RenderOverview(&buf, ov, TableOptions{Colors: c})
	out := buf.String()

	testutil.AssertContains(t, out, "OFFLINE")
	testutil.AssertNotContains(t, out, "Bikes in use")
}
