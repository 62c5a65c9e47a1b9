package fleet

import (
	"testing"

	"github.com/campus-velo/velo/internal/models"
	"github.com/campus-velo/velo/internal/testutil"
)

func TestFillPercentage(t *testing.T) {
	tests := []struct {
		name     string
		docked   int
		capacity int
		want     float64
	}{
		{"zero capacity", 5, 0, 0},
		{"negative capacity", 5, -3, 0},
		{"empty", 0, 10, 0},
		{"partial", 3, 10, 30},
		{"full", 10, 10, 100},
		{"overfull clamps", 15, 10, 100},
		{"negative docked clamps", -2, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertFloatEqual(t, FillPercentage(tt.docked, tt.capacity), tt.want, 1e-9)
		})
	}
}

func TestFillPercentage_AlwaysInRange(t *testing.T) {
	for capacity := 0; capacity <= 30; capacity++ {
		for docked := 0; docked <= 40; docked++ {
			testutil.AssertInRange(t, FillPercentage(docked, capacity), 0, 100)
		}
	}
}

func TestAvailableCount(t *testing.T) {
	testutil.AssertEqual(t, AvailableCount(10, 3), 7)
	testutil.AssertEqual(t, AvailableCount(10, 10), 0)
	testutil.AssertEqual(t, AvailableCount(10, 15), 0)
	testutil.AssertEqual(t, AvailableCount(0, 0), 0)

	for capacity := 0; capacity <= 20; capacity++ {
		for docked := 0; docked <= 30; docked++ {
			testutil.AssertTrue(t, AvailableCount(capacity, docked) >= 0)
		}
	}
}

func TestAggregateBikeCounts(t *testing.T) {
	bikes := []models.Bike{
		{ID: "1", Status: models.BikeAvailable},
		{ID: "2", Status: models.BikeAvailable},
		{ID: "3", Status: models.BikeInUse},
		{ID: "4", Status: models.BikeMaintenance},
		{ID: "5", Status: "Lost"},
		{ID: "6", Status: ""},
	}

	counts := AggregateBikeCounts(bikes)
	testutil.AssertEqual(t, counts.Total, 6)
	testutil.AssertEqual(t, counts.Count(models.BikeAvailable), 2)
	testutil.AssertEqual(t, counts.Count(models.BikeInUse), 1)
	testutil.AssertEqual(t, counts.Count(models.BikeMaintenance), 1)
	testutil.AssertEqual(t, counts.Count("Lost"), 1)
	testutil.AssertEqual(t, counts.Count(models.BikeUnknown), 1)

	sum := 0
	for _, n := range counts.PerStatus {
		sum += n
	}
	testutil.AssertEqual(t, sum, counts.Total)

	testutil.AssertSliceEqual(t, counts.Buckets(), []string{
		models.BikeAvailable, models.BikeInUse, models.BikeMaintenance, "Lost", models.BikeUnknown,
	})
}

func TestAggregateBikeCounts_Empty(t *testing.T) {
	counts := AggregateBikeCounts(nil)
	testutil.AssertEqual(t, counts.Total, 0)
	testutil.AssertEqual(t, len(counts.PerStatus), 0)
	testutil.AssertLen(t, counts.Buckets(), 0)
}
