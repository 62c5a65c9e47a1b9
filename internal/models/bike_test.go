package models

import (
	"encoding/json"
	"testing"

	"github.com/campus-velo/velo/internal/testutil"
)

func TestBikeResponse_JSON(t *testing.T) {
	var resp []BikeResponse
	err := json.Unmarshal([]byte(testutil.SampleBikesResponse), &resp)
	testutil.AssertNil(t, err)
	testutil.AssertTrue(t, len(resp) >= 3)

	b, err := resp[0].ToBike()
	testutil.AssertNil(t, err)
	testutil.AssertEqual(t, b.ID, "B-001")
	testutil.AssertEqual(t, b.StationName(), "Biblioteca Central")
	testutil.AssertEqual(t, b.Status, BikeAvailable)
	testutil.AssertFloatEqual(t, b.AvgSpeed, 14.2, 1e-9)

	// null distance and station
	b, err = resp[1].ToBike()
	testutil.AssertNil(t, err)
	testutil.AssertFloatEqual(t, b.Distance, 0, 1e-9)
	testutil.AssertTrue(t, b.Station == nil)
	testutil.AssertEqual(t, b.StationName(), "-")
}

func TestBikeResponse_MissingID(t *testing.T) {
	r := BikeResponse{Estado: "Available"}
	_, err := r.ToBike()
	testutil.AssertError(t, err)
}

func TestBikeResponse_BlankStation(t *testing.T) {
	blank := "   "
	r := BikeResponse{ID: "x", Estacion: &blank}
	b, err := r.ToBike()
	testutil.AssertNil(t, err)
	testutil.AssertTrue(t, b.Station == nil)
}

func TestNormalizeBikeStatus(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Available", BikeAvailable},
		{"available", BikeAvailable},
		{"IN_USE", BikeInUse},
		{"in use", BikeInUse},
		{"InUse", BikeInUse},
		{" maintenance ", BikeMaintenance},
		{"", BikeUnknown},
		{"Stolen", "Stolen"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			testutil.AssertEqual(t, NormalizeBikeStatus(tt.input), tt.want)
		})
	}
}
