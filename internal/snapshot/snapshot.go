// Package snapshot normalizes raw backend collections into immutable,
// deduplicated snapshots.
package snapshot

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/campus-velo/velo/internal/models"
)

// RecordError describes a record excluded from a snapshot
type RecordError struct {
	Index int
	Err   error
}

func (e RecordError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e RecordError) Unwrap() error {
	return e.Err
}

// StationSnapshot is one fetch worth of stations
type StationSnapshot struct {
	Stations  []models.Station
	Excluded  int
	Problems  []RecordError
	FetchedAt time.Time
}

// BikeSnapshot is one fetch worth of bikes
type BikeSnapshot struct {
	Bikes     []models.Bike
	Excluded  int
	Problems  []RecordError
	FetchedAt time.Time
}

// dedupe keeps the last value for each key at the position of the first
// occurrence
func dedupe[T any](items []T, key func(T) string) []T {
	index := make(map[string]int, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		k := key(it)
		if i, ok := index[k]; ok {
			out[i] = it
			continue
		}
		index[k] = len(out)
		out = append(out, it)
	}
	return out
}

// LoadStations decodes raw station records. Records that fail to decode or
// miss a required field are excluded and counted; duplicates by ID resolve
// to the last occurrence. The result is never nil.
func LoadStations(records []json.RawMessage) StationSnapshot {
	snap := StationSnapshot{FetchedAt: time.Now()}
	parsed := make([]models.Station, 0, len(records))

	for i, raw := range records {
		var resp models.StationResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			snap.Problems = append(snap.Problems, RecordError{Index: i, Err: err})
			continue
		}
		st, err := resp.ToStation()
		if err != nil {
			snap.Problems = append(snap.Problems, RecordError{Index: i, Err: err})
			continue
		}
		parsed = append(parsed, *st)
	}

	snap.Excluded = len(snap.Problems)
	snap.Stations = dedupe(parsed, func(s models.Station) string { return s.ID })
	return snap
}

// LoadStationsJSON decodes a JSON array of station records. Anything that is
// not an array yields an empty snapshot with the body counted as excluded.
func LoadStationsJSON(body []byte) StationSnapshot {
	records, err := splitArray(body)
	if err != nil {
		return StationSnapshot{
			Stations:  []models.Station{},
			Excluded:  1,
			Problems:  []RecordError{{Index: -1, Err: err}},
			FetchedAt: time.Now(),
		}
	}
	return LoadStations(records)
}

// LoadBikes decodes raw bike records with the same rules as LoadStations
func LoadBikes(records []json.RawMessage) BikeSnapshot {
	snap := BikeSnapshot{FetchedAt: time.Now()}
	parsed := make([]models.Bike, 0, len(records))

	for i, raw := range records {
		var resp models.BikeResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			snap.Problems = append(snap.Problems, RecordError{Index: i, Err: err})
			continue
		}
		b, err := resp.ToBike()
		if err != nil {
			snap.Problems = append(snap.Problems, RecordError{Index: i, Err: err})
			continue
		}
		parsed = append(parsed, *b)
	}

	snap.Excluded = len(snap.Problems)
	snap.Bikes = dedupe(parsed, func(b models.Bike) string { return b.ID })
	return snap
}

// LoadBikesJSON decodes a JSON array of bike records
func LoadBikesJSON(body []byte) BikeSnapshot {
	records, err := splitArray(body)
	if err != nil {
		return BikeSnapshot{
			Bikes:     []models.Bike{},
			Excluded:  1,
			Problems:  []RecordError{{Index: -1, Err: err}},
			FetchedAt: time.Now(),
		}
	}
	return LoadBikes(records)
}

// splitArray splits a JSON array into its elements. Empty input and null are
// an empty array.
func splitArray(body []byte) ([]json.RawMessage, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	var records []json.RawMessage
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("expected a JSON array: %w", err)
	}
	return records, nil
}

// Filter returns the bikes with the given status whose ID or station name
// contains query, case-insensitively. An empty status or query matches all.
func (s BikeSnapshot) Filter(status, query string) []models.Bike {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.Bike, 0, len(s.Bikes))
	for _, b := range s.Bikes {
		if status != "" && b.Status != status {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(b.ID), q) &&
			!(b.Station != nil && strings.Contains(strings.ToLower(*b.Station), q)) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// Statuses returns the distinct bike statuses in first-seen order
func (s BikeSnapshot) Statuses() []string {
	seen := make(map[string]bool)
	var out []string
	for _, b := range s.Bikes {
		if !seen[b.Status] {
			seen[b.Status] = true
			out = append(out, b.Status)
		}
	}
	return out
}

// IDs returns the station IDs in snapshot order
func (s StationSnapshot) IDs() []string {
	ids := make([]string, len(s.Stations))
	for i, st := range s.Stations {
		ids[i] = st.ID
	}
	return ids
}

// Lookup returns the station with the given ID
func (s StationSnapshot) Lookup(id string) (models.Station, bool) {
	for _, st := range s.Stations {
		if st.ID == id {
			return st, true
		}
	}
	return models.Station{}, false
}

// Search returns stations whose name or ID contains query, case-insensitively
func (s StationSnapshot) Search(query string) []models.Station {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return s.Stations
	}
	out := make([]models.Station, 0, len(s.Stations))
	for _, st := range s.Stations {
		if strings.Contains(strings.ToLower(st.Name), q) || strings.Contains(strings.ToLower(st.ID), q) {
			out = append(out, st)
		}
	}
	return out
}
