package models

import (
	"fmt"
	"math"
	"strings"
)

// Station is a docking location as last reported by the backend
type Station struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	Capacity       int     `json:"capacity"`
	Docked         int     `json:"docked"`
	ReportedStatus string  `json:"reportedStatus"`
}

// StationResponse represents the raw JSON record for a station
type StationResponse struct {
	ID         FlexString `json:"id"`
	Nombre     string     `json:"nombre"`
	Latitud    FlexString `json:"latitud"`
	Longitud   FlexString `json:"longitud"`
	Bicicletas FlexString `json:"bicicletas"`
	Capacidad  FlexString `json:"capacidad_max"`
	Estado     string     `json:"estado"`
}

// FieldError reports a required field that could not be parsed
type FieldError struct {
	Field string
	Value string
}

func (e *FieldError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("missing required field %q", e.Field)
	}
	return fmt.Sprintf("invalid value %q for field %q", e.Value, e.Field)
}

// ToStation converts the raw record to a Station.
// id, latitud and longitud are required; counts default to 0.
func (r *StationResponse) ToStation() (*Station, error) {
	id := strings.TrimSpace(r.ID.String())
	if id == "" {
		return nil, &FieldError{Field: "id"}
	}

	lat, ok := r.Latitud.Float()
	if !ok || math.IsNaN(lat) || lat < -90 || lat > 90 {
		return nil, &FieldError{Field: "latitud", Value: r.Latitud.String()}
	}
	lon, ok := r.Longitud.Float()
	if !ok || math.IsNaN(lon) || lon < -180 || lon > 180 {
		return nil, &FieldError{Field: "longitud", Value: r.Longitud.String()}
	}

	capacity := r.Capacidad.IntOr(0)
	if capacity < 0 {
		capacity = 0
	}

	return &Station{
		ID:             id,
		Name:           strings.TrimSpace(r.Nombre),
		Lat:            lat,
		Lon:            lon,
		Capacity:       capacity,
		Docked:         r.Bicicletas.IntOr(0),
		ReportedStatus: strings.TrimSpace(r.Estado),
	}, nil
}

// DisplayName returns the station name, falling back to its ID
func (s *Station) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return "Station " + s.ID
}
