package models

import (
	"strings"
)

// Bike lifecycle statuses
const (
	BikeAvailable   = "Available"
	BikeInUse       = "InUse"
	BikeMaintenance = "Maintenance"
	BikeUnknown     = "Unknown"
)

// Bike is a single bike as last reported by the backend
type Bike struct {
	ID       string  `json:"id"`
	Station  *string `json:"station,omitempty"`
	AvgSpeed float64 `json:"avgSpeed"`
	Distance float64 `json:"distance"`
	Status   string  `json:"status"`
}

// BikeResponse represents the raw JSON record for a bike
type BikeResponse struct {
	ID        FlexString `json:"id"`
	Estacion  *string    `json:"estacion"`
	Velocidad FlexString `json:"velocidad_promedio"`
	Distancia FlexString `json:"distancia_recorrida"`
	Estado    string     `json:"estado"`
}

// ToBike converts the raw record to a Bike. id is the only required field.
func (r *BikeResponse) ToBike() (*Bike, error) {
	id := strings.TrimSpace(r.ID.String())
	if id == "" {
		return nil, &FieldError{Field: "id"}
	}

	b := &Bike{
		ID:       id,
		AvgSpeed: r.Velocidad.FloatOr(0),
		Distance: r.Distancia.FloatOr(0),
		Status:   NormalizeBikeStatus(r.Estado),
	}
	if r.Estacion != nil {
		if name := strings.TrimSpace(*r.Estacion); name != "" {
			b.Station = &name
		}
	}
	return b, nil
}

// StationName returns the assigned station name or "-" when unknown
func (b *Bike) StationName() string {
	if b.Station == nil {
		return "-"
	}
	return *b.Station
}

// NormalizeBikeStatus maps the backend's spellings onto the canonical
// statuses. Unrecognized values are kept verbatim so they can be counted
// under their own bucket; an empty status becomes BikeUnknown.
func NormalizeBikeStatus(raw string) string {
	s := strings.TrimSpace(raw)
	key := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(s))
	switch key {
	case "available", "disponible":
		return BikeAvailable
	case "inuse", "enuso":
		return BikeInUse
	case "maintenance", "mantenimiento":
		return BikeMaintenance
	case "":
		return BikeUnknown
	}
	return s
}
