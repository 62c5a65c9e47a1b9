package fleet

import (
	"github.com/campus-velo/velo/internal/models"
)

// Connectivity reports whether the client can currently reach the network
type Connectivity interface {
	Online() bool
}

// alwaysOnline is used when no connectivity source is wired
type alwaysOnline struct{}

func (alwaysOnline) Online() bool { return true }

// StationView is a station together with its derived metrics
type StationView struct {
	models.Station
	Status    Status  `json:"status"`
	Fill      float64 `json:"fill"`
	Available int     `json:"available"`
}

// Engine computes derived station metrics against a connectivity source.
// It holds no state of its own; every call recomputes from its inputs.
type Engine struct {
	conn Connectivity
}

// NewEngine creates an engine reading connectivity from conn.
// A nil conn is treated as permanently online.
func NewEngine(conn Connectivity) *Engine {
	if conn == nil {
		conn = alwaysOnline{}
	}
	return &Engine{conn: conn}
}

// Online reports the current connectivity
func (e *Engine) Online() bool {
	return e.conn.Online()
}

// Station derives the view for one station
func (e *Engine) Station(s models.Station) StationView {
	return ViewStation(s, e.conn.Online())
}

// Stations derives views for a collection, preserving order. Connectivity is
// sampled once so a single render never mixes online and offline states.
func (e *Engine) Stations(stations []models.Station) []StationView {
	online := e.conn.Online()
	views := make([]StationView, 0, len(stations))
	for _, s := range stations {
		views = append(views, ViewStation(s, online))
	}
	return views
}

// ViewStation derives the view for one station with explicit connectivity
func ViewStation(s models.Station, connected bool) StationView {
	return StationView{
		Station:   s,
		Status:    EffectiveStatus(s.ReportedStatus, connected),
		Fill:      FillPercentage(s.Docked, s.Capacity),
		Available: AvailableCount(s.Capacity, s.Docked),
	}
}

// StationSummary aggregates station views for the overview cards
type StationSummary struct {
	Total     int            `json:"total"`
	PerStatus map[Status]int `json:"perStatus"`
	Docked    int            `json:"docked"`
	Capacity  int            `json:"capacity"`
	Available int            `json:"available"`
	Fill      float64        `json:"fill"`
}

// Summarize aggregates views. Docked counts are clamped to each station's
// capacity so the fleet fill stays within [0,100].
func Summarize(views []StationView) StationSummary {
	sum := StationSummary{
		Total:     len(views),
		PerStatus: make(map[Status]int, len(Statuses)),
	}
	for _, st := range Statuses {
		sum.PerStatus[st] = 0
	}
	for _, v := range views {
		sum.PerStatus[v.Status]++
		docked := v.Docked
		if docked < 0 {
			docked = 0
		}
		if docked > v.Capacity {
			docked = v.Capacity
		}
		sum.Docked += docked
		sum.Capacity += v.Capacity
		sum.Available += v.Available
	}
	sum.Fill = FillPercentage(sum.Docked, sum.Capacity)
	return sum
}

// FilterByStatus returns the views with the given status; "" keeps all
func FilterByStatus(views []StationView, status Status) []StationView {
	if status == "" {
		return views
	}
	out := make([]StationView, 0, len(views))
	for _, v := range views {
		if v.Status == status {
			out = append(out, v)
		}
	}
	return out
}
