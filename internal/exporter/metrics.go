// Package exporter publishes fleet state as Prometheus metrics.
package exporter

import (
	"fmt"
	"net/http"

	"github.com/campus-velo/velo/internal/fleet"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the fleet gauges
type Collector struct {
	gatherer prometheus.Gatherer

	StationFill      *prometheus.GaugeVec
	StationDocked    *prometheus.GaugeVec
	StationAvailable *prometheus.GaugeVec
	StationStatus    *prometheus.GaugeVec
	StationsByStatus *prometheus.GaugeVec
	BikesByStatus    *prometheus.GaugeVec
	BikesTotal       prometheus.Gauge
	Online           prometheus.Gauge
	LastSuccess      prometheus.Gauge

	Refreshes *prometheus.CounterVec
	Excluded  *prometheus.CounterVec
}

// NewCollector registers the fleet metrics against reg, defaulting to the
// global registry when nil
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{gatherer: gatherer}
	var err error

	gauges := []struct {
		dst    **prometheus.GaugeVec
		name   string
		help   string
		labels []string
	}{
		{&c.StationFill, "velo_station_fill_percent", "Docked bikes as a percentage of station capacity, clamped to [0,100].", []string{"station", "name"}},
		{&c.StationDocked, "velo_station_docked_bikes", "Bikes docked at the station as reported.", []string{"station"}},
		{&c.StationAvailable, "velo_station_available_docks", "Free docks at the station.", []string{"station"}},
		{&c.StationStatus, "velo_station_status", "1 for the station's effective status, 0 otherwise.", []string{"station", "status"}},
		{&c.StationsByStatus, "velo_stations", "Stations per effective status.", []string{"status"}},
		{&c.BikesByStatus, "velo_bikes", "Bikes per reported status.", []string{"status"}},
	}
	for _, g := range gauges {
		*g.dst, err = registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: g.name,
			Help: g.help,
		}, g.labels), g.name)
		if err != nil {
			return nil, err
		}
	}

	if c.BikesTotal, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "velo_bikes_total",
		Help: "Bikes in the last snapshot.",
	}), "velo_bikes_total"); err != nil {
		return nil, err
	}
	if c.Online, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "velo_online",
		Help: "1 while the backend is reachable.",
	}), "velo_online"); err != nil {
		return nil, err
	}
	if c.LastSuccess, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "velo_last_success_timestamp_seconds",
		Help: "Unix time of the last successful refresh.",
	}), "velo_last_success_timestamp_seconds"); err != nil {
		return nil, err
	}

	if c.Refreshes, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "velo_refreshes_total",
		Help: "Snapshot refreshes, labeled by result.",
	}, []string{"result"}), "velo_refreshes_total"); err != nil {
		return nil, err
	}
	if c.Excluded, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "velo_excluded_records_total",
		Help: "Malformed records dropped from snapshots, labeled by endpoint.",
	}, []string{"endpoint"}), "velo_excluded_records_total"); err != nil {
		return nil, err
	}

	return c, nil
}

// Handler exposes a ready-to-use /metrics handler
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetStations replaces every per-station series with the given views.
// Stations that left the snapshot disappear from the output.
func (c *Collector) SetStations(views []fleet.StationView) {
	if c == nil {
		return
	}
	c.StationFill.Reset()
	c.StationDocked.Reset()
	c.StationAvailable.Reset()
	c.StationStatus.Reset()

	per := make(map[fleet.Status]int, len(fleet.Statuses))
	for _, v := range views {
		id := v.Station.ID
		c.StationFill.WithLabelValues(id, v.Station.DisplayName()).Set(v.Fill)
		c.StationDocked.WithLabelValues(id).Set(float64(v.Station.Docked))
		c.StationAvailable.WithLabelValues(id).Set(float64(v.Available))
		for _, s := range fleet.Statuses {
			val := 0.0
			if s == v.Status {
				val = 1
			}
			c.StationStatus.WithLabelValues(id, string(s)).Set(val)
		}
		per[v.Status]++
	}
	for _, s := range fleet.Statuses {
		c.StationsByStatus.WithLabelValues(string(s)).Set(float64(per[s]))
	}
}

// SetBikes replaces the per-status bike gauges
func (c *Collector) SetBikes(counts fleet.BikeCounts) {
	if c == nil {
		return
	}
	c.BikesByStatus.Reset()
	for _, s := range counts.Buckets() {
		c.BikesByStatus.WithLabelValues(s).Set(float64(counts.Count(s)))
	}
	c.BikesTotal.Set(float64(counts.Total))
}

// SetOnline records connectivity
func (c *Collector) SetOnline(online bool) {
	if c == nil {
		return
	}
	if online {
		c.Online.Set(1)
	} else {
		c.Online.Set(0)
	}
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
