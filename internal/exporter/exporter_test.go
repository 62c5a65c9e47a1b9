package exporter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/campus-velo/velo/internal/api"
	"github.com/campus-velo/velo/internal/clock"
	"github.com/campus-velo/velo/internal/fleet"
	"github.com/campus-velo/velo/internal/models"
	"github.com/campus-velo/velo/internal/snapshot"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	mu       sync.Mutex
	stations snapshot.StationSnapshot
	bikes    snapshot.BikeSnapshot
	err      error
}

func (f *fakeFetcher) GetStations(context.Context) (snapshot.StationSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return snapshot.StationSnapshot{}, f.err
	}
	return f.stations, nil
}

func (f *fakeFetcher) GetBikes(context.Context) (snapshot.BikeSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return snapshot.BikeSnapshot{}, f.err
	}
	return f.bikes, nil
}

func (f *fakeFetcher) fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

type switchConn struct {
	mu     sync.Mutex
	online bool
}

func (c *switchConn) Online() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

func (c *switchConn) set(v bool) {
	c.mu.Lock()
	c.online = v
	c.mu.Unlock()
}

func strptr(s string) *string { return &s }

func newFixture(t *testing.T) (*Exporter, *Collector, *fakeFetcher, *switchConn) {
	t.Helper()
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	f := &fakeFetcher{
		stations: snapshot.StationSnapshot{
			Stations: []models.Station{
				{ID: "7", Name: "Jardín Botánico", Capacity: 10, Docked: 3, ReportedStatus: "Operational"},
				{ID: "8", Name: "Medicina", Capacity: 8, Docked: 8, ReportedStatus: "Maintenance"},
			},
			Excluded: 1,
		},
		bikes: snapshot.BikeSnapshot{
			Bikes: []models.Bike{
				{ID: "B-1", Station: strptr("Jardín Botánico"), Status: models.BikeAvailable},
				{ID: "B-2", Status: models.BikeInUse},
				{ID: "B-3", Status: "Lost"},
			},
		},
	}
	conn := &switchConn{online: true}
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	e := New(c, f, fleet.NewEngine(conn), clk, nil)
	return e, c, f, conn
}

func TestRefresh_PublishesSnapshot(t *testing.T) {
	e, c, _, _ := newFixture(t)

	require.NoError(t, e.Refresh(context.Background()))

	assert.Equal(t, 30.0, testutil.ToFloat64(c.StationFill.WithLabelValues("7", "Jardín Botánico")))
	assert.Equal(t, 7.0, testutil.ToFloat64(c.StationAvailable.WithLabelValues("7")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StationStatus.WithLabelValues("7", string(fleet.Operational))))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.StationStatus.WithLabelValues("7", string(fleet.Offline))))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StationsByStatus.WithLabelValues(string(fleet.Maintenance))))

	assert.Equal(t, 3.0, testutil.ToFloat64(c.BikesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.BikesByStatus.WithLabelValues("Lost")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Online))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Refreshes.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Excluded.WithLabelValues(api.EndpointStations)))
	assert.Equal(t, float64(1_700_000_000), testutil.ToFloat64(c.LastSuccess))
}

func TestRepublish_OfflineForcesEveryStationOffline(t *testing.T) {
	e, c, f, conn := newFixture(t)
	require.NoError(t, e.Refresh(context.Background()))

	conn.set(false)
	f.fail(fmt.Errorf("%w: /stations", api.ErrOffline))

	err := e.Refresh(context.Background())
	assert.ErrorIs(t, err, api.ErrOffline)

	assert.Equal(t, 0.0, testutil.ToFloat64(c.Online))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StationStatus.WithLabelValues("7", string(fleet.Offline))))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.StationStatus.WithLabelValues("7", string(fleet.Operational))))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.StationsByStatus.WithLabelValues(string(fleet.Offline))))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Refreshes.WithLabelValues("error")))
	// Fill is a property of the snapshot and stays reported
	assert.Equal(t, 30.0, testutil.ToFloat64(c.StationFill.WithLabelValues("7", "Jardín Botánico")))
}

func TestSetStations_DropsVanishedStations(t *testing.T) {
	e, c, f, _ := newFixture(t)
	require.NoError(t, e.Refresh(context.Background()))
	assert.Equal(t, 2, testutil.CollectAndCount(c.StationDocked))

	f.mu.Lock()
	f.stations.Stations = f.stations.Stations[:1]
	f.mu.Unlock()
	require.NoError(t, e.Refresh(context.Background()))
	assert.Equal(t, 1, testutil.CollectAndCount(c.StationDocked))
}

func TestRun_RepublishesOnConnectivityChange(t *testing.T) {
	e, c, _, conn := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan bool, 1)
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx, time.Hour, changes) }()

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(c.Refreshes.WithLabelValues("ok")) == 1
	}, time.Second, 5*time.Millisecond)

	conn.set(false)
	changes <- false

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(c.StationStatus.WithLabelValues("7", string(fleet.Offline))) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestRun_RefreshesOnInjectedClock(t *testing.T) {
	e, c, _, _ := newFixture(t)
	clk := e.clock.(*clock.Fake)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx, 15*time.Second, nil) }()

	refreshes := func() float64 { return testutil.ToFloat64(c.Refreshes.WithLabelValues("ok")) }
	require.Eventually(t, func() bool { return refreshes() == 1 && clk.Pending() == 1 }, time.Second, 5*time.Millisecond)

	clk.Advance(14 * time.Second)
	assert.Never(t, func() bool { return refreshes() > 1 }, 50*time.Millisecond, 5*time.Millisecond)

	clk.Advance(time.Second)
	require.Eventually(t, func() bool { return refreshes() == 2 && clk.Pending() == 1 }, time.Second, 5*time.Millisecond)

	clk.Advance(15 * time.Second)
	require.Eventually(t, func() bool { return refreshes() == 3 }, time.Second, 5*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
	assert.Equal(t, 0, clk.Pending())
}

func TestRun_RejectsZeroInterval(t *testing.T) {
	e, _, _, _ := newFixture(t)
	assert.Error(t, e.Run(context.Background(), 0, nil))
}

func TestNewCollector_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewCollector(reg)
	require.NoError(t, err)
	second, err := NewCollector(reg)
	require.NoError(t, err)
	assert.Same(t, first.StationFill, second.StationFill)
}

func TestHandler_ExposesMetrics(t *testing.T) {
	e, c, _, _ := newFixture(t)
	require.NoError(t, e.Refresh(context.Background()))

	rr := httptest.NewRecorder()
	c.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	for _, name := range []string{"velo_station_fill_percent", "velo_bikes_total", "velo_online", "velo_station_status"} {
		assert.True(t, strings.Contains(body, name), "missing %s", name)
	}
}

func TestRefresh_ServerErrorKeepsLastSnapshot(t *testing.T) {
	e, c, f, _ := newFixture(t)
	require.NoError(t, e.Refresh(context.Background()))

	f.fail(api.NewAPIError(500, "500 Internal Server Error", api.EndpointStations))
	err := e.Refresh(context.Background())
	assert.True(t, errors.Is(err, api.ErrServerError))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StationStatus.WithLabelValues("7", string(fleet.Operational))))
}
