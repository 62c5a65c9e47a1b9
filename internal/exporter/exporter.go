package exporter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/campus-velo/velo/internal/api"
	"github.com/campus-velo/velo/internal/clock"
	"github.com/campus-velo/velo/internal/fleet"
	"github.com/campus-velo/velo/internal/models"
	"github.com/campus-velo/velo/internal/snapshot"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Fetcher reads fleet snapshots
type Fetcher interface {
	GetStations(ctx context.Context) (snapshot.StationSnapshot, error)
	GetBikes(ctx context.Context) (snapshot.BikeSnapshot, error)
}

// Exporter periodically refreshes snapshots into a Collector. Between
// refreshes it re-derives station status from the last snapshot whenever
// connectivity changes.
type Exporter struct {
	collector *Collector
	fetcher   Fetcher
	engine    *fleet.Engine
	clock     clock.Clock
	logger    *zap.Logger

	mu       sync.Mutex
	stations []models.Station
}

// New creates an exporter. A nil logger discards output and a nil clock is
// the wall clock.
func New(c *Collector, f Fetcher, engine *fleet.Engine, clk clock.Clock, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.Real()
	}
	if engine == nil {
		engine = fleet.NewEngine(nil)
	}
	return &Exporter{
		collector: c,
		fetcher:   f,
		engine:    engine,
		clock:     clk,
		logger:    logger,
		stations:  []models.Station{},
	}
}

// Refresh fetches both snapshots and publishes them. On failure the previous
// stations are republished with the current connectivity applied.
func (e *Exporter) Refresh(ctx context.Context) error {
	stations, sErr := e.fetcher.GetStations(ctx)
	bikes, bErr := e.fetcher.GetBikes(ctx)

	if err := errors.Join(sErr, bErr); err != nil {
		e.collector.Refreshes.WithLabelValues("error").Inc()
		switch {
		case errors.Is(err, api.ErrOffline):
			e.logger.Debug("refresh skipped while offline")
		case api.Retryable(err):
			e.logger.Warn("refresh failed", zap.Error(err))
		default:
			e.logger.Error("refresh failed", zap.Error(err))
		}
		e.Republish()
		return err
	}

	e.mu.Lock()
	e.stations = stations.Stations
	e.mu.Unlock()

	e.collector.Refreshes.WithLabelValues("ok").Inc()
	e.collector.Excluded.WithLabelValues(api.EndpointStations).Add(float64(stations.Excluded))
	e.collector.Excluded.WithLabelValues(api.EndpointBikes).Add(float64(bikes.Excluded))
	e.collector.SetBikes(fleet.AggregateBikeCounts(bikes.Bikes))
	e.collector.LastSuccess.Set(float64(e.clock.Now().Unix()))
	e.Republish()

	e.logger.Debug("refreshed",
		zap.Int("stations", len(stations.Stations)),
		zap.Int("bikes", len(bikes.Bikes)))
	return nil
}

// Republish derives station views from the last snapshot with the current
// connectivity
func (e *Exporter) Republish() {
	e.mu.Lock()
	stations := e.stations
	e.mu.Unlock()

	e.collector.SetOnline(e.engine.Online())
	e.collector.SetStations(e.engine.Stations(stations))
}

// Run refreshes immediately and then every interval until ctx is done.
// Values on changes trigger a republish.
func (e *Exporter) Run(ctx context.Context, interval time.Duration, changes <-chan bool) error {
	if interval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %s", interval)
	}

	_ = e.Refresh(ctx)

	// One timer at a time on the injected clock; re-armed after each refresh
	tick := make(chan struct{}, 1)
	arm := func() clock.Timer {
		return e.clock.AfterFunc(interval, func() {
			select {
			case tick <- struct{}{}:
			default:
			}
		})
	}
	timer := arm()
	defer func() { timer.Stop() }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
			_ = e.Refresh(ctx)
			timer = arm()
		case online, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			e.logger.Info("connectivity changed", zap.Bool("online", online))
			e.Republish()
		}
	}
}

// Serve exposes /metrics on addr until ctx is done
func Serve(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
