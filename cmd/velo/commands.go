package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/campus-velo/velo/internal/api"
	"github.com/campus-velo/velo/internal/cache"
	"github.com/campus-velo/velo/internal/clock"
	"github.com/campus-velo/velo/internal/config"
	"github.com/campus-velo/velo/internal/exporter"
	"github.com/campus-velo/velo/internal/fleet"
	"github.com/campus-velo/velo/internal/models"
	"github.com/campus-velo/velo/internal/output"
	"github.com/campus-velo/velo/internal/snapshot"
)

var stationsCmd = &cobra.Command{
	Use:   "stations",
	Short: "Show stations with occupancy and effective status",
	Long: `Show every docking station with its effective status, docked bikes,
capacity fill and free docks.

Free docks are only shown for operational stations. Records the backend
reports with an unusable ID or coordinates are skipped and counted.

Examples:
  velo stations                      # All stations
  velo stations --status maintenance # Only stations under maintenance
  velo stations --search biblioteca  # Name or ID contains "biblioteca"
  velo stations --json               # Derived views as JSON
  velo stations --watch              # Refresh continuously`,
	Args: cobra.NoArgs,
	RunE: runStations,
}

var bikesCmd = &cobra.Command{
	Use:   "bikes",
	Short: "Show bikes and their status",
	Long: `Show every bike with its status, assigned station, average speed and
distance travelled.

Examples:
  velo bikes                         # All bikes
  velo bikes --status inuse          # Bikes currently ridden
  velo bikes --search B-00           # Bike ID or station contains "B-00"
  velo bikes --json`,
	Args: cobra.NoArgs,
	RunE: runBikes,
}

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Show fleet totals and the 24h usage chart",
	Long: `Fetch stations, bikes and usage in parallel and show aggregate counts:
stations per effective status, bikes per status, docked totals, fleet fill
and the 24h utilization chart.`,
	Args: cobra.NoArgs,
	RunE: runOverview,
}

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show bikes in use over the last 24 hours",
	Long: `Show the normalized 24 hour utilization series as a column chart,
oldest hour first.`,
	Args: cobra.NoArgs,
	RunE: runUsage,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Serve fleet metrics for Prometheus",
	Long: `Serve station and bike metrics on /metrics for Prometheus.

Snapshots are refreshed every metrics.interval. While the backend check
reports no connectivity every station is exported with status offline.

Example:
  velo export --listen :9464`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or initialize the configuration file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		shown := *cfg
		if shown.API.Token != "" {
			shown.API.Token = "********"
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer func() { _ = enc.Close() }()
		return enc.Encode(&shown)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := flagConfig
		if path == "" {
			path = config.DefaultPath()
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists", path)
		}
		if err := config.DefaultConfig().Save(path); err != nil {
			return err
		}
		fmt.Println("Wrote", path)
		return nil
	},
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the response cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached response",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fc, err := cache.NewFileCache(cache.DefaultCacheDir(), cfg.CacheTTL())
		if err != nil {
			return err
		}
		if err := fc.Clear(); err != nil {
			return err
		}
		fmt.Println("Cleared", fc.Dir())
		return nil
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove expired cached responses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fc, err := cache.NewFileCache(cache.DefaultCacheDir(), cfg.CacheTTL())
		if err != nil {
			return err
		}
		live, err := fc.Cleanup()
		if err != nil {
			return err
		}
		fmt.Printf("%d live entries kept in %s\n", live, fc.Dir())
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configInitCmd)
	cacheCmd.AddCommand(cacheClearCmd, cachePruneCmd)
}

// renderFunc draws one frame of a table command
type renderFunc func(ctx context.Context, client *api.Client, engine *fleet.Engine, w io.Writer) error

// runWatch redraws render every refresh interval until interrupted. The
// connectivity monitor runs for the duration so offline is reflected in
// station status between refreshes.
func runWatch(ctx context.Context, render renderFunc) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	monitor, _ := newMonitor()
	monitor.Start(ctx)
	defer monitor.Stop()

	client, err := createClient(monitor, false)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}
	engine := fleet.NewEngine(monitor)

	return output.Watch(os.Stdout, cfg.RefreshInterval(), output.SetupSignalHandler(), func(w io.Writer) error {
		return render(ctx, client, engine, w)
	})
}

// lastGood holds the most recent successful fetch. In watch mode it stands
// in for fetches refused while offline, so the table keeps showing the last
// snapshot with stations forced Offline instead of an error.
type lastGood[T any] struct {
	value T
	ok    bool
}

func (l *lastGood[T]) keep(v T, err error) (T, error) {
	switch {
	case err == nil:
		l.value, l.ok = v, true
		return v, nil
	case errors.Is(err, api.ErrOffline) && l.ok:
		return l.value, nil
	}
	return v, err
}

// offlineNote marks a watch frame drawn from the last snapshot
func offlineNote(w io.Writer, engine *fleet.Engine) {
	if engine == nil || engine.Online() || flagJSON {
		return
	}
	colors := output.NewColors(getColorMode())
	_, _ = fmt.Fprintln(w, colors.Offline("OFFLINE - last snapshot, every station shown as offline"))
	_, _ = fmt.Fprintln(w)
}

// warnExcluded reports skipped malformed records on stderr
func warnExcluded(n int, what string) {
	if n == 0 || flagJSON {
		return
	}
	colors := output.NewColors(getColorMode())
	_, _ = fmt.Fprintln(os.Stderr, colors.Warn("%d malformed %s record(s) skipped", n, what))
}

// parseStationStatus validates the --status flag for stations
func parseStationStatus(s string) (fleet.Status, error) {
	if s == "" {
		return "", nil
	}
	st, ok := fleet.ParseStatus(s)
	if !ok {
		return "", api.ErrInvalidValue("status", s)
	}
	return st, nil
}

func runStations(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	status, err := parseStationStatus(flagStatus)
	if err != nil {
		return err
	}

	render := renderStations(status)

	if flagWatch {
		return runWatch(ctx, render)
	}

	client, err := createClient(nil, true)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	// Raw JSON output
	if flagRawJSON {
		raw, err := client.GetStationsRaw(ctx)
		if err != nil {
			return err
		}
		return printPrettyJSON(raw)
	}

	return render(ctx, client, fleet.NewEngine(nil), os.Stdout)
}

// renderStations draws the station table. Successive frames share the last
// good snapshot.
func renderStations(status fleet.Status) renderFunc {
	var last lastGood[snapshot.StationSnapshot]
	return func(ctx context.Context, client *api.Client, engine *fleet.Engine, w io.Writer) error {
		snap, err := last.keep(client.GetStations(ctx))
		if err != nil {
			return err
		}
		offlineNote(w, engine)
		views := fleet.FilterByStatus(engine.Stations(snap.Search(flagSearch)), status)

		if flagJSON {
			return printJSON(views)
		}
		output.RenderStations(w, views, output.TableOptions{Colors: output.NewColors(getColorMode())})
		warnExcluded(snap.Excluded, "station")
		return nil
	}
}

func runBikes(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	status := ""
	if flagStatus != "" {
		status = models.NormalizeBikeStatus(flagStatus)
	}

	render := renderBikes(status)

	if flagWatch {
		return runWatch(ctx, render)
	}

	client, err := createClient(nil, true)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	// Raw JSON output
	if flagRawJSON {
		raw, err := client.GetBikesRaw(ctx)
		if err != nil {
			return err
		}
		return printPrettyJSON(raw)
	}

	return render(ctx, client, nil, os.Stdout)
}

// renderBikes draws the bike table. Successive frames share the last good
// snapshot.
func renderBikes(status string) renderFunc {
	var last lastGood[snapshot.BikeSnapshot]
	return func(ctx context.Context, client *api.Client, engine *fleet.Engine, w io.Writer) error {
		snap, err := last.keep(client.GetBikes(ctx))
		if err != nil {
			return err
		}
		offlineNote(w, engine)
		bikes := snap.Filter(status, flagSearch)
		if hint := bikeStatusHint(snap, status, len(bikes)); hint != "" && !flagJSON {
			_, _ = fmt.Fprintln(os.Stderr, hint)
		}

		if flagJSON {
			return printJSON(bikes)
		}
		output.RenderBikes(w, bikes, output.TableOptions{Colors: output.NewColors(getColorMode())})
		warnExcluded(snap.Excluded, "bike")
		return nil
	}
}

// bikeStatusHint lists the reported statuses when a status filter matched nothing
func bikeStatusHint(snap snapshot.BikeSnapshot, status string, matched int) string {
	if status == "" || matched > 0 {
		return ""
	}
	return fmt.Sprintf("No bikes with status %q. Reported statuses: %s",
		status, strings.Join(snap.Statuses(), ", "))
}

// buildOverview aggregates one fleet fetch
func buildOverview(f api.Fleet, engine *fleet.Engine) output.Overview {
	return output.Overview{
		Online:   engine.Online(),
		Stations: fleet.Summarize(engine.Stations(f.Stations.Stations)),
		Bikes:    fleet.AggregateBikeCounts(f.Bikes.Bikes),
		Usage:    f.Usage,
		Excluded: f.Stations.Excluded + f.Bikes.Excluded,
	}
}

func runOverview(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if flagRawJSON {
		return api.NewValidationError("raw-json", "not supported for overview; use stations, bikes or usage")
	}

	var last lastGood[api.Fleet]
	render := func(ctx context.Context, client *api.Client, engine *fleet.Engine, w io.Writer) error {
		f, err := last.keep(client.FetchFleet(ctx))
		if err != nil {
			return err
		}
		ov := buildOverview(f, engine)
		if flagJSON {
			return printJSON(ov)
		}
		output.RenderOverview(w, ov, output.TableOptions{Colors: output.NewColors(getColorMode())})
		return nil
	}

	if flagWatch {
		return runWatch(ctx, render)
	}

	client, err := createClient(nil, true)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}
	return render(ctx, client, fleet.NewEngine(nil), os.Stdout)
}

func runUsage(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var last lastGood[[]models.UsagePoint]
	render := func(ctx context.Context, client *api.Client, engine *fleet.Engine, w io.Writer) error {
		points, err := last.keep(client.GetUsage24h(ctx))
		if err != nil {
			return err
		}
		offlineNote(w, engine)
		if flagJSON {
			return printJSON(points)
		}
		output.RenderUsage(w, points, output.TableOptions{Colors: output.NewColors(getColorMode())})
		return nil
	}

	if flagWatch {
		return runWatch(ctx, render)
	}

	client, err := createClient(nil, true)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	// Raw JSON output
	if flagRawJSON {
		raw, err := client.GetUsage24hRaw(ctx)
		if err != nil {
			return err
		}
		return printPrettyJSON(raw)
	}

	return render(ctx, client, nil, os.Stdout)
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	listen := flagListen
	if listen == "" {
		listen = cfg.Metrics.Listen
	}
	if strings.TrimSpace(listen) == "" {
		return api.ErrMissingField("listen")
	}

	monitor, _ := newMonitor()
	monitor.Start(ctx)
	defer monitor.Stop()
	changes, unsubscribe := monitor.Subscribe()
	defer unsubscribe()

	client, err := createClient(monitor, false)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	collector, err := exporter.NewCollector(prometheus.NewRegistry())
	if err != nil {
		return err
	}
	exp := exporter.New(collector, client, fleet.NewEngine(monitor), clock.Real(), logger.Named("exporter"))

	logger.Info("starting exporter",
		zap.String("listen", listen),
		zap.Duration("interval", cfg.MetricsInterval()),
		zap.String("api_url", client.BaseURL()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return exp.Run(gctx, cfg.MetricsInterval(), changes)
	})
	g.Go(func() error {
		return exporter.Serve(gctx, listen, collector.Handler(), logger.Named("http"))
	})
	return g.Wait()
}
