package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/campus-velo/velo/internal/api"
	"github.com/campus-velo/velo/internal/config"
	"github.com/campus-velo/velo/internal/connectivity"
	"github.com/campus-velo/velo/internal/logging"
	"github.com/campus-velo/velo/internal/output"
	"github.com/campus-velo/velo/internal/tui"
)

var version = "0.1.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "velo",
	Short: "Operations console for the campus bike-share fleet",
	Long: `velo is a terminal console for the campus bike-share fleet.

It reads stations, bikes and 24h utilization from the fleet backend and
derives occupancy, free docks and effective station status. While the
backend is unreachable every station is shown as offline.

Features:
  - Interactive dashboard with a station map, lists and usage chart
  - Station and bike tables with status filters
  - Fleet overview with aggregate counts
  - Prometheus exporter for station and bike metrics
  - JSON output for scripting
  - Response caching for faster repeated queries

Quick Start:
  1. Launch dashboard:         velo (or velo tui)
  2. List stations:            velo stations
  3. Bikes in maintenance:     velo bikes --status maintenance
  4. Fleet overview:           velo overview
  5. Export metrics:           velo export --listen :9464`,
	Version:           version,
	SilenceUsage: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// If no subcommand is provided, launch TUI
		if len(args) == 0 {
			return runTUI(cmd, args)
		}
		return cmd.Help()
	},
}

// Global flags
var (
	flagConfig  string
	flagAPIURL  string
	flagJSON    bool
	flagRawJSON bool
	flagColor   string
	flagNoCache bool
	flagVerbose bool
)

// Command flags
var (
	flagWatch  bool
	flagStatus string
	flagSearch string
	flagListen string
)

// Loaded in setup
var (
	cfg    *config.Config
	logger *zap.Logger
)

func init() {
	// Assigned here: setup refers back to rootCmd through isTUI
	rootCmd.PersistentPreRunE = setup

	// Add subcommands
	rootCmd.AddCommand(stationsCmd)
	rootCmd.AddCommand(bikesCmd)
	rootCmd.AddCommand(overviewCmd)
	rootCmd.AddCommand(usageCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(cacheCmd)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default $XDG_CONFIG_HOME/velo/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "Fleet backend base URL (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagRawJSON, "raw-json", false, "Output raw API response")
	rootCmd.PersistentFlags().StringVar(&flagColor, "color", "auto", "Color output: auto, always, never")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Disable response caching")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging")

	// Stations-specific flags
	stationsCmd.Flags().StringVarP(&flagStatus, "status", "s", "", "Filter by effective status (operational, maintenance, offline)")
	stationsCmd.Flags().StringVar(&flagSearch, "search", "", "Filter by name or ID (substring match)")
	stationsCmd.Flags().BoolVarP(&flagWatch, "watch", "w", false, "Watch mode: refresh every refresh interval")

	// Bikes-specific flags
	bikesCmd.Flags().StringVarP(&flagStatus, "status", "s", "", "Filter by status (available, inuse, maintenance, ...)")
	bikesCmd.Flags().StringVar(&flagSearch, "search", "", "Filter by bike ID or station name (substring match)")
	bikesCmd.Flags().BoolVarP(&flagWatch, "watch", "w", false, "Watch mode: refresh every refresh interval")

	overviewCmd.Flags().BoolVarP(&flagWatch, "watch", "w", false, "Watch mode: refresh every refresh interval")
	usageCmd.Flags().BoolVarP(&flagWatch, "watch", "w", false, "Watch mode: refresh every refresh interval")

	exportCmd.Flags().StringVar(&flagListen, "listen", "", "Metrics listen address (default from config, :9464)")
}

// setup loads the configuration and builds the logger. The dashboard owns
// the terminal, so it logs to a file unless one is configured.
func setup(cmd *cobra.Command, args []string) error {
	path := flagConfig
	if path == "" {
		path = config.DefaultPath()
	}

	var err error
	cfg, err = config.Load(path)
	if err != nil {
		return err
	}
	if flagAPIURL != "" {
		cfg.API.URL = flagAPIURL
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration in %s: %w", path, err)
	}

	logCfg := cfg.Logging
	if isTUI(cmd) && logCfg.File == "" {
		logCfg.File = logging.DefaultFile()
	}
	logger, err = logging.New(logCfg, flagVerbose)
	if err != nil {
		return err
	}

	api.UserAgent = "velo/" + version
	logger.Debug("configuration loaded",
		zap.String("path", path),
		zap.String("api_url", cfg.API.URL),
		zap.Bool("admin", cfg.Admin))
	return nil
}

func isTUI(cmd *cobra.Command) bool {
	return cmd == rootCmd || cmd == tuiCmd
}

// createClient creates an API client with common options. conn may be nil
// for one-shot commands. Long-running views pass cached=false so every
// refresh reads the backend and the shown update time is real.
func createClient(conn api.Connectivity, cached bool) (*api.Client, error) {
	opts := []api.ClientOption{
		api.WithBaseURL(cfg.API.URL),
		api.WithTimeout(cfg.APITimeout()),
		api.WithLogger(logger),
	}
	if cfg.API.Token != "" {
		opts = append(opts, api.WithToken(cfg.API.Token))
	}
	if conn != nil {
		opts = append(opts, api.WithConnectivity(conn))
	}

	// Enable caching unless disabled
	if cached && !flagNoCache && cfg.CacheTTL() > 0 {
		opts = append(opts, api.WithDefaultCache(cfg.CacheTTL()))
	}

	return api.NewClient(opts...)
}

// newMonitor wires the backend check behind an operator override
func newMonitor() (*connectivity.Monitor, *connectivity.Override) {
	checker := &connectivity.Checker{
		URL:      cfg.CheckTarget(),
		Interval: cfg.CheckInterval(),
		Timeout:  cfg.CheckTimeout(),
		Failures: cfg.Connectivity.Failures,
	}
	override := connectivity.NewOverride(checker)
	monitor := connectivity.NewMonitor(
		[]connectivity.Source{override},
		connectivity.WithLogger(logger.Named("connectivity")),
	)
	return monitor, override
}

// getColorMode returns the color mode based on flag
func getColorMode() output.ColorMode {
	return output.ParseColorMode(flagColor)
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive full-screen dashboard",
	Long: `Launch an interactive full-screen dashboard with a station map,
station and bike lists and the 24h usage chart.

Keyboard:
  Tab / 1-4      Switch panel (Map, Stations, Bikes, Usage)
  j/k or arrows  Navigate lists
  h/l            Change bike status filter (Bikes panel)
  s              Cycle bike status filter
  /              Search stations and bikes
  r              Refresh now
  o              Toggle simulated offline (admin only)
  q              Quit

Logs are written to $XDG_STATE_HOME/velo/velo.log unless logging.file is set.`,
	RunE: runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	monitor, override := newMonitor()
	monitor.Start(ctx)
	defer monitor.Stop()

	client, err := createClient(monitor, false)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	opts := tui.Options{
		Client:          client,
		Connectivity:    monitor,
		Logger:          logger.Named("tui"),
		RefreshInterval: cfg.RefreshInterval(),
		RevealInterval:  cfg.RevealInterval(),
		CounterDuration: cfg.CounterDuration(),
		FetchTimeout:    cfg.APITimeout(),
	}
	if cfg.Admin {
		opts.Simulator = override
	}

	model := tui.New(opts)
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// printJSON writes v as indented JSON
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printPrettyJSON(data []byte) error {
	var prettyJSON interface{}
	if err := json.Unmarshal(data, &prettyJSON); err != nil {
		// If we can't parse it, just print raw
		fmt.Println(string(data))
		return err
	}
	return printJSON(prettyJSON)
}
