package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/campus-velo/velo/internal/api"
	"github.com/campus-velo/velo/internal/clock"
	"github.com/campus-velo/velo/internal/fleet"
	"github.com/campus-velo/velo/internal/models"
	"github.com/campus-velo/velo/internal/reveal"
	"github.com/campus-velo/velo/internal/snapshot"
)

type focusPanel int

const (
	focusMap focusPanel = iota
	focusStations
	focusBikes
	focusUsage
)

var panelLabels = []string{"Map", "Stations", "Bikes", "Usage"}

const (
	defaultRefreshInterval = 30 * time.Second
	defaultRevealInterval  = 80 * time.Millisecond
	defaultCounterDuration = 800 * time.Millisecond
	defaultFetchTimeout    = 10 * time.Second
	frameInterval          = 60 * time.Millisecond
	blinkPeriod            = 500 * time.Millisecond
)

// Fetcher loads one consistent view of the fleet
type Fetcher interface {
	FetchFleet(ctx context.Context) (api.Fleet, error)
}

// Connectivity is the observable online state the dashboard follows
type Connectivity interface {
	Online() bool
	Subscribe() (<-chan bool, func())
}

// Simulator lets an admin hold the connectivity state offline
type Simulator interface {
	SetOffline(forced bool)
	Forced() bool
}

// Options wires the dashboard. Only Client is required.
type Options struct {
	Client       Fetcher
	Connectivity Connectivity
	// Simulator is nil for non-admin users, which disables the offline toggle
	Simulator       Simulator
	Clock           clock.Clock
	Logger          *zap.Logger
	RefreshInterval time.Duration
	RevealInterval  time.Duration
	CounterDuration time.Duration
	FetchTimeout    time.Duration
}

// card is one animated overview number
type card struct {
	label   string
	counter fleet.Counter
	suffix  string
}

// Model is the root Bubble Tea model for the dashboard.
type Model struct {
	client    Fetcher
	simulator Simulator
	engine    *fleet.Engine
	clock     clock.Clock
	reveal    *reveal.Scheduler
	logger    *zap.Logger

	connCh      <-chan bool
	unsubscribe func()

	refreshInterval time.Duration
	revealInterval  time.Duration
	counterDuration time.Duration
	fetchTimeout    time.Duration

	width  int
	height int
	now    time.Time

	focus       focusPanel
	searching   bool
	searchInput textinput.Model
	spinner     spinner.Model
	bar         progress.Model
	framing     bool // a frameTick is in flight

	// Fleet data from the latest fetch
	online     bool
	loading    bool
	fetchErr   error
	fetchSeq   int
	lastUpdate time.Time
	stations   snapshot.StationSnapshot
	bikes      snapshot.BikeSnapshot
	usage      []models.UsagePoint
	views      []fleet.StationView
	summary    fleet.StationSummary
	bikeCounts fleet.BikeCounts

	// Overview cards
	cards        []card
	cardsStarted time.Time

	// Lists
	stationCursor int
	bikeCursor    int
	bikeStatus    int
}

// New creates the dashboard model and subscribes to connectivity changes.
// Call Close once the program exits.
func New(opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "Search stations and bikes..."
	ti.CharLimit = 100
	ti.Width = 40

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = styleLoading

	bar := progress.New(
		progress.WithGradient("#BBF7D0", "#15803D"),
		progress.WithoutPercentage(),
		progress.WithWidth(20),
	)

	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := Model{
		client:          opts.Client,
		simulator:       opts.Simulator,
		clock:           clk,
		reveal:          reveal.New(clk),
		logger:          logger,
		refreshInterval: orDefault(opts.RefreshInterval, defaultRefreshInterval),
		revealInterval:  opts.RevealInterval,
		counterDuration: orDefault(opts.CounterDuration, defaultCounterDuration),
		fetchTimeout:    orDefault(opts.FetchTimeout, defaultFetchTimeout),
		now:             clk.Now(),
		focus:           focusMap,
		searchInput:     ti,
		spinner:         sp,
		bar:             bar,
		online:          true,
		loading:         opts.Client != nil,
		framing:         true, // Init starts the frame loop
		cards:           newCards(),
	}
	if m.revealInterval < 0 {
		m.revealInterval = defaultRevealInterval
	}

	if opts.Connectivity != nil {
		m.engine = fleet.NewEngine(opts.Connectivity)
		m.online = opts.Connectivity.Online()
		m.connCh, m.unsubscribe = opts.Connectivity.Subscribe()
	} else {
		m.engine = fleet.NewEngine(nil)
	}

	return m
}

// Close cancels pending reveals and the connectivity subscription
func (m Model) Close() {
	m.reveal.Close()
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Init starts the first fetch and the frame, refresh and connectivity loops.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		fetchFleet(m.client, m.fetchSeq, m.fetchTimeout),
		frameTick(),
		refreshTick(m.refreshInterval),
		waitConnectivity(m.connCh),
		m.spinner.Tick,
	)
}

func newCards() []card {
	return []card{
		{label: "Stations"},
		{label: "Operational"},
		{label: "Bikes"},
		{label: "In use"},
		{label: "Docked"},
		{label: "Fleet fill", suffix: "%"},
	}
}

// cardTargets returns the values the overview cards animate towards, in
// the order of newCards
func (m Model) cardTargets() []float64 {
	return []float64{
		float64(m.summary.Total),
		float64(m.summary.PerStatus[fleet.Operational]),
		float64(m.bikeCounts.Total),
		float64(m.bikeCounts.Count(models.BikeInUse)),
		float64(m.summary.Docked),
		m.summary.Fill,
	}
}

// retargetCards restarts every counter from its current on-screen value
func (m *Model) retargetCards() {
	elapsed := m.now.Sub(m.cardsStarted)
	cards := make([]card, len(m.cards))
	copy(cards, m.cards)
	for i, to := range m.cardTargets() {
		c := &cards[i]
		c.counter = fleet.Counter{
			From:     c.counter.At(elapsed),
			To:       to,
			Duration: m.counterDuration,
		}
	}
	m.cards = cards
	m.cardsStarted = m.now
}

// bikeStatuses returns the bike filter choices; "" means all
func (m Model) bikeStatuses() []string {
	return append([]string{""}, m.bikeCounts.Buckets()...)
}

// selectedBikeStatus returns the active bike status filter
func (m Model) selectedBikeStatus() string {
	statuses := m.bikeStatuses()
	if m.bikeStatus >= len(statuses) {
		return ""
	}
	return statuses[m.bikeStatus]
}

// query returns the current search text
func (m Model) query() string {
	return m.searchInput.Value()
}

// visibleViews returns the revealed station views matching the search
func (m Model) visibleViews() []fleet.StationView {
	matches := make(map[string]bool)
	for _, s := range m.stations.Search(m.query()) {
		matches[s.ID] = true
	}
	out := make([]fleet.StationView, 0, len(m.views))
	for _, v := range m.views {
		if matches[v.ID] && m.reveal.IsVisible(v.ID) {
			out = append(out, v)
		}
	}
	return out
}

// visibleBikes returns the bikes matching the status filter and search
func (m Model) visibleBikes() []models.Bike {
	return m.bikes.Filter(m.selectedBikeStatus(), m.query())
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
