package tui

import (
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/campus-velo/velo/internal/api"
	"github.com/campus-velo/velo/internal/fleet"
	"github.com/campus-velo/velo/internal/marker"
	"github.com/campus-velo/velo/internal/snapshot"
)

// Update handles all messages and key events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case fleetResultMsg:
		return m.handleFleetResult(msg)

	case connectivityMsg:
		return m.handleConnectivity(msg)

	case frameTickMsg:
		m.now = m.clock.Now()
		if !m.animating() {
			m.framing = false
			return m, nil
		}
		return m, frameTick()

	case refreshTickMsg:
		var cmd tea.Cmd
		m, cmd = m.refresh()
		return m, tea.Batch(cmd, refreshTick(m.refreshInterval))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Pass remaining messages to textinput when searching
	if m.searching {
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

// refresh starts a new fetch. Results of earlier fetches still in flight are
// dropped when they arrive. Nothing is fetched while offline; the last
// snapshot stays on screen with every station forced Offline.
func (m Model) refresh() (Model, tea.Cmd) {
	if !m.online {
		return m, nil
	}
	m.fetchSeq++
	m.loading = m.client != nil
	return m, fetchFleet(m.client, m.fetchSeq, m.fetchTimeout)
}

func (m Model) handleFleetResult(msg fleetResultMsg) (tea.Model, tea.Cmd) {
	// Ignore stale results
	if msg.seq != m.fetchSeq {
		return m, nil
	}
	m.loading = false
	m.now = m.clock.Now()

	if errors.Is(msg.err, api.ErrOffline) {
		// Connectivity dropped while the fetch was queued
		m.logger.Debug("fleet fetch skipped while offline")
		m.recompute()
		return m.startFrames()
	}

	m.fetchErr = msg.err
	if msg.err != nil {
		m.logger.Warn("fleet fetch failed", zap.Error(msg.err))
		// Stale data is never shown as fresh
		m.reveal.Start(nil, 0)
		m.stations = snapshot.StationSnapshot{}
		m.bikes = snapshot.BikeSnapshot{}
		m.usage = nil
		m.recompute()
		return m.startFrames()
	}

	m.stations = msg.fleet.Stations
	m.bikes = msg.fleet.Bikes
	m.usage = msg.fleet.Usage
	m.lastUpdate = m.now
	m.recompute()
	m.reveal.Start(m.stations.IDs(), m.revealInterval)

	m.logger.Debug("fleet updated",
		zap.Int("stations", len(m.stations.Stations)),
		zap.Int("bikes", len(m.bikes.Bikes)),
		zap.Int("excluded", m.stations.Excluded+m.bikes.Excluded))
	return m.startFrames()
}

func (m Model) handleConnectivity(msg connectivityMsg) (tea.Model, tea.Cmd) {
	wasOnline := m.online
	m.online = msg.online
	m.now = m.clock.Now()
	m.recompute()

	var frames tea.Cmd
	m, frames = m.startFrames()
	next := waitConnectivity(m.connCh)
	if msg.online && !wasOnline {
		var cmd tea.Cmd
		m, cmd = m.refresh()
		return m, tea.Batch(next, frames, cmd)
	}
	return m, tea.Batch(next, frames)
}

// startFrames resumes the frame loop if it stopped
func (m Model) startFrames() (Model, tea.Cmd) {
	if m.framing || !m.animating() {
		return m, nil
	}
	m.framing = true
	return m, frameTick()
}

// restartReveal staggers the stations matching the current search again
func (m Model) restartReveal() (Model, tea.Cmd) {
	matches := m.stations.Search(m.query())
	ids := make([]string, len(matches))
	for i, s := range matches {
		ids[i] = s.ID
	}
	m.reveal.Start(ids, m.revealInterval)
	m.stationCursor = 0
	return m.startFrames()
}

// recompute derives views and aggregates from the current snapshots
func (m *Model) recompute() {
	m.views = m.engine.Stations(m.stations.Stations)
	m.summary = fleet.Summarize(m.views)
	m.bikeCounts = fleet.AggregateBikeCounts(m.bikes.Bikes)
	if m.bikeStatus >= len(m.bikeStatuses()) {
		m.bikeStatus = 0
	}
	m.clampCursors()
	m.retargetCards()
}

func (m *Model) clampCursors() {
	if n := len(m.visibleViews()); m.stationCursor >= n {
		m.stationCursor = max(n-1, 0)
	}
	if n := len(m.visibleBikes()); m.bikeCursor >= n {
		m.bikeCursor = max(n-1, 0)
	}
}

// handleKey routes key events.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.searching {
		return m.handleSearchKeys(msg)
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "tab":
		m.focus = (m.focus + 1) % focusPanel(len(panelLabels))
		return m.startFrames()

	case "shift+tab":
		m.focus = (m.focus + focusPanel(len(panelLabels)) - 1) % focusPanel(len(panelLabels))
		return m.startFrames()

	case "1", "2", "3", "4":
		m.focus = focusPanel(msg.String()[0] - '1')
		return m.startFrames()

	case "/":
		m.searching = true
		m.searchInput.Focus()
		return m, nil

	case "s":
		m.bikeStatus = (m.bikeStatus + 1) % len(m.bikeStatuses())
		m.bikeCursor = 0
		return m, nil

	case "r":
		return m.refresh()

	case "o":
		return m.toggleSimulatedOffline()

	case "esc":
		if m.query() != "" {
			m.searchInput.SetValue("")
			m.clampCursors()
			return m.restartReveal()
		}
		return m, nil
	}

	switch m.focus {
	case focusStations:
		m.stationCursor = moveCursor(msg.String(), m.stationCursor, len(m.visibleViews()))
	case focusBikes:
		return m.handleFilterKeys(msg)
	}
	return m, nil
}

// handleSearchKeys handles key events while the search input is focused.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		before := m.query()
		m.searchInput.SetValue("")
		m.searching = false
		m.searchInput.Blur()
		m.clampCursors()
		if before != "" {
			return m.restartReveal()
		}
		return m, nil

	case "enter":
		m.searching = false
		m.searchInput.Blur()
		return m, nil
	}

	before := m.query()
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.bikeCursor = 0
	if m.query() == before {
		return m, cmd
	}
	var frames tea.Cmd
	m, frames = m.restartReveal()
	return m, tea.Batch(cmd, frames)
}

// toggleSimulatedOffline flips the admin outage. The dashboard follows once
// the monitor broadcasts the change.
func (m Model) toggleSimulatedOffline() (tea.Model, tea.Cmd) {
	if m.simulator == nil {
		return m, nil
	}
	forced := !m.simulator.Forced()
	m.simulator.SetOffline(forced)
	m.logger.Info("simulated offline toggled", zap.Bool("forced", forced))
	return m, nil
}

// moveCursor applies a list navigation key
func moveCursor(key string, cursor, total int) int {
	switch key {
	case "j", "down":
		cursor++
	case "k", "up":
		cursor--
	case "g", "home":
		cursor = 0
	case "G", "end":
		cursor = total - 1
	case "pgdown":
		cursor += 10
	case "pgup":
		cursor -= 10
	}
	if cursor >= total {
		cursor = total - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	return cursor
}

// revealPending reports whether markers are still appearing
func (m Model) revealPending() bool {
	return !m.reveal.Done()
}

// animating reports whether any frame-driven effect is still running.
// Offline markers only blink while the map is shown.
func (m Model) animating() bool {
	if m.revealPending() {
		return true
	}
	elapsed := m.now.Sub(m.cardsStarted)
	for _, c := range m.cards {
		if !c.counter.Done(elapsed) {
			return true
		}
	}
	if m.focus != focusMap {
		return false
	}
	for _, v := range m.views {
		if m.reveal.IsVisible(v.ID) && marker.DescribeView(v, true).Blink {
			return true
		}
	}
	return false
}

// cardValue samples an overview counter at the current frame
func (m Model) cardValue(i int) float64 {
	return m.cards[i].counter.At(m.now.Sub(m.cardsStarted))
}

// blinkOn reports the blink phase of the current frame
func (m Model) blinkOn() bool {
	return (m.now.UnixNano()/int64(blinkPeriod))%2 == 0
}

// age returns how long ago the data was fetched
func (m Model) age() time.Duration {
	if m.lastUpdate.IsZero() {
		return 0
	}
	return m.now.Sub(m.lastUpdate)
}
