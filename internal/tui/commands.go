package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// frameTick returns a tea.Cmd that sends the next animation frame.
func frameTick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameTickMsg(t)
	})
}

// refreshTick returns a tea.Cmd that sends a tick after the refresh interval.
func refreshTick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return refreshTickMsg(t)
	})
}

// fetchFleet returns a tea.Cmd that fetches stations, bikes and usage.
func fetchFleet(client Fetcher, seq int, timeout time.Duration) tea.Cmd {
	if client == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		f, err := client.FetchFleet(ctx)
		return fleetResultMsg{
			seq:   seq,
			fleet: f,
			err:   err,
		}
	}
}

// waitConnectivity returns a tea.Cmd that blocks until the next connectivity
// change. It yields no message once the subscription is closed.
func waitConnectivity(ch <-chan bool) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		online, ok := <-ch
		if !ok {
			return nil
		}
		return connectivityMsg{online: online}
	}
}
