package tui

import (
	"time"

	"github.com/campus-velo/velo/internal/api"
)

// frameTickMsg drives animations: reveal sampling, counters and blinking.
type frameTickMsg time.Time

// refreshTickMsg is sent every refresh interval to refetch the fleet.
type refreshTickMsg time.Time

// fleetResultMsg carries one fetch of every endpoint.
// seq is used for stale-result detection.
type fleetResultMsg struct {
	seq   int
	fleet api.Fleet
	err   error
}

// connectivityMsg carries a connectivity change from the monitor.
type connectivityMsg struct {
	online bool
}
