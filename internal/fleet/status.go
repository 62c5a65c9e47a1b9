// Package fleet derives occupancy, availability and effective status from
// station and bike snapshots.
package fleet

import "strings"

// Status is the effective status shown for a station
type Status string

const (
	Operational Status = "Operational"
	Maintenance Status = "Maintenance"
	Offline     Status = "Offline"
)

// Statuses lists the effective statuses in display order
var Statuses = []Status{Operational, Maintenance, Offline}

// EffectiveStatus reconciles the backend-reported status with client
// connectivity. Without connectivity every station is Offline. Unrecognized
// reported values are Offline too, never Operational.
func EffectiveStatus(raw string, connected bool) Status {
	if !connected {
		return Offline
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "operational":
		return Operational
	case "maintenance":
		return Maintenance
	case "offline":
		return Offline
	}
	return Offline
}

// ParseStatus parses a user-supplied status filter
func ParseStatus(s string) (Status, bool) {
	for _, st := range Statuses {
		if strings.EqualFold(s, string(st)) {
			return st, true
		}
	}
	return "", false
}
