// Package models defines the data exchanged with the device and the
// read-only views the client exposes to presentation code.
package models

import "strings"

// State is the device timer state as reported by GET /api/timer/status.
type State string

const (
	StateDisabled  State = "DISABLED"
	StateRunning   State = "RUNNING"
	StateWarning   State = "WARNING"
	StateTriggered State = "TRIGGERED"
	StatePaused    State = "PAUSED"
	StateVacation  State = "VACATION"
)

// DefaultIntervalMinutes is assumed when the device omits intervalMinutes.
const DefaultIntervalMinutes = 1440

// ParseState maps a wire value onto a known State. The second result is
// false for empty or unknown values.
func ParseState(s string) (State, bool) {
	switch st := State(strings.ToUpper(strings.TrimSpace(s))); st {
	case StateDisabled, StateRunning, StateWarning, StateTriggered, StatePaused, StateVacation:
		return st, true
	default:
		return StateDisabled, false
	}
}

// CountsDown reports whether the device decrements its deadline in this state.
func (s State) CountsDown() bool {
	return s == StateRunning || s == StateWarning
}

// DeviceSnapshot is the authoritative device status as of the last poll.
type DeviceSnapshot struct {
	State           State  `json:"state"`
	TimeRemainingMs uint64 `json:"timeRemainingMs"`
	IntervalMinutes uint32 `json:"intervalMinutes"`
	WarningsSent    uint32 `json:"warningsSent"`
	ResetCount      uint32 `json:"resetCount"`
	TriggerCount    uint32 `json:"triggerCount"`
	Enabled         bool   `json:"enabled"`
	VacationEnabled bool   `json:"vacationEnabled"`
	VacationDays    uint32 `json:"vacationDays"`
}

// Normalize applies the defaults the device leaves implicit: an empty or
// unknown state reads as DISABLED and a zero interval as one day. It
// reports whether the state value was recognised.
func (s *DeviceSnapshot) Normalize() bool {
	st, ok := ParseState(string(s.State))
	s.State = st
	if s.IntervalMinutes == 0 {
		s.IntervalMinutes = DefaultIntervalMinutes
	}
	return ok
}

// IntervalMs is the full countdown interval in milliseconds.
func (s DeviceSnapshot) IntervalMs() uint64 {
	return uint64(s.IntervalMinutes) * 60_000
}
