// Package display projects a device snapshot onto what the user sees: the
// remaining time split into units, the ring fraction and a severity tier.
// Everything here is a pure function of the snapshot.
package display

import (
	"fmt"

	"github.com/smartkraft/lebensspur/internal/client/models"
)

// Tier is the severity colouring of the countdown ring.
type Tier string

const (
	TierNormal  Tier = "normal"
	TierWarning Tier = "warning"
	TierDanger  Tier = "danger"
)

var labels = map[models.State]string{
	models.StateDisabled:  "Disabled",
	models.StateRunning:   "Running",
	models.StateWarning:   "Warning",
	models.StateTriggered: "Triggered",
	models.StatePaused:    "Paused",
	models.StateVacation:  "Vacation",
}

// Display is the projection of one DeviceSnapshot.
type Display struct {
	State models.State
	Label string

	Days    uint64
	Hours   uint64
	Minutes uint64
	Seconds uint64

	ShowDays  bool
	ShowHours bool

	// Fraction of the interval still remaining, in [0, 1].
	Fraction float64
	Tier     Tier

	// Running drives the pause/resume control.
	Running bool

	VacationActive bool
	VacationDays   uint32
}

// Project computes the display for s.
func Project(s models.DeviceSnapshot) Display {
	total := s.TimeRemainingMs / 1000

	d := Display{
		State:          s.State,
		Label:          Label(s.State),
		Days:           total / 86400,
		Hours:          (total % 86400) / 3600,
		Minutes:        (total % 3600) / 60,
		Seconds:        total % 60,
		Fraction:       Fraction(s.TimeRemainingMs, s.IntervalMinutes),
		Running:        s.State == models.StateRunning || s.State == models.StateWarning,
		VacationActive: s.State == models.StateVacation || s.VacationEnabled,
		VacationDays:   s.VacationDays,
	}
	d.ShowDays = d.Days > 0
	d.ShowHours = d.Days > 0 || d.Hours > 0
	d.Tier = TierFor(s.State, d.Fraction)
	return d
}

// Label is the human-readable name of a state. Unknown states read as Running.
func Label(s models.State) string {
	if l, ok := labels[s]; ok {
		return l
	}
	return labels[models.StateRunning]
}

// Fraction is min(1, remainingMs / interval). A zero interval yields 0.
func Fraction(remainingMs uint64, intervalMinutes uint32) float64 {
	intervalMs := uint64(intervalMinutes) * 60_000
	if intervalMs == 0 {
		return 0
	}
	return min(1, float64(remainingMs)/float64(intervalMs))
}

// TierFor picks the severity. TRIGGERED and WARNING force danger and warning;
// a RUNNING timer escalates at half and at a quarter of its interval.
func TierFor(s models.State, fraction float64) Tier {
	switch {
	case s == models.StateTriggered:
		return TierDanger
	case s == models.StateWarning:
		return TierWarning
	case s == models.StateRunning && fraction <= 0.25:
		return TierDanger
	case s == models.StateRunning && fraction <= 0.5:
		return TierWarning
	default:
		return TierNormal
	}
}

// Clock renders the remaining time, e.g. "2d 03h 15m" or "15m 09s".
func (d Display) Clock() string {
	switch {
	case d.ShowDays:
		return fmt.Sprintf("%dd %02dh %02dm", d.Days, d.Hours, d.Minutes)
	case d.ShowHours:
		return fmt.Sprintf("%dh %02dm %02ds", d.Hours, d.Minutes, d.Seconds)
	default:
		return fmt.Sprintf("%dm %02ds", d.Minutes, d.Seconds)
	}
}
