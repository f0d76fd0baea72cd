// Package devicesim simulates the HTTP API of a LebensSpur device: password
// login with attempt limiting, cookie or bearer sessions and the dead-man
// timer state machine. It backs integration tests and local development.
package devicesim

import (
	"sync"
	"time"

	"github.com/smartkraft/lebensspur/internal/client/models"
	"github.com/smartkraft/lebensspur/internal/common"
	"k8s.io/utils/clock"
)

type Config struct {
	Password        string
	IntervalMinutes uint32
	// WarningMinutes is the remaining time at which RUNNING turns into WARNING.
	WarningMinutes uint32
	// MaxAttempts failed logins trigger a lockout of LockoutDuration.
	// A zero LockoutDuration disables lockout.
	MaxAttempts     int
	LockoutDuration time.Duration
	// Enabled starts the timer RUNNING instead of DISABLED.
	Enabled bool
}

func (c Config) withDefaults() Config {
	if c.IntervalMinutes == 0 {
		c.IntervalMinutes = models.DefaultIntervalMinutes
	}
	if c.WarningMinutes >= c.IntervalMinutes {
		c.WarningMinutes = c.IntervalMinutes / 2
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	return c
}

// Device is the simulated device state. All methods are safe for concurrent
// use.
type Device struct {
	cfg   Config
	clock clock.PassiveClock

	mu              sync.Mutex
	state           models.State
	deadline        time.Time
	frozen          time.Duration
	warningsSent    uint32
	resetCount      uint32
	triggerCount    uint32
	vacationEnabled bool
	vacationDays    uint32

	failed      int
	lockedUntil time.Time
	sessions    map[string]struct{}
	statusCalls int
}

func NewDevice(cfg Config, clk clock.PassiveClock) *Device {
	if clk == nil {
		clk = clock.RealClock{}
	}
	d := &Device{
		cfg:      cfg.withDefaults(),
		clock:    clk,
		state:    models.StateDisabled,
		sessions: make(map[string]struct{}),
	}
	d.frozen = d.interval()
	if d.cfg.Enabled {
		d.startLocked(d.interval())
	}
	return d
}

func (d *Device) interval() time.Duration {
	return time.Duration(d.cfg.IntervalMinutes) * time.Minute
}

// Snapshot returns the state as reported by the status endpoint.
func (d *Device) Snapshot() models.DeviceSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshotLocked()
}

func (d *Device) snapshotLocked() models.DeviceSnapshot {
	d.advanceLocked()

	var remaining time.Duration
	switch d.state {
	case models.StateRunning, models.StateWarning:
		remaining = d.deadline.Sub(d.clock.Now())
	case models.StateTriggered:
		remaining = 0
	default:
		remaining = d.frozen
	}

	return models.DeviceSnapshot{
		State:           d.state,
		TimeRemainingMs: uint64(max(remaining, 0).Milliseconds()),
		IntervalMinutes: d.cfg.IntervalMinutes,
		WarningsSent:    d.warningsSent,
		ResetCount:      d.resetCount,
		TriggerCount:    d.triggerCount,
		Enabled:         d.state != models.StateDisabled,
		VacationEnabled: d.vacationEnabled,
		VacationDays:    d.vacationDays,
	}
}

// advanceLocked applies the transitions driven by elapsed time.
func (d *Device) advanceLocked() {
	if !d.state.CountsDown() {
		return
	}
	remaining := d.deadline.Sub(d.clock.Now())
	switch {
	case remaining <= 0:
		d.state = models.StateTriggered
		d.triggerCount++
	case d.state == models.StateRunning && remaining <= time.Duration(d.cfg.WarningMinutes)*time.Minute:
		d.state = models.StateWarning
		d.warningsSent++
	}
}

func (d *Device) startLocked(remaining time.Duration) {
	d.state = models.StateRunning
	d.deadline = d.clock.Now().Add(remaining)
}

// transitionError is a refused timer action. Its text is shown to the user.
type transitionError struct {
	msg string
}

func (e *transitionError) Error() string { return e.msg }

func (e *transitionError) Unwrap() error { return common.ErrInvalidTransition }

var (
	errAlreadyRunning = &transitionError{"Timer already running"}
	errNotRunning     = &transitionError{"Timer not running"}
	errNoAlarm        = &transitionError{"No active alarm"}
	errVacationDays   = &transitionError{"Vacation days must be between 1 and 60"}
)

// Enable starts a DISABLED timer or resumes a PAUSED one.
func (d *Device) Enable() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.advanceLocked()

	switch d.state {
	case models.StateDisabled:
		d.startLocked(d.interval())
	case models.StatePaused:
		d.startLocked(d.frozen)
	default:
		return errAlreadyRunning
	}
	return nil
}

// Disable pauses a counting timer.
func (d *Device) Disable() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.advanceLocked()

	if !d.state.CountsDown() {
		return errNotRunning
	}
	d.frozen = d.deadline.Sub(d.clock.Now())
	d.state = models.StatePaused
	return nil
}

// Reset restarts a counting timer with the full interval. On a TRIGGERED
// timer it acts as Acknowledge.
func (d *Device) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.advanceLocked()

	switch d.state {
	case models.StateRunning, models.StateWarning:
		d.resetCount++
		d.startLocked(d.interval())
		return nil
	case models.StateTriggered:
		return d.acknowledgeLocked()
	default:
		return errNotRunning
	}
}

func (d *Device) Acknowledge() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.advanceLocked()
	return d.acknowledgeLocked()
}

func (d *Device) acknowledgeLocked() error {
	if d.state != models.StateTriggered {
		return errNoAlarm
	}
	d.startLocked(d.interval())
	return nil
}

// SetVacation enters VACATION for days (1..60) or leaves it. Leaving vacation
// restarts the timer with the full interval.
func (d *Device) SetVacation(enabled bool, days int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.advanceLocked()

	if !enabled {
		d.vacationEnabled = false
		d.vacationDays = 0
		if d.state == models.StateVacation {
			d.startLocked(d.interval())
		}
		return nil
	}

	if days < 1 || days > 60 {
		return errVacationDays
	}
	if d.state.CountsDown() {
		d.frozen = d.deadline.Sub(d.clock.Now())
	}
	d.state = models.StateVacation
	d.vacationEnabled = true
	d.vacationDays = uint32(days)
	return nil
}

// loginResult is what a login attempt produced.
type loginResult struct {
	token          string
	remaining      int
	lockoutSeconds int
}

func (d *Device) login(password string) (loginResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock.Now()
	if now.Before(d.lockedUntil) {
		return loginResult{lockoutSeconds: ceilSeconds(d.lockedUntil.Sub(now))}, common.ErrLockedOut
	}

	if password == d.cfg.Password {
		d.failed = 0
		token, err := common.MakeRandHexString(16)
		if err != nil {
			return loginResult{}, err
		}
		d.sessions[token] = struct{}{}
		return loginResult{token: token}, nil
	}

	d.failed++
	if d.cfg.LockoutDuration > 0 && d.failed >= d.cfg.MaxAttempts {
		d.failed = 0
		d.lockedUntil = now.Add(d.cfg.LockoutDuration)
		return loginResult{lockoutSeconds: ceilSeconds(d.cfg.LockoutDuration)}, common.ErrLockedOut
	}
	return loginResult{remaining: max(d.cfg.MaxAttempts-d.failed, 0)}, common.ErrWrongPassword
}

func ceilSeconds(d time.Duration) int {
	s := int(d / time.Second)
	if d%time.Second > 0 {
		s++
	}
	return s
}

func (d *Device) validSession(token string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.sessions[token]
	return token != "" && ok
}

func (d *Device) endSession(token string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.sessions, token)
}

// ExpireSessions drops every session, as a device reboot would.
func (d *Device) ExpireSessions() {
	d.mu.Lock()
	defer d.mu.Unlock()
	clear(d.sessions)
}

// Sessions is the number of live sessions.
func (d *Device) Sessions() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sessions)
}

// StatusRequests counts authenticated status requests served.
func (d *Device) StatusRequests() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.statusCalls
}

func (d *Device) status() models.DeviceSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.statusCalls++
	return d.snapshotLocked()
}
