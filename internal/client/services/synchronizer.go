package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/smartkraft/lebensspur/internal/client/client"
	"github.com/smartkraft/lebensspur/internal/client/display"
	"github.com/smartkraft/lebensspur/internal/client/models"
	"github.com/smartkraft/lebensspur/internal/client/notify"
	"github.com/smartkraft/lebensspur/internal/common"
	"k8s.io/utils/clock"
)

// Vacation length bounds in days.
const (
	MinVacationDays = 1
	MaxVacationDays = 60
)

type SyncConfig struct {
	PollInterval      time.Duration
	CountdownInterval time.Duration
}

func (c SyncConfig) withDefaults() SyncConfig {
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.CountdownInterval <= 0 {
		c.CountdownInterval = time.Second
	}
	return c
}

// Synchronizer mirrors the device timer while a session is live. It polls the
// device status on a fixed cadence, interpolates the countdown between polls
// and performs the mutating timer actions.
//
// Every Start opens a new generation. Poll results and countdown ticks that
// belong to an older generation are dropped, so nothing from a previous
// session can touch the snapshot after Stop.
type Synchronizer struct {
	client client.Client
	cfg    SyncConfig
	options

	mu          sync.Mutex
	snapshot    models.DeviceSnapshot
	hasSnapshot bool
	running     bool
	generation  uint64
	cancel      context.CancelFunc
	listeners   map[int]func(models.DeviceSnapshot)
	nextID      int
}

func NewSynchronizer(c client.Client, cfg SyncConfig, opts ...Option) *Synchronizer {
	return &Synchronizer{
		client:    c,
		cfg:       cfg.withDefaults(),
		options:   newOptions(opts),
		listeners: make(map[int]func(models.DeviceSnapshot)),
	}
}

// Start launches the poll and countdown loops. Calling Start while running is
// a no-op. The first poll is issued immediately.
func (s *Synchronizer) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.generation++
	gen := s.generation

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	poll := s.clock.NewTicker(s.cfg.PollInterval)
	countdown := s.clock.NewTicker(s.cfg.CountdownInterval)

	go s.pollLoop(ctx, gen, poll)
	go s.countdownLoop(ctx, gen, countdown)

	s.log.Debug(ctx, "synchronizer started", "generation", gen)
}

// Stop cancels both loops and forgets the snapshot. It does not wait for an
// in-flight poll; that poll's result is discarded by its stale generation.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false
	s.generation++
	s.cancel()
	s.cancel = nil
	s.snapshot = models.DeviceSnapshot{}
	s.hasSnapshot = false
}

func (s *Synchronizer) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Snapshot returns the current snapshot and whether one has been received
// since the last Start.
func (s *Synchronizer) Snapshot() (models.DeviceSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot, s.hasSnapshot
}

func (s *Synchronizer) Display() (display.Display, bool) {
	snap, ok := s.Snapshot()
	if !ok {
		return display.Display{}, false
	}
	return display.Project(snap), true
}

// Subscribe registers fn to be called after every snapshot change, from the
// goroutine that made it. The returned func removes the subscription.
func (s *Synchronizer) Subscribe(fn func(models.DeviceSnapshot)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Synchronizer) pollLoop(ctx context.Context, gen uint64, t clock.Ticker) {
	defer t.Stop()

	s.pollOnce(ctx, gen)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			s.pollOnce(ctx, gen)
		}
	}
}

func (s *Synchronizer) countdownLoop(ctx context.Context, gen uint64, t clock.Ticker) {
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			s.countdownTick(gen)
		}
	}
}

// pollOnce fetches the status and applies it. Failures are logged and
// otherwise ignored; the next scheduled poll tries again.
func (s *Synchronizer) pollOnce(ctx context.Context, gen uint64) {
	snap, err := s.client.Status(ctx)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return
		case errors.Is(err, client.ErrSessionExpired):
			s.metrics.Poll("expired")
			s.log.Info(ctx, "status poll ended the session", "generation", gen)
		default:
			s.metrics.Poll("error")
			s.log.Warn(ctx, "status poll failed", "error", err)
		}
		return
	}
	s.apply(ctx, gen, *snap)
}

func (s *Synchronizer) apply(ctx context.Context, gen uint64, snap models.DeviceSnapshot) {
	s.mu.Lock()
	if !s.running || gen != s.generation {
		s.mu.Unlock()
		s.metrics.Poll("stale")
		s.log.Debug(ctx, "discarding stale poll result", "generation", gen)
		return
	}
	s.snapshot = snap
	s.hasSnapshot = true
	listeners := s.listenersLocked()
	s.mu.Unlock()

	s.metrics.Poll("ok")
	s.metrics.SetTimeRemaining(snap.TimeRemainingMs)
	notifyAll(listeners, snap)
}

// countdownTick lowers the local remaining time by one countdown interval
// while the device is counting down. It never goes below zero.
func (s *Synchronizer) countdownTick(gen uint64) {
	s.mu.Lock()
	if !s.running || gen != s.generation || !s.hasSnapshot ||
		!s.snapshot.State.CountsDown() || s.snapshot.TimeRemainingMs == 0 {
		s.mu.Unlock()
		return
	}
	step := uint64(s.cfg.CountdownInterval.Milliseconds())
	if s.snapshot.TimeRemainingMs < step {
		s.snapshot.TimeRemainingMs = 0
	} else {
		s.snapshot.TimeRemainingMs -= step
	}
	snap := s.snapshot
	listeners := s.listenersLocked()
	s.mu.Unlock()

	notifyAll(listeners, snap)
}

func (s *Synchronizer) listenersLocked() []func(models.DeviceSnapshot) {
	out := make([]func(models.DeviceSnapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		out = append(out, fn)
	}
	return out
}

func notifyAll(listeners []func(models.DeviceSnapshot), snap models.DeviceSnapshot) {
	for _, fn := range listeners {
		fn(snap)
	}
}

func (s *Synchronizer) currentState() models.State {
	snap, _ := s.Snapshot()
	return snap.State
}

// Reset performs the primary action for the current state: a TRIGGERED alarm
// is acknowledged, a DISABLED timer is enabled and anything else is reset.
func (s *Synchronizer) Reset(ctx context.Context) error {
	switch s.currentState() {
	case models.StateTriggered:
		return s.Acknowledge(ctx)
	case models.StateDisabled:
		return s.Enable(ctx)
	default:
		return s.perform(ctx, "reset", notify.Success("Timer reset"), s.client.Reset)
	}
}

func (s *Synchronizer) Enable(ctx context.Context) error {
	return s.perform(ctx, "enable", notify.Success("Countdown started"), s.client.Enable)
}

func (s *Synchronizer) Disable(ctx context.Context) error {
	return s.perform(ctx, "disable", notify.Info("Countdown stopped"), s.client.Disable)
}

func (s *Synchronizer) Acknowledge(ctx context.Context) error {
	return s.perform(ctx, "acknowledge", notify.Success("Alarm acknowledged"), s.client.Acknowledge)
}

// TogglePause resumes a DISABLED or PAUSED timer and stops any other.
func (s *Synchronizer) TogglePause(ctx context.Context) error {
	switch s.currentState() {
	case models.StateDisabled, models.StatePaused:
		return s.Enable(ctx)
	default:
		return s.Disable(ctx)
	}
}

// SetVacation enables vacation mode for days (clamped to 1..60) or clears it.
func (s *Synchronizer) SetVacation(ctx context.Context, enabled bool, days int) error {
	msg := notify.Success("Vacation mode disabled")
	if enabled {
		days = common.ClampInt(days, MinVacationDays, MaxVacationDays)
		msg = notify.Success(fmt.Sprintf("Vacation mode enabled for %d days", days))
	}
	return s.perform(ctx, "vacation", msg, func(ctx context.Context) error {
		return s.client.SetVacation(ctx, enabled, days)
	})
}

// perform runs a mutating call. On success it records the action and polls
// right away instead of waiting for the next cadence. A rejected call leaves
// the snapshot untouched.
func (s *Synchronizer) perform(ctx context.Context, action string, ok notify.Notification, call func(context.Context) error) error {
	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()

	err := call(ctx)
	switch {
	case err == nil:
		s.metrics.Action(action, "ok")
		s.auditor.Add(models.AuditAction, ok.Message, action)
		s.notifier.Notify(ok)
		s.pollOnce(ctx, gen)
		return nil

	case errors.Is(err, client.ErrSessionExpired):
		s.metrics.Action(action, "expired")
		return err

	case errors.Is(err, client.ErrRejected):
		s.metrics.Action(action, "rejected")
		msg := "Action failed"
		var rej *client.RejectedError
		if errors.As(err, &rej) && rej.Message != "" {
			msg = rej.Message
		}
		s.notifier.Notify(notify.Error(msg))
		return err

	case errors.Is(err, client.ErrUnauthorized):
		s.metrics.Action(action, "unauthorized")
		s.notifier.Notify(notify.Error("Not logged in"))
		return err

	default:
		s.metrics.Action(action, "error")
		s.log.Warn(ctx, "timer action failed", "action", action, "error", err)
		s.notifier.Notify(notify.Error("Connection error"))
		return err
	}
}
