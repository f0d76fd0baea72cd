package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/smartkraft/lebensspur/internal/client/client"
	"github.com/smartkraft/lebensspur/internal/client/models"
	"github.com/smartkraft/lebensspur/internal/client/notify"
	"github.com/smartkraft/lebensspur/internal/common"
	"k8s.io/utils/clock"
)

// Auto-logout bounds in minutes.
const (
	MinAutoLogoutMinutes = 1
	MaxAutoLogoutMinutes = 60
)

// Teardown reasons, also used as metric labels.
const (
	ReasonLogout         = "logout"
	ReasonAutoLogout     = "auto_logout"
	ReasonSessionExpired = "session_expired"
)

// Syncer is started and stopped by session transitions.
type Syncer interface {
	Start(ctx context.Context)
	Stop()
}

// TokenStore persists the session token and the auto-logout preference.
type TokenStore interface {
	LoadToken(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
	LoadAutoLogout(ctx context.Context) (int, bool, error)
	SaveAutoLogout(ctx context.Context, minutes int) error
}

type SessionConfig struct {
	AutoLogoutMinutes int
	MaxAttempts       int
	WatchdogInterval  time.Duration
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.AutoLogoutMinutes == 0 {
		c.AutoLogoutMinutes = 10
	}
	c.AutoLogoutMinutes = common.ClampInt(c.AutoLogoutMinutes, MinAutoLogoutMinutes, MaxAutoLogoutMinutes)
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.WatchdogInterval <= 0 {
		c.WatchdogInterval = 10 * time.Second
	}
	return c
}

// SessionManager is the single owner of authentication state. It implements
// client.Session so the gateway can read the credential and report expiry.
//
// Every successful login or restore starts a new generation. Teardowns name
// the generation they target and are ignored once it is gone, so a session
// ends exactly once no matter how many paths race to end it.
type SessionManager struct {
	client client.Client
	syncer Syncer
	store  TokenStore
	cfg    SessionConfig
	options

	mu                sync.Mutex
	authenticated     bool
	token             string
	generation        uint64
	lastActivity      time.Time
	autoLogoutMinutes int
	failedAttempts    int
	lockoutUntil      *time.Time
	stopWatchdog      context.CancelFunc
}

var _ client.Session = (*SessionManager)(nil)

func NewSessionManager(c client.Client, syncer Syncer, store TokenStore, cfg SessionConfig, opts ...Option) *SessionManager {
	cfg = cfg.withDefaults()
	return &SessionManager{
		client:            c,
		syncer:            syncer,
		store:             store,
		cfg:               cfg,
		options:           newOptions(opts),
		autoLogoutMinutes: cfg.AutoLogoutMinutes,
	}
}

// Credential implements client.Session.
func (m *SessionManager) Credential() client.Credential {
	m.mu.Lock()
	defer m.mu.Unlock()
	return client.Credential{Token: m.token, Generation: m.generation, Authenticated: m.authenticated}
}

// InvalidateSession implements client.Session. It is called by the gateway
// after a 401 on an authenticated call.
func (m *SessionManager) InvalidateSession(ctx context.Context, generation uint64) bool {
	_, ok := m.teardown(ctx, ReasonSessionExpired, generation, func() {
		m.auditor.Add(models.AuditSessionExpired, "Session expired", "device rejected the session")
	})
	return ok
}

func (m *SessionManager) View() models.SessionView {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := models.SessionView{
		Authenticated:     m.authenticated,
		HasCredential:     m.token != "",
		Generation:        m.generation,
		LastActivity:      m.lastActivity,
		AutoLogoutMinutes: m.autoLogoutMinutes,
		FailedAttempts:    m.failedAttempts,
		MaxAttempts:       m.cfg.MaxAttempts,
	}
	if m.lockoutUntil != nil {
		t := *m.lockoutUntil
		v.LockoutUntil = &t
	}
	return v
}

// Login submits password to the device.
//
// It fails with client.ErrAlreadyAuthenticated while a session is live and
// with a *client.LockoutError while a lockout is in force, without contacting
// the device. A refused password yields *client.LoginRejectedError; a device
// lockout yields *client.LockoutError. Transport errors are returned as is.
func (m *SessionManager) Login(ctx context.Context, password string) error {
	m.mu.Lock()
	if m.authenticated {
		m.mu.Unlock()
		return client.ErrAlreadyAuthenticated
	}
	now := m.clock.Now()
	if m.lockoutUntil != nil && now.Before(*m.lockoutUntil) {
		lerr := &client.LockoutError{Remaining: m.lockoutUntil.Sub(now)}
		m.mu.Unlock()
		m.metrics.Login("blocked")
		m.notifier.Notify(notify.Error(fmt.Sprintf("Too many failed attempts, wait %d min", lerr.Minutes())))
		return lerr
	}
	m.mu.Unlock()

	resp, err := m.client.Login(ctx, password)
	if err != nil {
		m.metrics.Login("error")
		var rej *client.RejectedError
		if errors.As(err, &rej) {
			m.notifier.Notify(notify.Error("Login failed: " + rej.Message))
		} else {
			m.notifier.Notify(notify.Error("Connection error"))
		}
		m.log.Warn(ctx, "login request failed", "error", err)
		return err
	}

	switch {
	case resp.Success:
		if _, ok := m.establish(ctx, resp.Token); !ok {
			return client.ErrAlreadyAuthenticated
		}
		m.metrics.Login("ok")
		m.auditor.Add(models.AuditLogin, "Logged in", "")
		m.notifier.Notify(notify.Success("Login successful"))
		return nil

	case resp.LockoutSeconds > 0:
		return m.lockout(ctx, time.Duration(resp.LockoutSeconds)*time.Second)

	default:
		return m.rejected(ctx, resp)
	}
}

func (m *SessionManager) lockout(ctx context.Context, d time.Duration) error {
	until := m.clock.Now().Add(d)

	m.mu.Lock()
	m.lockoutUntil = &until
	m.failedAttempts = 0
	m.mu.Unlock()

	lerr := &client.LockoutError{Remaining: d}
	m.metrics.Login("lockout")
	m.auditor.Add(models.AuditLockout, "Login locked", fmt.Sprintf("%d seconds", int(d.Seconds())))
	m.notifier.Notify(notify.Error(fmt.Sprintf("Too many failed attempts, locked for %d min", lerr.Minutes())))
	m.log.Warn(ctx, "login locked out", "until", until)
	return lerr
}

// rejected counts a refused password. The device's remainingAttempts wins
// over the local count when present.
func (m *SessionManager) rejected(ctx context.Context, resp *models.LoginResponse) error {
	m.mu.Lock()
	m.failedAttempts++
	remaining := max(m.cfg.MaxAttempts-m.failedAttempts, 0)
	m.mu.Unlock()

	if resp.RemainingAttempts != nil {
		remaining = max(*resp.RemainingAttempts, 0)
	}

	m.metrics.Login("rejected")
	m.auditor.Add(models.AuditLoginFailed, "Failed login attempt", fmt.Sprintf("%d attempts left", remaining))
	m.notifier.Notify(notify.Error(fmt.Sprintf("Wrong password, %d attempts left", remaining)))
	m.log.Info(ctx, "login rejected", "remaining", remaining)
	return &client.LoginRejectedError{RemainingAttempts: remaining, Message: resp.Error}
}

// establish opens a new session generation. It reports false if a session
// was already live.
func (m *SessionManager) establish(ctx context.Context, token string) (uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.authenticated {
		return 0, false
	}
	m.generation++
	m.authenticated = true
	m.token = token
	m.failedAttempts = 0
	m.lockoutUntil = nil
	m.lastActivity = m.clock.Now()

	if token != "" {
		if err := m.store.SaveToken(ctx, token); err != nil {
			m.log.Warn(ctx, "could not persist session token", "error", err)
		}
	}

	m.startWatchdogLocked(m.generation)
	m.syncer.Start(context.WithoutCancel(ctx))

	m.log.Info(ctx, "session established", "generation", m.generation)
	return m.generation, true
}

// teardown ends the session if it is live and, when generation is not zero,
// still the current one. before runs under the lock once the transition is
// certain. It never waits on the watchdog or on an in-flight poll, so it is
// safe to call from either.
func (m *SessionManager) teardown(ctx context.Context, reason string, generation uint64, before func()) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.authenticated || (generation != 0 && generation != m.generation) {
		return "", false
	}
	if before != nil {
		before()
	}

	token := m.token
	m.authenticated = false
	m.token = ""
	if m.stopWatchdog != nil {
		m.stopWatchdog()
		m.stopWatchdog = nil
	}
	m.syncer.Stop()
	if err := m.store.ClearToken(ctx); err != nil {
		m.log.Warn(ctx, "could not clear session token", "error", err)
	}

	m.metrics.Teardown(reason)
	m.log.Info(ctx, "session ended", "reason", reason, "generation", m.generation)
	return token, true
}

// Logout ends the session locally and then asks the device to revoke the
// token. The device call is best effort. Logging out without a session is a
// no-op.
func (m *SessionManager) Logout(ctx context.Context) error {
	ok := m.logout(ctx, ReasonLogout, 0, func() {
		m.auditor.Add(models.AuditLogout, "Logged out", "")
	})
	if ok {
		m.notifier.Notify(notify.Info("Logged out"))
	}
	return nil
}

func (m *SessionManager) logout(ctx context.Context, reason string, generation uint64, before func()) bool {
	token, ok := m.teardown(ctx, reason, generation, before)
	if !ok {
		return false
	}
	// an empty token still ends a cookie session
	if err := m.client.Logout(ctx, token); err != nil {
		m.log.Debug(ctx, "device logout failed", "error", err)
	}
	return true
}

// RecordActivity marks user activity for the inactivity watchdog.
func (m *SessionManager) RecordActivity() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.authenticated {
		m.lastActivity = m.clock.Now()
	}
}

// SetAutoLogout stores a new inactivity limit, clamped to 1..60 minutes, and
// returns the value applied. A running watchdog uses it from its next tick.
func (m *SessionManager) SetAutoLogout(ctx context.Context, minutes int) (int, error) {
	minutes = common.ClampInt(minutes, MinAutoLogoutMinutes, MaxAutoLogoutMinutes)

	m.mu.Lock()
	m.autoLogoutMinutes = minutes
	m.mu.Unlock()

	if err := m.store.SaveAutoLogout(ctx, minutes); err != nil {
		return minutes, fmt.Errorf("save auto-logout: %w", err)
	}
	return minutes, nil
}

func (m *SessionManager) startWatchdogLocked(generation uint64) {
	ctx, cancel := context.WithCancel(context.Background())
	m.stopWatchdog = cancel
	go m.watchdog(ctx, generation, m.clock.NewTicker(m.cfg.WatchdogInterval))
}

func (m *SessionManager) watchdog(ctx context.Context, generation uint64, t clock.Ticker) {
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			if m.checkIdle(ctx, generation) {
				return
			}
		}
	}
}

// checkIdle logs the session out once the inactivity limit is reached. It
// reports whether the watchdog should exit.
func (m *SessionManager) checkIdle(ctx context.Context, generation uint64) bool {
	m.mu.Lock()
	if !m.authenticated || m.generation != generation {
		m.mu.Unlock()
		return true
	}
	minutes := m.autoLogoutMinutes
	idle := m.clock.Since(m.lastActivity)
	m.mu.Unlock()

	if idle < time.Duration(minutes)*time.Minute {
		return false
	}

	detail := fmt.Sprintf("%d minutes without activity", minutes)
	ok := m.logout(context.WithoutCancel(ctx), ReasonAutoLogout, generation, func() {
		m.auditor.Add(models.AuditAutoLogout, "Automatic logout", detail)
	})
	if ok {
		m.notifier.Notify(notify.Warning("Logged out after " + detail))
	}
	return true
}

// Restore resumes the session saved by a previous run. A token the device no
// longer accepts is discarded. If the device cannot be reached the token is
// kept for the next start and the error is returned.
func (m *SessionManager) Restore(ctx context.Context) error {
	if minutes, ok, err := m.store.LoadAutoLogout(ctx); err != nil {
		m.log.Warn(ctx, "could not load auto-logout preference", "error", err)
	} else if ok {
		m.mu.Lock()
		m.autoLogoutMinutes = common.ClampInt(minutes, MinAutoLogoutMinutes, MaxAutoLogoutMinutes)
		m.mu.Unlock()
	}

	token, err := m.store.LoadToken(ctx)
	if err != nil {
		return fmt.Errorf("load session token: %w", err)
	}
	if token == "" {
		return nil
	}

	_, err = m.client.ValidateToken(ctx, token)
	switch {
	case err == nil:
		if _, ok := m.establish(ctx, token); ok {
			m.auditor.Add(models.AuditLogin, "Session restored", "")
			m.notifier.Notify(notify.Info("Session restored"))
		}
		return nil
	case errors.Is(err, client.ErrUnauthorized):
		m.log.Info(ctx, "stored session no longer valid")
		if err := m.store.ClearToken(ctx); err != nil {
			m.log.Warn(ctx, "could not clear session token", "error", err)
		}
		return nil
	default:
		return fmt.Errorf("restore session: %w", err)
	}
}

// Close stops background work without ending the session, so the stored
// token can be restored by the next run.
func (m *SessionManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopWatchdog != nil {
		m.stopWatchdog()
		m.stopWatchdog = nil
	}
	m.syncer.Stop()
}
