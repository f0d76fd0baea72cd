package services

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/smartkraft/lebensspur/internal/client/client"
	"github.com/smartkraft/lebensspur/internal/client/models"
	"k8s.io/utils/clock"
	testingclock "k8s.io/utils/clock/testing"
)

var epoch = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

// countingClock counts the tickers created on top of a FakeClock.
type countingClock struct {
	*testingclock.FakeClock
	tickers atomic.Int32
}

func newCountingClock() *countingClock {
	return &countingClock{FakeClock: testingclock.NewFakeClock(epoch)}
}

func (c *countingClock) NewTicker(d time.Duration) clock.Ticker {
	c.tickers.Add(1)
	return c.FakeClock.NewTicker(d)
}

type fakeClient struct {
	mu sync.Mutex

	loginFn    func(password string) (*models.LoginResponse, error)
	statusFn   func() (*models.DeviceSnapshot, error)
	validateFn func(token string) (*models.DeviceSnapshot, error)
	actionErr  error

	loginCalls   int
	logoutTokens []string
	actions      []string
}

var _ client.Client = (*fakeClient)(nil)

func (f *fakeClient) Login(_ context.Context, password string) (*models.LoginResponse, error) {
	f.mu.Lock()
	f.loginCalls++
	fn := f.loginFn
	f.mu.Unlock()
	if fn == nil {
		return &models.LoginResponse{Success: true, Token: "tok"}, nil
	}
	return fn(password)
}

func (f *fakeClient) Logout(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutTokens = append(f.logoutTokens, token)
	return nil
}

func (f *fakeClient) Status(context.Context) (*models.DeviceSnapshot, error) {
	f.mu.Lock()
	fn := f.statusFn
	f.mu.Unlock()
	if fn == nil {
		return &models.DeviceSnapshot{State: models.StateRunning, TimeRemainingMs: 60_000, IntervalMinutes: 60}, nil
	}
	return fn()
}

func (f *fakeClient) ValidateToken(_ context.Context, token string) (*models.DeviceSnapshot, error) {
	f.mu.Lock()
	fn := f.validateFn
	f.mu.Unlock()
	if fn == nil {
		return &models.DeviceSnapshot{}, nil
	}
	return fn(token)
}

func (f *fakeClient) action(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, name)
	return f.actionErr
}

func (f *fakeClient) Reset(context.Context) error       { return f.action("reset") }
func (f *fakeClient) Enable(context.Context) error      { return f.action("enable") }
func (f *fakeClient) Disable(context.Context) error     { return f.action("disable") }
func (f *fakeClient) Acknowledge(context.Context) error { return f.action("acknowledge") }

func (f *fakeClient) SetVacation(_ context.Context, enabled bool, days int) error {
	if !enabled {
		return f.action("vacation:off")
	}
	return f.action("vacation:" + strconv.Itoa(days))
}

func (f *fakeClient) calls() (logins int, logouts []string, actions []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginCalls, append([]string(nil), f.logoutTokens...), append([]string(nil), f.actions...)
}

type fakeSyncer struct {
	starts atomic.Int32
	stops  atomic.Int32
	onStop func()
}

func (f *fakeSyncer) Start(context.Context) { f.starts.Add(1) }

func (f *fakeSyncer) Stop() {
	f.stops.Add(1)
	if f.onStop != nil {
		f.onStop()
	}
}

type memStore struct {
	mu         sync.Mutex
	token      string
	autoLogout int
	hasAuto    bool
}

func (s *memStore) LoadToken(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *memStore) SaveToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *memStore) ClearToken(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

func (s *memStore) LoadAutoLogout(context.Context) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoLogout, s.hasAuto, nil
}

func (s *memStore) SaveAutoLogout(_ context.Context, minutes int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoLogout, s.hasAuto = minutes, true
	return nil
}

func (s *memStore) storedToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}
