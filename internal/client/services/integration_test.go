package services

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/smartkraft/lebensspur/internal/client/audit"
	"github.com/smartkraft/lebensspur/internal/client/client"
	"github.com/smartkraft/lebensspur/internal/client/models"
	"github.com/smartkraft/lebensspur/internal/client/notify"
	"github.com/smartkraft/lebensspur/internal/devicesim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"
)

type stack struct {
	device      *devicesim.Device
	deviceClock *testingclock.FakeClock
	session     *SessionManager
	sync        *Synchronizer
	store       *memStore
	audit       *audit.Log
	notes       *notify.Recorder
}

func newStack(t *testing.T, cfg devicesim.Config) *stack {
	t.Helper()

	st := &stack{
		deviceClock: testingclock.NewFakeClock(epoch),
		store:       &memStore{},
		audit:       audit.NewLog(),
		notes:       &notify.Recorder{},
	}
	st.device = devicesim.NewDevice(cfg, st.deviceClock)
	srv := httptest.NewServer(devicesim.NewRouter(st.device, nil))
	t.Cleanup(srv.Close)

	gw, err := client.NewGateway(srv.URL, client.WithNotifier(st.notes))
	require.NoError(t, err)
	dc := client.NewDeviceClient(gw)

	clk := newCountingClock()
	opts := []Option{WithClock(clk), WithNotifier(st.notes), WithAuditor(st.audit)}
	st.sync = NewSynchronizer(dc, SyncConfig{}, opts...)
	st.session = NewSessionManager(dc, st.sync, st.store, SessionConfig{}, opts...)
	gw.RegisterSession(st.session)
	t.Cleanup(st.session.Close)
	return st
}

func (st *stack) waitForState(t *testing.T, want models.State) {
	t.Helper()
	require.Eventually(t, func() bool {
		snap, ok := st.sync.Snapshot()
		return ok && snap.State == want
	}, 2*time.Second, 5*time.Millisecond)
}

func TestIntegration_ResetWhileTriggeredPollsImmediately(t *testing.T) {
	st := newStack(t, devicesim.Config{Password: "pw", IntervalMinutes: 60, Enabled: true})
	st.deviceClock.Step(2 * time.Hour)

	ctx := context.Background()
	require.NoError(t, st.session.Login(ctx, "pw"))
	st.waitForState(t, models.StateTriggered)
	polls := st.device.StatusRequests()

	require.NoError(t, st.sync.Reset(ctx))

	snap, ok := st.sync.Snapshot()
	require.True(t, ok)
	assert.Equal(t, models.StateRunning, snap.State)
	assert.Equal(t, uint64(3_600_000), snap.TimeRemainingMs)
	assert.Equal(t, polls+1, st.device.StatusRequests())
}

func TestIntegration_ExpiredSessionTearsDownOnce(t *testing.T) {
	st := newStack(t, devicesim.Config{Password: "pw", IntervalMinutes: 60, Enabled: true})
	ctx := context.Background()

	require.NoError(t, st.session.Login(ctx, "pw"))
	st.waitForState(t, models.StateRunning)

	st.device.ExpireSessions()

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = st.sync.Disable(ctx)
		}()
	}
	wg.Wait()

	v := st.session.View()
	assert.False(t, v.Authenticated)
	assert.False(t, st.sync.Running())
	assert.Empty(t, st.store.storedToken())
	assert.Equal(t, 1, st.notes.Count(notify.LevelWarning))
	assert.Len(t, st.audit.Filter(models.AuditSessionExpired), 1)
	assert.Equal(t, models.StateRunning, st.device.Snapshot().State)

	// logging in again starts a fresh generation and polling
	require.NoError(t, st.session.Login(ctx, "pw"))
	assert.Equal(t, uint64(2), st.session.View().Generation)
	st.waitForState(t, models.StateRunning)
}

func TestIntegration_LogoutRevokesDeviceSession(t *testing.T) {
	st := newStack(t, devicesim.Config{Password: "pw"})
	ctx := context.Background()

	require.NoError(t, st.session.Login(ctx, "pw"))
	st.waitForState(t, models.StateDisabled)
	require.Equal(t, 1, st.device.Sessions())

	require.NoError(t, st.session.Logout(ctx))
	assert.Zero(t, st.device.Sessions())
	_, ok := st.sync.Snapshot()
	assert.False(t, ok)
	assert.Zero(t, st.notes.Count(notify.LevelWarning))
}

func TestIntegration_RestoreAfterRestart(t *testing.T) {
	st := newStack(t, devicesim.Config{Password: "pw", IntervalMinutes: 30, Enabled: true})
	ctx := context.Background()

	require.NoError(t, st.session.Login(ctx, "pw"))
	token := st.store.storedToken()
	require.NotEmpty(t, token)
	st.session.Close()

	// a second process sharing the device and the store
	restored := newStackSharing(t, st)
	require.NoError(t, restored.session.Restore(ctx))
	assert.True(t, restored.session.View().Authenticated)
	restored.waitForState(t, models.StateRunning)

	st.device.ExpireSessions()
	again := newStackSharing(t, st)
	require.NoError(t, again.session.Restore(ctx))
	assert.False(t, again.session.View().Authenticated)
	assert.Empty(t, st.store.storedToken())
}

// newStackSharing builds a second client over the same device and store.
func newStackSharing(t *testing.T, base *stack) *stack {
	t.Helper()

	srv := httptest.NewServer(devicesim.NewRouter(base.device, nil))
	t.Cleanup(srv.Close)

	st := &stack{
		device:      base.device,
		deviceClock: base.deviceClock,
		store:       base.store,
		audit:       audit.NewLog(),
		notes:       &notify.Recorder{},
	}
	gw, err := client.NewGateway(srv.URL, client.WithNotifier(st.notes))
	require.NoError(t, err)
	dc := client.NewDeviceClient(gw)

	opts := []Option{WithClock(newCountingClock()), WithNotifier(st.notes), WithAuditor(st.audit)}
	st.sync = NewSynchronizer(dc, SyncConfig{}, opts...)
	st.session = NewSessionManager(dc, st.sync, st.store, SessionConfig{}, opts...)
	gw.RegisterSession(st.session)
	t.Cleanup(st.session.Close)
	return st
}
