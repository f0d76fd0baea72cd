package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smartkraft/lebensspur/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDevice(t *testing.T, h http.HandlerFunc) *DeviceClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	gw, err := NewGateway(srv.URL)
	require.NoError(t, err)
	return NewDeviceClient(gw)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func TestDeviceClient_Login(t *testing.T) {
	c := newTestDevice(t, func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password == "secret" {
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "token": "t1"})
			return
		}
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "Invalid password", "remainingAttempts": 2})
	})

	ok, err := c.Login(context.Background(), "secret")
	require.NoError(t, err)
	assert.True(t, ok.Success)
	assert.Equal(t, "t1", ok.Token)

	bad, err := c.Login(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, bad.Success)
	require.NotNil(t, bad.RemainingAttempts)
	assert.Equal(t, 2, *bad.RemainingAttempts)
	assert.Equal(t, "Invalid password", bad.Error)
}

func TestDeviceClient_LoginLockout(t *testing.T) {
	c := newTestDevice(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusTooManyRequests, map[string]any{"success": false, "lockoutSeconds": 300})
	})

	resp, err := c.Login(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, 300, resp.LockoutSeconds)
	assert.Nil(t, resp.RemainingAttempts)
}

func TestDeviceClient_StatusNormalizes(t *testing.T) {
	c := newTestDevice(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathStatus, r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"state": "bogus", "timeRemainingMs": 5})
	})

	snap, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StateDisabled, snap.State)
	assert.Equal(t, uint32(models.DefaultIntervalMinutes), snap.IntervalMinutes)
}

func TestDeviceClient_ValidateToken(t *testing.T) {
	c := newTestDevice(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"state": "RUNNING", "timeRemainingMs": 1000, "intervalMinutes": 1})
	})

	snap, err := c.ValidateToken(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, models.StateRunning, snap.State)

	_, err = c.ValidateToken(context.Background(), "stale")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = c.ValidateToken(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestDeviceClient_Actions(t *testing.T) {
	var paths []string
	var vacation models.VacationRequest
	c := newTestDevice(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == PathVacation {
			b, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(b, &vacation)
		}
		writeJSON(w, http.StatusOK, models.ActionResponse{Success: true})
	})

	ctx := context.Background()
	require.NoError(t, c.Reset(ctx))
	require.NoError(t, c.Enable(ctx))
	require.NoError(t, c.Disable(ctx))
	require.NoError(t, c.Acknowledge(ctx))
	require.NoError(t, c.SetVacation(ctx, true, 14))

	assert.Equal(t, []string{PathReset, PathEnable, PathDisable, PathAcknowledge, PathVacation}, paths)
	assert.Equal(t, models.VacationRequest{Enabled: true, Days: 14}, vacation)
}

func TestDeviceClient_ActionRejected(t *testing.T) {
	c := newTestDevice(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PathReset:
			writeJSON(w, http.StatusOK, models.ActionResponse{Success: false, Error: "Timer not running"})
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	})

	err := c.Reset(context.Background())
	require.ErrorIs(t, err, ErrRejected)
	var rej *RejectedError
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, "Timer not running", rej.Message)

	err = c.Enable(context.Background())
	assert.ErrorIs(t, err, ErrRejected)
}

func TestLockoutError_Minutes(t *testing.T) {
	assert.Equal(t, 5, (&LockoutError{Remaining: 300e9}).Minutes())
	assert.Equal(t, 1, (&LockoutError{Remaining: 1e9}).Minutes())
	assert.ErrorIs(t, &LockoutError{}, ErrLockedOut)
	assert.ErrorIs(t, &LoginRejectedError{}, ErrRejected)
}
