package devicesim

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/smartkraft/lebensspur/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func do(t *testing.T, h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func loginToken(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/login", `{"password":"pw"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, resp.Token, cookies[0].Value)
	return resp.Token
}

func TestRouter_LoginAndStatus(t *testing.T) {
	dev, _ := newTestDevice(Config{Password: "pw", IntervalMinutes: 60, Enabled: true})
	h := NewRouter(dev, nil)

	rec := do(t, h, http.MethodGet, "/api/timer/status", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := loginToken(t, h)
	rec = do(t, h, http.MethodGet, "/api/timer/status", "", token)
	require.Equal(t, http.StatusOK, rec.Code)

	var snap models.DeviceSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, models.StateRunning, snap.State)
	assert.Equal(t, uint32(60), snap.IntervalMinutes)
	assert.Equal(t, 1, dev.StatusRequests())
}

func TestRouter_CookieSession(t *testing.T) {
	dev, _ := newTestDevice(Config{Password: "pw"})
	h := NewRouter(dev, nil)
	token := loginToken(t, h)

	req := httptest.NewRequest(http.MethodGet, "/api/timer/status", nil)
	req.AddCookie(&http.Cookie{Name: "LS_SID", Value: token})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_WrongPassword(t *testing.T) {
	dev, _ := newTestDevice(Config{Password: "pw", MaxAttempts: 3})
	h := NewRouter(dev, nil)

	rec := do(t, h, http.MethodPost, "/api/login", `{"password":"no"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var resp models.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.RemainingAttempts)
	assert.Equal(t, 2, *resp.RemainingAttempts)

	rec = do(t, h, http.MethodPost, "/api/login", `not json`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_Actions(t *testing.T) {
	dev, _ := newTestDevice(Config{Password: "pw", IntervalMinutes: 60})
	h := NewRouter(dev, nil)
	token := loginToken(t, h)

	decode := func(rec *httptest.ResponseRecorder) models.ActionResponse {
		var a models.ActionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
		return a
	}

	a := decode(do(t, h, http.MethodPost, "/api/timer/reset", "", token))
	assert.False(t, a.Success)
	assert.Equal(t, "Timer not running", a.Error)

	assert.True(t, decode(do(t, h, http.MethodPost, "/api/timer/enable", "", token)).Success)
	assert.True(t, decode(do(t, h, http.MethodPost, "/api/timer/disable", "", token)).Success)
	assert.Equal(t, models.StatePaused, dev.Snapshot().State)

	assert.True(t, decode(do(t, h, http.MethodPost, "/api/timer/vacation", `{"enabled":true,"days":7}`, token)).Success)
	assert.Equal(t, models.StateVacation, dev.Snapshot().State)

	rec := do(t, h, http.MethodPost, "/api/timer/explode", "", token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_Logout(t *testing.T) {
	dev, _ := newTestDevice(Config{Password: "pw"})
	h := NewRouter(dev, nil)
	token := loginToken(t, h)
	require.Equal(t, 1, dev.Sessions())

	rec := do(t, h, http.MethodPost, "/api/logout", "", token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, dev.Sessions())

	rec = do(t, h, http.MethodGet, "/api/timer/status", "", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
