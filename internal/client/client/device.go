package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/smartkraft/lebensspur/internal/client/models"
)

// Device API paths.
const (
	PathLogin       = "/api/login"
	PathLogout      = "/api/logout"
	PathStatus      = "/api/timer/status"
	PathReset       = "/api/timer/reset"
	PathEnable      = "/api/timer/enable"
	PathDisable     = "/api/timer/disable"
	PathAcknowledge = "/api/timer/acknowledge"
	PathVacation    = "/api/timer/vacation"
)

const maxResponseBytes = 1 << 20

// Client is the typed device API used by the session engine.
type Client interface {
	// Login submits the password. A refused login is not an error: the
	// response carries success=false together with the lockout fields.
	Login(ctx context.Context, password string) (*models.LoginResponse, error)
	// Logout revokes token on the device.
	Logout(ctx context.Context, token string) error
	// Status fetches the current device snapshot under the session credential.
	Status(ctx context.Context) (*models.DeviceSnapshot, error)
	// ValidateToken fetches the status with an explicit token. It returns
	// ErrUnauthorized if the device no longer accepts the token.
	ValidateToken(ctx context.Context, token string) (*models.DeviceSnapshot, error)

	Reset(ctx context.Context) error
	Enable(ctx context.Context) error
	Disable(ctx context.Context) error
	Acknowledge(ctx context.Context) error
	SetVacation(ctx context.Context, enabled bool, days int) error
}

// Caller performs a single gateway call.
type Caller interface {
	Call(ctx context.Context, r Request) (*http.Response, error)
}

// DeviceClient implements Client on top of a Gateway.
type DeviceClient struct {
	gw Caller
}

var _ Client = (*DeviceClient)(nil)

func NewDeviceClient(gw Caller) *DeviceClient {
	return &DeviceClient{gw: gw}
}

func (c *DeviceClient) Login(ctx context.Context, password string) (*models.LoginResponse, error) {
	resp, err := c.gw.Call(ctx, Request{
		Method: http.MethodPost,
		Path:   PathLogin,
		Body:   models.LoginRequest{Password: password},
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out models.LoginResponse
	if err := decodeJSON(resp, &out); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, &RejectedError{Message: resp.Status}
		}
		return nil, fmt.Errorf("decode login response: %w", err)
	}
	return &out, nil
}

func (c *DeviceClient) Logout(ctx context.Context, token string) error {
	return c.post(ctx, Request{Method: http.MethodPost, Path: PathLogout, Bearer: token})
}

func (c *DeviceClient) Status(ctx context.Context) (*models.DeviceSnapshot, error) {
	return c.status(ctx, "")
}

func (c *DeviceClient) ValidateToken(ctx context.Context, token string) (*models.DeviceSnapshot, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	return c.status(ctx, token)
}

func (c *DeviceClient) status(ctx context.Context, bearer string) (*models.DeviceSnapshot, error) {
	resp, err := c.gw.Call(ctx, Request{Method: http.MethodGet, Path: PathStatus, Bearer: bearer})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("status: unexpected response %s", resp.Status)
	}

	var snap models.DeviceSnapshot
	if err := decodeJSON(resp, &snap); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	snap.Normalize()
	return &snap, nil
}

func (c *DeviceClient) Reset(ctx context.Context) error {
	return c.post(ctx, Request{Method: http.MethodPost, Path: PathReset})
}

func (c *DeviceClient) Enable(ctx context.Context) error {
	return c.post(ctx, Request{Method: http.MethodPost, Path: PathEnable})
}

func (c *DeviceClient) Disable(ctx context.Context) error {
	return c.post(ctx, Request{Method: http.MethodPost, Path: PathDisable})
}

func (c *DeviceClient) Acknowledge(ctx context.Context) error {
	return c.post(ctx, Request{Method: http.MethodPost, Path: PathAcknowledge})
}

func (c *DeviceClient) SetVacation(ctx context.Context, enabled bool, days int) error {
	body := models.VacationRequest{Enabled: enabled}
	if enabled {
		body.Days = days
	}
	return c.post(ctx, Request{Method: http.MethodPost, Path: PathVacation, Body: body})
}

func (c *DeviceClient) post(ctx context.Context, r Request) error {
	resp, err := c.gw.Call(ctx, r)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}

	var out models.ActionResponse
	if err := decodeJSON(resp, &out); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return &RejectedError{Message: resp.Status}
		}
		return fmt.Errorf("decode %s response: %w", r.Path, err)
	}
	if !out.Success {
		return &RejectedError{Message: out.Error}
	}
	return nil
}

func decodeJSON(resp *http.Response, v any) error {
	return json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(v)
}
