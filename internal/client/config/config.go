package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/smartkraft/lebensspur/internal/common"
	"github.com/smartkraft/lebensspur/internal/flagx"
)

// Auto-logout bounds in minutes.
const (
	MinAutoLogoutMinutes = 1
	MaxAutoLogoutMinutes = 60
)

// Config holds runtime settings for the client.
type Config struct {
	DeviceURL string

	PollInterval      time.Duration
	CountdownInterval time.Duration
	WatchdogInterval  time.Duration

	AutoLogoutMinutes int
	MaxLoginAttempts  int

	DatabasePath string
	AuditLogPath string
	MetricsAddr  string

	LogLevel  string
	LogFormat string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DeviceURL:         "http://lebensspur.local",
		PollInterval:      5 * time.Second,
		CountdownInterval: time.Second,
		WatchdogInterval:  10 * time.Second,
		AutoLogoutMinutes: 10,
		MaxLoginAttempts:  5,
		DatabasePath:      "lebensspur.db",
		LogLevel:          "info",
		LogFormat:         "text",
	}
}

// LoadConfig applies defaults and then the config file named in args, if any.
// Flags are applied later by the command that owns the flag set.
func LoadConfig(args []string) (*Config, error) {
	cfg := Default()
	if path := flagx.ConfigPath(args); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Validate checks the device URL and the intervals and clamps the
// auto-logout minutes into range.
func (c *Config) Validate() error {
	u, err := url.Parse(c.DeviceURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("invalid device url %q", c.DeviceURL)
	}
	if c.PollInterval <= 0 || c.CountdownInterval <= 0 || c.WatchdogInterval <= 0 {
		return errors.New("intervals must be positive")
	}
	if c.MaxLoginAttempts <= 0 {
		return errors.New("max login attempts must be positive")
	}
	c.AutoLogoutMinutes = common.ClampInt(c.AutoLogoutMinutes, MinAutoLogoutMinutes, MaxAutoLogoutMinutes)
	return nil
}
