package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/smartkraft/lebensspur/internal/timex"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// fileConfig mirrors Config for decoding. Pointers tell an absent key apart
// from a zero value.
type fileConfig struct {
	DeviceURL         *string         `json:"device_url" yaml:"device_url"`
	PollInterval      *timex.Duration `json:"poll_interval" yaml:"poll_interval"`
	CountdownInterval *timex.Duration `json:"countdown_interval" yaml:"countdown_interval"`
	WatchdogInterval  *timex.Duration `json:"watchdog_interval" yaml:"watchdog_interval"`
	AutoLogoutMinutes *int            `json:"auto_logout_minutes" yaml:"auto_logout_minutes"`
	MaxLoginAttempts  *int            `json:"max_login_attempts" yaml:"max_login_attempts"`
	DatabasePath      *string         `json:"database_path" yaml:"database_path"`
	AuditLogPath      *string         `json:"audit_log_path" yaml:"audit_log_path"`
	MetricsAddr       *string         `json:"metrics_addr" yaml:"metrics_addr"`
	LogLevel          *string         `json:"log_level" yaml:"log_level"`
	LogFormat         *string         `json:"log_format" yaml:"log_format"`
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(jsonc.ToJSON(data), &fc)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	fc.apply(c)
	return nil
}

func (fc *fileConfig) apply(c *Config) {
	setIf(&c.DeviceURL, fc.DeviceURL)
	setIf(&c.AutoLogoutMinutes, fc.AutoLogoutMinutes)
	setIf(&c.MaxLoginAttempts, fc.MaxLoginAttempts)
	setIf(&c.DatabasePath, fc.DatabasePath)
	setIf(&c.AuditLogPath, fc.AuditLogPath)
	setIf(&c.MetricsAddr, fc.MetricsAddr)
	setIf(&c.LogLevel, fc.LogLevel)
	setIf(&c.LogFormat, fc.LogFormat)

	if fc.PollInterval != nil {
		c.PollInterval = fc.PollInterval.Duration
	}
	if fc.CountdownInterval != nil {
		c.CountdownInterval = fc.CountdownInterval.Duration
	}
	if fc.WatchdogInterval != nil {
		c.WatchdogInterval = fc.WatchdogInterval.Duration
	}
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
