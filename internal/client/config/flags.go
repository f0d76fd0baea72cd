package config

import "github.com/spf13/pflag"

// BindFlags registers the command-line overrides on fs. Each flag defaults to
// the value already in c, so flags only win when given explicitly. The
// -c / --config flag is registered too; its value is consumed by LoadConfig.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", "", "path to a JSON or YAML config file")

	fs.StringVarP(&c.DeviceURL, "device", "d", c.DeviceURL, "base URL of the LebensSpur device")
	fs.DurationVar(&c.PollInterval, "poll-interval", c.PollInterval, "status poll cadence")
	fs.DurationVar(&c.CountdownInterval, "countdown-interval", c.CountdownInterval, "local countdown tick")
	fs.DurationVar(&c.WatchdogInterval, "watchdog-interval", c.WatchdogInterval, "inactivity check cadence")
	fs.IntVar(&c.AutoLogoutMinutes, "auto-logout", c.AutoLogoutMinutes, "minutes of inactivity before logout (1-60)")
	fs.IntVar(&c.MaxLoginAttempts, "max-attempts", c.MaxLoginAttempts, "login attempts before the client locks out")
	fs.StringVar(&c.DatabasePath, "db", c.DatabasePath, "path of the preference database")
	fs.StringVar(&c.AuditLogPath, "audit-log", c.AuditLogPath, "append audit entries to this JSONL file")
	fs.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "serve Prometheus metrics on this address")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "text or json")
}
