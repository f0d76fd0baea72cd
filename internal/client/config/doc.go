// Package config loads runtime configuration for the LebensSpur client.
//
// Sources & precedence
//
//  1. Built-in defaults (see Default).
//  2. Optional config file selected with -c / --config. Files ending in .yaml
//     or .yml are read as YAML; anything else as JSON, where comments and
//     trailing commas are tolerated.
//  3. Command-line flags registered by (*Config).BindFlags, which override
//     earlier values.
//
// # File schema
//
// Intervals use timex.Duration, so they may be strings like "5s" or integer
// nanoseconds. Keys that are absent keep their default:
//
//	{
//	  "device_url": "http://lebensspur.local",
//	  "poll_interval": "5s",
//	  "auto_logout_minutes": 10,
//	  "database_path": "lebensspur.db"
//	}
//
// The package does not read environment variables.
package config
