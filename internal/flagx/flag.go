// Package flagx locates the config file path before the full flag set is
// known, so file values can be applied underneath command-line overrides.
package flagx

import (
	"io"

	"github.com/spf13/pflag"
)

// ConfigPath returns the value of -c / --config found in args. Every other
// flag is ignored, including ones that take values.
//
// If the flag is absent, an empty string is returned.
func ConfigPath(args []string) string {
	var path string

	fs := pflag.NewFlagSet("config", pflag.ContinueOnError)
	fs.ParseErrorsAllowlist.UnknownFlags = true
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	fs.StringVarP(&path, "config", "c", "", "path to config file")
	_ = fs.Parse(args)

	return path
}
