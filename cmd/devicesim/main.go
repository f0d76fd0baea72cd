package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/smartkraft/lebensspur/internal/buildinfo"
	"github.com/smartkraft/lebensspur/internal/devicesim"
	"github.com/smartkraft/lebensspur/internal/logging"
	"github.com/spf13/cobra"
	"k8s.io/utils/clock"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfg       devicesim.Config
		addr      string
		logLevel  string
		logFormat string
	)

	root := &cobra.Command{
		Use:          "devicesim",
		Short:        "Simulated LebensSpur device for local development",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			buildinfo.PrintBuildData(cmd.OutOrStdout())
			logger := logging.New(logLevel, logFormat, os.Stderr)
			dev := devicesim.NewDevice(cfg, clock.RealClock{})
			return devicesim.NewServer(addr, dev, logger).Run(cmd.Context())
		},
	}

	fs := root.Flags()
	fs.StringVarP(&addr, "addr", "a", ":8080", "listen address")
	fs.StringVarP(&cfg.Password, "password", "p", "lebensspur", "device password")
	fs.Uint32Var(&cfg.IntervalMinutes, "interval", 1440, "timer interval in minutes")
	fs.Uint32Var(&cfg.WarningMinutes, "warning", 60, "remaining minutes at which the timer warns")
	fs.IntVar(&cfg.MaxAttempts, "max-attempts", 5, "failed logins before lockout")
	fs.DurationVar(&cfg.LockoutDuration, "lockout", 5*time.Minute, "lockout after too many failed logins, 0 disables")
	fs.BoolVar(&cfg.Enabled, "enabled", true, "start with the timer running")
	fs.StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	fs.StringVar(&logFormat, "log-format", "text", "text or json")
	return root
}
