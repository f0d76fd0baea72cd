package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/smartkraft/lebensspur/internal/buildinfo"
	"github.com/smartkraft/lebensspur/internal/client/cli"
	"github.com/smartkraft/lebensspur/internal/client/config"
	"github.com/spf13/cobra"
)

func main() {
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(cfg).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:          "lsclient",
		Short:        "Interactive client for a LebensSpur dead-man timer",
		SilenceUsage: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return cfg.Validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := cli.NewApp(cmd.Context(), cfg, os.Stdin, os.Stdout)
			if err != nil {
				return err
			}
			return app.Run(cmd.Context())
		},
	}
	cfg.BindFlags(root.PersistentFlags())

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			buildinfo.PrintBuildData(cmd.OutOrStdout())
		},
	})
	return root
}
