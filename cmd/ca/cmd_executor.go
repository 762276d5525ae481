package main

import (
	"github.com/spf13/cobra"

	"automata/internal/app"
)

var executorCmd = &cobra.Command{
	Use:   "executor",
	Short: "Serve simulation requests over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		ctx, stop := signalContext(cmd.Context())
		defer stop()

		a, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.ServeExecutor(ctx)
	},
}
