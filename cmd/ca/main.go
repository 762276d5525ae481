package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"automata/internal/app"
	"automata/internal/config"
	"automata/internal/logging"
)

var flags = app.NewFlags()

var rootCmd = &cobra.Command{
	Use:           "ca",
	Short:         "Verifiable cellular automaton simulations",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags.BindGlobal(rootCmd.PersistentFlags())

	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(executorCmd)
	rootCmd.AddCommand(requesterCmd)
	rootCmd.AddCommand(verifyCmd)

	flags.BindRequester(requesterCmd.Flags())
	flags.BindExecutor(executorCmd.Flags())
}

// setup loads the effective config for cmd and installs the logger.
func setup(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	cfg, err := flags.Load(cmd.Flags().Changed)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return config.Config{}, nil, err
	}
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func main() {
	if err := rootCmd.Execute(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
