// Command ecoal-bridge polls an eCoal furnace controller and serves its
// state on a local HTTP API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/adamwoolhether/ecoalbridge/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type rootFlags struct {
	configPaths []string
}

func newRootCmd() *cobra.Command {
	var flags rootFlags

	root := &cobra.Command{
		Use:           "ecoal-bridge",
		Short:         "Bridge an eCoal furnace controller to a local HTTP API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), flags)
		},
	}

	root.PersistentFlags().StringSliceVarP(&flags.configPaths, "config", "c", nil,
		"options file, tried in order (default "+config.DefaultPath+", then "+config.FallbackPath+")")

	root.AddCommand(
		newServeCmd(&flags),
		newFetchCmd(),
		newSetCmd(&flags),
	)

	return root
}

// loadConfig reads the options file and builds the process logger.
func loadConfig(flags rootFlags) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(flags.configPaths...)
	if err != nil {
		return config.Config{}, nil, err
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	log.Info("configuration loaded", "config", cfg)

	return cfg, log, nil
}
