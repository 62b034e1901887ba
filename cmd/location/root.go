// ABOUTME: Root Cobra command and global flags
// ABOUTME: Loads config, builds the logger, and connects the store once per process

package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/harper/location/internal/config"
	"github.com/harper/location/internal/logging"
	"github.com/harper/location/internal/position"
	"github.com/harper/location/internal/tsdb"
)

var (
	cfg    *config.Config
	logger *log.Logger
	store  tsdb.Store
	repo   *position.Repository
)

var rootCmd = &cobra.Command{
	Use:   "location",
	Short: "Animal location telemetry on a time-series store",
	Long: `
██╗      ██████╗  ██████╗ █████╗ ████████╗██╗ ██████╗ ███╗   ██╗
██║     ██╔═══██╗██╔════╝██╔══██╗╚══██╔══╝██║██╔═══██╗████╗  ██║
██║     ██║   ██║██║     ███████║   ██║   ██║██║   ██║██╔██╗ ██║
██║     ██║   ██║██║     ██╔══██║   ██║   ██║██║   ██║██║╚██╗██║
███████╗╚██████╔╝╚██████╗██║  ██║   ██║   ██║╚██████╔╝██║ ╚████║
╚══════╝ ╚═════╝  ╚═════╝╚═╝  ╚═╝   ╚═╝   ╚═╝ ╚═════╝ ╚═╝  ╚═══╝

     Record where animals are and read back their recent tracks

Examples:
  location record animal1 52.0907 5.1214 100.5
  location recent animal1
  location export animal1 --since 24h --format geojson --geometry line
  location status`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		applyFlagOverrides(cmd, cfg)

		logger = logging.New(os.Stderr, cfg.LogLevel).With("run", uuid.NewString())
		logger.Debug("starting", "command", cmd.Name(), "backend", cfg.GetBackend())

		store, err = cfg.OpenStore(logger)
		if err != nil {
			return fmt.Errorf("%w: %v", tsdb.ErrInvalidInput, err)
		}
		if err := store.Connect(cmd.Context()); err != nil {
			return fmt.Errorf("failed to connect to %s store: %w", cfg.GetBackend(), err)
		}

		repo, err = cfg.OpenRepository(store)
		if err != nil {
			return fmt.Errorf("%w: %v", tsdb.ErrInvalidInput, err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if store != nil {
			return store.Close()
		}
		return nil
	},
}

// applyFlagOverrides lets global flags win over file and environment.
func applyFlagOverrides(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Root().PersistentFlags()
	if flags.Changed("backend") {
		c.Backend, _ = flags.GetString("backend")
	}
	if flags.Changed("log-level") {
		c.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("data-dir") {
		c.DataDir, _ = flags.GetString("data-dir")
	}
}

func init() {
	rootCmd.PersistentFlags().String("backend", "", "store backend (influxdb, local)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("data-dir", "", "data directory for the local backend")
}
