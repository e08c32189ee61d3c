// Package cmd provides the CLI commands for compass.
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tagconcierge/compass/internal/config"
	"github.com/tagconcierge/compass/internal/logging"
	"github.com/tagconcierge/compass/pkg/version"
)

var (
	configPath string
	debugMode  bool
)

// NewRootCmd creates the root command for the compass CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compass",
		Short: "Searchable mirror of a content store",
		Long: `Compass maintains a denormalized search index over a content store
and answers ranked substring queries against it.

The index is kept current two ways: incrementally, from save and delete
events, and wholesale, by a scheduled batch rebuild that survives
external time limits.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.SetVersionTemplate("compass version {{.Version}}\n")

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newRebuildCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newDemoCmd())
	cmd.AddCommand(newLoadTestCmd())
	cmd.AddCommand(newPurgeCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	root := NewRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		return err
	}
	return nil
}

// loadConfig loads configuration, preferring the --config flag and falling
// back to the config file in the default data directory.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		dataDir := os.Getenv("COMPASS_DATA_DIR")
		if dataDir == "" {
			dataDir = config.Default().DataDir
		}
		path = filepath.Join(dataDir, config.DefaultConfigFile)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if debugMode {
		cfg.Logging.Level = "debug"
		cfg.Logging.Format = "text"
	}
	logging.Setup(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	return cfg, nil
}
