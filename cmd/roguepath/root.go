package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/roguepath/internal/logging"
	"github.com/aretw0/roguepath/pkg/adapters/catalog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "roguepath",
	Short: "Roguepath generates branching room paths and runs them",
	Long: `Roguepath builds procedural path graphs of rooms from a YAML catalog,
stores them per group and drives timed room runs over an HTTP API.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("catalog", "c", "", "Room catalog YAML file")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
}

func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	lvl, _ := cmd.Flags().GetString("log-level")
	level, err := logging.ParseLevel(lvl)
	if err != nil {
		return nil, err
	}
	return logging.NewWithWriter(cmd.ErrOrStderr(), level, false), nil
}

func loadCatalog(cmd *cobra.Command) (*catalog.File, error) {
	path, _ := cmd.Flags().GetString("catalog")
	if path == "" {
		return nil, fmt.Errorf("a room catalog is required (--catalog)")
	}
	return catalog.Load(path)
}
