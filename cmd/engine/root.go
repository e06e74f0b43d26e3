package main

import (
	"os"

	"github.com/spf13/cobra"
)

// DataDirEnv lets a launcher pick where state and config live.
const DataDirEnv = "OFFERSEARCH_DATA_DIR"

var rootFlags struct {
	dataDir    string
	configPath string
}

var rootCmd = &cobra.Command{
	Use:           "engine",
	Short:         "Extract job offers from rendered pages and query them remote-first",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.dataDir, "data-dir", "", "state and config directory (default $"+DataDirEnv+" or ./data)")
	rootCmd.PersistentFlags().StringVar(&rootFlags.configPath, "config", "", "config file (default <data-dir>/config.yml)")
}

func resolveDataDir() string {
	if rootFlags.dataDir != "" {
		return rootFlags.dataDir
	}
	if v := os.Getenv(DataDirEnv); v != "" {
		return v
	}
	return "data"
}
