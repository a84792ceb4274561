// Package main provides the entry point for the survey_agent CLI and API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath   string
	storeBackend string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "survey_agent",
	Short: "Geospatial dataset quality survey",
	Long: "survey_agent keeps the state of a dataset quality evaluation, derives resolution and " +
		"timeliness deviations, summarizes quality scores and submits finished evaluations.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&storeBackend, "store", "", "State backend: memory, sqlite or postgres (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides config)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
