package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"AMDScope/pkg/config"
	applogger "AMDScope/pkg/logger"
)

var (
	configPath   string
	outputFormat string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "amdctl",
	Short: "Accumulation / manipulation / distribution regime detector",
	Long: `amdctl runs the regime pipeline (indicators, regime labels, cycles) over
a local bar file or a live market-data source and prints the cycles and summary.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (defaults when empty)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table or json")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level")

	rootCmd.AddCommand(analyzeCmd, fetchCmd, ingestCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	return config.LoadWithEnv(configPath)
}

func newLogger() (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{Level: logLevel, Format: "console", Output: "stderr"})
}
