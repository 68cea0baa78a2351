package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// formatVersion adds 'v' prefix if version starts with a digit
func formatVersion(ver string) string {
	if len(ver) > 0 && unicode.IsDigit(rune(ver[0])) {
		return "v" + ver
	}
	return ver
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ringctl",
	Short: "Colmi R09 smart ring client",
	Long: `Command-line client for the Colmi R09 smart ring:

- Scan for rings advertising nearby
- Read the battery level
- Run a single real-time measurement (heart rate, SpO2, stress, HRV,
  temperature, blood pressure, blood sugar)
- Collect a full round of all metrics
- Watch mode: poll the ring on an interval and keep the latest readings

The ring services one measurement per connection, so a full collection round
reconnects between metrics; partial results are normal at the edge of radio
range.`,
	Version: formatVersion(version),
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Ctrl+C is a normal exit, not an error - exit silently
		if errors.Is(err, context.Canceled) {
			return
		}
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", formatUserError(err))
		os.Exit(1)
	}
}

func init() {
	// Silence Cobra's "Error:" prefix - main() prints clean errors
	rootCmd.SilenceErrors = true

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(batteryCmd)
	rootCmd.AddCommand(measureCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(watchCmd)

	// Global flags
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file")

	// Add -v as a short flag for --version
	rootCmd.Flags().BoolP("version", "v", false, "Show version information")
}
