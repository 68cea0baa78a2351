package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// collectCmd represents the collect command
var collectCmd = &cobra.Command{
	Use:   "collect [ring-address]",
	Short: "Collect a full round of readings",
	Long: `Collects battery plus all configured metrics in one round.

Each metric runs on its own connection (a ring limitation), so a full round
takes several minutes. Metrics that fail - out of range, never stabilized -
are reported as absent without aborting the rest of the round.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCollect,
}

var (
	collectFormat  string
	collectVerbose bool
)

func init() {
	collectCmd.Flags().StringVarP(&collectFormat, "format", "f", "table", "Output format (table, json)")
	collectCmd.Flags().BoolVar(&collectVerbose, "verbose", false, "Enable debug logging")
}

func runCollect(cmd *cobra.Command, args []string) error {
	if collectFormat != "table" && collectFormat != "json" {
		return fmt.Errorf("invalid format '%s': must be table or json", collectFormat)
	}

	logger, err := configureLogger(cmd, "verbose")
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	address, err := resolveAddress(args, cfg)
	if err != nil {
		return err
	}

	cmd.SilenceUsage = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var progress *progressPrinter
	if stdoutIsTerminal() && collectFormat == "table" {
		progress = newProgressPrinter("ringctl:", "Collecting")
		progress.Start()
	}

	client := newRingClient(cfg, address, logger)
	result := client.CollectAll(ctx, cfg.MeasurementTypes())

	if progress != nil {
		progress.Stop()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if collectFormat == "json" {
		return printResultJSON(os.Stdout, result)
	}

	printResultTable(os.Stdout, result)
	if result.PresentCount() == 0 {
		fmt.Println("\nNo readings at all - the ring may be out of range or asleep.")
	}
	return nil
}
