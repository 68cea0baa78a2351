package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/srg/ringctl/internal/discover"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for Colmi rings",
	Long: `Scan for Colmi rings advertising nearby.

Rings are recognized by their UART service or the firmware name prefix
(e.g. "R09_2D41"). Use --all to list every BLE advertiser instead.`,
	RunE: runScan,
}

var (
	scanDuration time.Duration
	scanFormat   string
	scanAll      bool
	scanVerbose  bool
)

func init() {
	scanCmd.Flags().DurationVarP(&scanDuration, "duration", "d", 10*time.Second, "Scan duration")
	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", "table", "Output format (table, json)")
	scanCmd.Flags().BoolVar(&scanAll, "all", false, "Report every advertiser, not just rings")
	scanCmd.Flags().BoolVar(&scanVerbose, "verbose", false, "Enable debug logging")
}

func runScan(cmd *cobra.Command, args []string) error {
	if scanFormat != "table" && scanFormat != "json" {
		return fmt.Errorf("invalid format '%s': must be table or json", scanFormat)
	}

	logger, err := configureLogger(cmd, "verbose")
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var progress *progressPrinter
	if stdoutIsTerminal() {
		progress = newProgressPrinter("ringctl:", "Scanning")
		progress.Start()
	}

	s := discover.NewScanner(logger)
	rings, err := s.Scan(ctx, &discover.Options{
		Duration: scanDuration,
		All:      scanAll,
	})
	if progress != nil {
		progress.Stop()
	}
	if err != nil {
		return err
	}

	if scanFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rings)
	}

	printRingTable(rings)
	return nil
}

func printRingTable(rings map[string]discover.RingInfo) {
	if len(rings) == 0 {
		fmt.Println("No rings found. Wake the ring by tapping it, then scan again.")
		return
	}

	// Strongest signal first
	sorted := make([]discover.RingInfo, 0, len(rings))
	for _, info := range rings {
		sorted = append(sorted, info)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].RSSI > sorted[j].RSSI })

	bold := color.New(color.Bold).SprintFunc()
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", bold("NAME"), bold("ADDRESS"), bold("RSSI"), bold("CONNECTABLE"))
	for _, info := range sorted {
		name := info.Name
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%t\n", name, info.Address, info.RSSI, info.Connectable)
	}
	_ = tw.Flush()
}
