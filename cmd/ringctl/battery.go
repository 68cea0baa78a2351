package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// batteryCmd represents the battery command
var batteryCmd = &cobra.Command{
	Use:   "battery [ring-address]",
	Short: "Read the ring's battery level",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBattery,
}

var batteryVerbose bool

func init() {
	batteryCmd.Flags().BoolVar(&batteryVerbose, "verbose", false, "Enable debug logging")
}

func runBattery(cmd *cobra.Command, args []string) error {
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

	client := newRingClient(cfg, address, logger)
	level, err := client.ReadBattery(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Battery: %d%%\n", level)
	return nil
}
