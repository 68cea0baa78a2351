package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/srg/ringctl/internal/config"
	"github.com/srg/ringctl/internal/ring"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch [ring-address]",
	Short: "Poll the ring on an interval",
	Long: `Runs collection rounds on a fixed interval and keeps the latest result.

The interval comes from the config file (scan_interval, minutes) unless
overridden with --interval. A round where nothing is reachable marks the ring
offline and the loop keeps going; --output maintains a JSON snapshot of the
latest readings for downstream consumers.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

var (
	watchInterval time.Duration
	watchOutput   string
	watchVerbose  bool
)

func init() {
	watchCmd.Flags().DurationVarP(&watchInterval, "interval", "i", 0, "Polling interval (overrides config; min 5m)")
	watchCmd.Flags().StringVarP(&watchOutput, "output", "o", "", "Path of a JSON snapshot updated after every round")
	watchCmd.Flags().BoolVar(&watchVerbose, "verbose", false, "Enable debug logging")
}

func runWatch(cmd *cobra.Command, args []string) error {
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

	interval := cfg.Interval()
	if watchInterval > 0 {
		if watchInterval < config.MinIntervalMinutes*time.Minute {
			return fmt.Errorf("interval %s is below the %dm floor: polling faster drains the ring's battery",
				watchInterval, config.MinIntervalMinutes)
		}
		interval = watchInterval
	}

	cmd.SilenceUsage = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := newRingClient(cfg, address, logger)

	logger.WithFields(logrus.Fields{
		"address":  address,
		"interval": interval,
	}).Info("Starting watch loop")

	// First round immediately, then on the interval.
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		runRound(ctx, client, cfg, logger)
		select {
		case <-ctx.Done():
			fmt.Println("\nStopped.")
			return nil
		case <-ticker.C:
		}
	}
}

func runRound(ctx context.Context, client *ring.Client, cfg *config.Config, logger *logrus.Logger) {
	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	result := client.CollectAll(ctx, cfg.MeasurementTypes())
	elapsed := time.Since(start).Round(time.Second)

	if result.PresentCount() == 0 {
		// The whole round failed; the next tick retries.
		logger.WithFields(logrus.Fields{
			"address": client.Address(),
			"elapsed": elapsed,
		}).Warn("Ring unreachable, no readings this round")
	} else {
		logger.WithFields(logrus.Fields{
			"present": result.PresentCount(),
			"elapsed": elapsed,
		}).Info("Collection round finished")
	}

	fmt.Printf("--- %s (round took %s)\n", time.Now().Format(time.RFC3339), elapsed)
	printResultTable(os.Stdout, result)

	if watchOutput != "" {
		if err := writeSnapshot(watchOutput, result); err != nil {
			logger.WithFields(logrus.Fields{
				"path":  watchOutput,
				"error": err,
			}).Error("Failed to write snapshot")
		}
	}
}

// snapshot is the on-disk shape of the latest round.
type snapshot struct {
	UpdatedAt time.Time    `json:"updated_at"`
	Readings  *ring.Result `json:"readings"`
}

// writeSnapshot atomically replaces the snapshot file so readers never see a
// torn write.
func writeSnapshot(path string, result *ring.Result) error {
	data, err := json.MarshalIndent(snapshot{
		UpdatedAt: time.Now().UTC(),
		Readings:  result,
	}, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".ringctl-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
