package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/srg/ringctl/internal/protocol"
	"github.com/srg/ringctl/internal/session"
)

// measureCmd represents the measure command
var measureCmd = &cobra.Command{
	Use:   "measure <metric> [ring-address]",
	Short: "Run a single real-time measurement",
	Long: fmt.Sprintf(`Runs one real-time measurement session on the ring.

The session streams readings until the value stops changing for the
stability window (default 4s), then stops. Sessions that never stabilize
are abandoned after the overall ceiling (default 60s).

Supported metrics: %s

Wear the ring snugly; a loose ring produces no reading at all.`,
		strings.Join(metricNames(), ", ")),
	Args: cobra.RangeArgs(1, 2),
	RunE: runMeasure,
}

var measureVerbose bool

func init() {
	measureCmd.Flags().BoolVar(&measureVerbose, "verbose", false, "Enable debug logging")
}

func metricNames() []string {
	names := make([]string, 0, len(protocol.MeasurementTypes))
	for _, mt := range protocol.MeasurementTypes {
		names = append(names, mt.String())
	}
	return names
}

func runMeasure(cmd *cobra.Command, args []string) error {
	mt, ok := protocol.ParseMeasurementType(args[0])
	if !ok {
		return fmt.Errorf("unknown metric %q: supported metrics are %s", args[0], strings.Join(metricNames(), ", "))
	}

	logger, err := configureLogger(cmd, "verbose")
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	address, err := resolveAddress(args[1:], cfg)
	if err != nil {
		return err
	}

	cmd.SilenceUsage = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var progress *progressPrinter
	if stdoutIsTerminal() {
		progress = newProgressPrinter("ringctl:", "Measuring "+mt.String())
		progress.Start()
	}

	client := newRingClient(cfg, address, logger)
	reading, outcome, err := client.Measure(ctx, mt)
	if progress != nil {
		progress.Stop()
	}
	if err != nil {
		return err
	}

	printReading(mt, reading, outcome)
	return nil
}

func printReading(mt protocol.MeasurementType, reading session.Reading, outcome session.Outcome) {
	if !reading.HasValue {
		fmt.Printf("No reading (%s after %d observations). Is the ring being worn?\n",
			outcome, reading.Observations)
		return
	}

	switch mt {
	case protocol.BloodPressure:
		fmt.Printf("Blood pressure: %d/%d mmHg (%s, %d observations)\n",
			int(reading.Value), int(reading.Secondary), outcome, reading.Observations)
	case protocol.Temperature:
		fmt.Printf("Temperature: %.1f °C (%s, %d observations)\n",
			reading.Value, outcome, reading.Observations)
	default:
		d := displayByKey[mt.String()]
		fmt.Printf("%s: %d %s (%s, %d observations)\n",
			d.label, int(reading.Value), d.unit, outcome, reading.Observations)
	}
}
