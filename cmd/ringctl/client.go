package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/srg/ringctl/internal/config"
	"github.com/srg/ringctl/internal/link"
	"github.com/srg/ringctl/internal/ring"
	"github.com/srg/ringctl/internal/session"
)

// loadConfig resolves the effective configuration: the file named by --config
// when present, built-in defaults otherwise.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.New(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveAddress picks the ring address from the positional argument or the
// config file, in that order.
func resolveAddress(args []string, cfg *config.Config) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if cfg.Address != "" {
		return cfg.Address, nil
	}
	return "", fmt.Errorf("ring address required: pass it as an argument or set 'address' in the config file")
}

// newRingClient wires the link manager and ring client from config.
func newRingClient(cfg *config.Config, address string, logger *logrus.Logger) *ring.Client {
	mgr := link.NewManager(link.Options{
		ConnectAttempts: cfg.ConnectAttempts,
		ConnectTimeout:  cfg.ConnectTimeout.Std(),
	}, logger)

	return ring.NewClient(mgr, address, ring.Options{
		BatteryTimeout: cfg.BatteryTimeout.Std(),
		Session: session.Options{
			StabilityWindow: cfg.StabilityWindow.Std(),
			Ceiling:         cfg.SessionCeiling.Std(),
			PollCadence:     cfg.PollCadence.Std(),
		},
	}, logger)
}

// stdoutIsTerminal reports whether progress output should be rendered.
func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
