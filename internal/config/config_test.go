package config

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srg/ringctl/internal/protocol"
)

func TestNewDefaults(t *testing.T) {
	cfg := New()

	assert.Equal(t, "Colmi R09", cfg.Name)
	assert.Equal(t, 10, cfg.IntervalMinutes)
	assert.Equal(t, 8, cfg.ConnectAttempts)
	assert.Equal(t, 4*time.Second, cfg.StabilityWindow.Std())
	assert.Equal(t, 60*time.Second, cfg.SessionCeiling.Std())
	assert.Equal(t, time.Second, cfg.PollCadence.Std())
	assert.Equal(t, 10*time.Second, cfg.BatteryTimeout.Std())
	assert.Empty(t, cfg.Metrics)
	assert.Len(t, cfg.MeasurementTypes(), 7, "empty metrics list means all types")
}

func TestParseOverrides(t *testing.T) {
	cfg, err := Parse([]byte(`
address: "AA:BB:CC:DD:EE:FF"
name: "bedroom ring"
scan_interval: 15
connect_attempts: 3
stability_window: 2s
session_ceiling: 30s
metrics:
  - heart_rate
  - spo2
`))
	require.NoError(t, err)

	assert.Equal(t, "AA:BB:CC:DD:EE:FF", cfg.Address)
	assert.Equal(t, "bedroom ring", cfg.Name)
	assert.Equal(t, 15*time.Minute, cfg.Interval())
	assert.Equal(t, 3, cfg.ConnectAttempts)
	assert.Equal(t, 2*time.Second, cfg.StabilityWindow.Std())
	assert.Equal(t, 30*time.Second, cfg.SessionCeiling.Std())
	assert.Equal(t, []protocol.MeasurementType{protocol.HeartRate, protocol.SpO2}, cfg.MeasurementTypes())

	// Unset durations still get defaults.
	assert.Equal(t, time.Second, cfg.PollCadence.Std())
}

func TestParseClampsInterval(t *testing.T) {
	tests := []struct {
		name     string
		minutes  int
		expected int
	}{
		{"below floor", 1, MinIntervalMinutes},
		{"above ceiling", 240, MaxIntervalMinutes},
		{"in range", 30, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte("scan_interval: " + strconv.Itoa(tt.minutes)))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cfg.IntervalMinutes)
		})
	}
}

func TestParseRejectsUnknownMetric(t *testing.T) {
	_, err := Parse([]byte("metrics: [steps]"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown metric")
}

func TestParseRejectsUnknownField(t *testing.T) {
	_, err := Parse([]byte("adress: AA:BB:CC:DD:EE:FF"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestParseRejectsBadDuration(t *testing.T) {
	_, err := Parse([]byte("stability_window: soon"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ringctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("address: AA:BB:CC:DD:EE:FF\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", cfg.Address)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
