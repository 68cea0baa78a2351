package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srg/ringctl/internal/link"
	"github.com/srg/ringctl/internal/ring"
)

func TestPrintResultTable(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	result := ring.NewResult()
	result.Set(ring.KeyBattery, 85)
	result.Set(ring.KeyHeartRate, 72)
	result.Set(ring.KeyTemperature, 36.7)

	var buf bytes.Buffer
	printResultTable(&buf, result)
	out := buf.String()

	assert.Contains(t, out, "Battery")
	assert.Contains(t, out, "85 %")
	assert.Contains(t, out, "72 bpm")
	assert.Contains(t, out, "36.7 °C")
	// Absent metrics render as a dash, one line per key plus header.
	assert.Contains(t, out, "Blood sugar")
	assert.Equal(t, 10, strings.Count(out, "\n"))
}

func TestPrintResultJSON(t *testing.T) {
	result := ring.NewResult()
	result.Set(ring.KeySpO2, 98)

	var buf bytes.Buffer
	require.NoError(t, printResultJSON(&buf, result))

	assert.Contains(t, buf.String(), `"spo2": 98`)
	assert.Contains(t, buf.String(), `"heart_rate": null`)
}

func TestFormatUserError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "connection retries exhausted",
			err:      &link.ConnectionError{Address: "AA:BB", Attempts: 8, Err: errors.New("dial failed")},
			expected: "could not reach the ring at AA:BB (8 attempts)",
		},
		{
			name:     "not a ring",
			err:      &link.ConnectionError{Address: "AA:BB", Attempts: 1, Err: link.ErrServiceNotFound},
			expected: "not a Colmi ring",
		},
		{
			name:     "response timeout",
			err:      ring.ErrResponseTimeout,
			expected: "never answered",
		},
		{
			name:     "plain error passes through",
			err:      errors.New("something else"),
			expected: "something else",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, formatUserError(tt.err), tt.expected)
		})
	}
}

func TestFormatVersion(t *testing.T) {
	assert.Equal(t, "v1.2.3", formatVersion("1.2.3"))
	assert.Equal(t, "dev", formatVersion("dev"))
}
