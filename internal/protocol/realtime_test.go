package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// realtimeFrame builds a valid inbound real-time response frame with the
// given measurement type and data bytes at offsets 3 and 4.
func realtimeFrame(t *testing.T, mt MeasurementType, b3, b4 byte) *Frame {
	t.Helper()
	f, err := Decode(Build(CmdRealtime, byte(mt), 0x00, b3, b4).Bytes())
	require.NoError(t, err)
	return f
}

func TestDecodeObservation(t *testing.T) {
	tests := []struct {
		name      string
		mtype     MeasurementType
		b3, b4    byte
		wantOK    bool
		wantValue float64
		wantSec   float64
		hasSec    bool
	}{
		{name: "heart rate", mtype: HeartRate, b3: 72, wantOK: true, wantValue: 72},
		{name: "spo2", mtype: SpO2, b3: 98, wantOK: true, wantValue: 98},
		{name: "stress", mtype: Stress, b3: 35, wantOK: true, wantValue: 35},
		{name: "hrv big-endian", mtype: HRV, b3: 0x01, b4: 0x2C, wantOK: true, wantValue: 300},
		{name: "temperature fixed-point", mtype: Temperature, b3: 36, b4: 7, wantOK: true, wantValue: 36.7},
		{name: "blood pressure pair", mtype: BloodPressure, b3: 120, b4: 80, wantOK: true, wantValue: 120, wantSec: 80, hasSec: true},
		{name: "blood sugar big-endian", mtype: BloodSugar, b3: 0x00, b4: 0x5F, wantOK: true, wantValue: 95},

		// Zero sentinel means "still measuring" and produces no output.
		{name: "heart rate in progress", mtype: HeartRate, b3: 0},
		{name: "spo2 in progress", mtype: SpO2, b3: 0},
		{name: "stress in progress", mtype: Stress, b3: 0},
		{name: "hrv in progress", mtype: HRV, b3: 0, b4: 0},
		{name: "temperature in progress", mtype: Temperature, b3: 0, b4: 5},
		{name: "blood sugar in progress", mtype: BloodSugar, b3: 0, b4: 0},

		// Blood pressure is atomic: either value zero rejects the pair.
		{name: "bp zero systolic", mtype: BloodPressure, b3: 0, b4: 80},
		{name: "bp zero diastolic", mtype: BloodPressure, b3: 120, b4: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := realtimeFrame(t, tt.mtype, tt.b3, tt.b4)
			obs, ok := DecodeObservation(f, tt.mtype)
			require.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.Equal(t, tt.mtype, obs.Type)
			assert.Equal(t, tt.wantValue, obs.Value)
			assert.Equal(t, tt.hasSec, obs.HasSecondary)
			if tt.hasSec {
				assert.Equal(t, tt.wantSec, obs.Secondary)
			}
		})
	}
}

// TestDecodeObservationIgnoresUnrelatedFrames verifies that frames for a
// different command or measurement type are ignored, not treated as errors;
// unrelated notifications may share the channel.
func TestDecodeObservationIgnoresUnrelatedFrames(t *testing.T) {
	t.Run("different measurement type", func(t *testing.T) {
		f := realtimeFrame(t, SpO2, 98, 0)
		_, ok := DecodeObservation(f, HeartRate)
		assert.False(t, ok)
	})

	t.Run("battery response during realtime session", func(t *testing.T) {
		f, err := Decode(Build(CmdBattery, 80).Bytes())
		require.NoError(t, err)
		_, ok := DecodeObservation(f, HeartRate)
		assert.False(t, ok)
	})
}

func TestParseMeasurementType(t *testing.T) {
	for _, mt := range MeasurementTypes {
		parsed, ok := ParseMeasurementType(mt.String())
		require.True(t, ok, "type %s must round-trip", mt)
		assert.Equal(t, mt, parsed)
	}

	_, ok := ParseMeasurementType("steps")
	assert.False(t, ok)
}
