package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBuildFrameLayout verifies command placement, payload copy, and checksum
// position for outbound frames.
func TestBuildFrameLayout(t *testing.T) {
	f := Build(CmdRealtime, 0x01, 0x01)

	raw := f.Bytes()
	require.Len(t, raw, FrameSize)
	assert.Equal(t, CmdRealtime, raw[0])
	assert.Equal(t, byte(0x01), raw[1])
	assert.Equal(t, byte(0x01), raw[2])
	for i := 3; i < FrameSize-1; i++ {
		assert.Zero(t, raw[i], "byte %d should be zero-filled", i)
	}
	assert.Equal(t, Checksum(raw), raw[FrameSize-1])
}

// TestBuildTruncatesOversizedPayload verifies the defensive bound: payloads
// longer than 14 bytes are silently truncated, never overflowing into the
// checksum byte.
func TestBuildTruncatesOversizedPayload(t *testing.T) {
	payload := make([]byte, 32)
	for i := range payload {
		payload[i] = 0xFF
	}

	f := Build(CmdBattery, payload...)
	raw := f.Bytes()

	assert.Equal(t, Checksum(raw), raw[FrameSize-1])
	// Only offsets 1..14 carry payload
	for i := 1; i < FrameSize-1; i++ {
		assert.Equal(t, byte(0xFF), raw[i])
	}
}

// TestChecksumRule pins the wire-format invariant: sum of bytes 0..14 mod 255.
func TestChecksumRule(t *testing.T) {
	tests := []struct {
		name     string
		frame    []byte
		expected byte
	}{
		{
			name:     "all zeros",
			frame:    make([]byte, FrameSize),
			expected: 0x00,
		},
		{
			name: "battery query",
			frame: func() []byte {
				b := make([]byte, FrameSize)
				b[0] = CmdBattery
				return b
			}(),
			expected: 0x03,
		},
		{
			name: "sum wraps at 255",
			frame: func() []byte {
				b := make([]byte, FrameSize)
				b[0] = 0xFF // 255 % 255 == 0
				return b
			}(),
			expected: 0x00,
		},
		{
			name: "sum just above wrap",
			frame: func() []byte {
				b := make([]byte, FrameSize)
				b[0] = 0xFF
				b[1] = 0x01
				return b
			}(),
			expected: 0x01,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Checksum(tt.frame))
		})
	}
}

// TestDecodeRoundTrip verifies decode(build(...)) recovers command and payload
// for every command the client emits.
func TestDecodeRoundTrip(t *testing.T) {
	frames := []*Frame{
		BuildBatteryQuery(),
		BuildRealtimeStart(HeartRate),
		BuildRealtimeStart(BloodPressure),
		BuildRealtimeStop(BloodSugar),
		Build(CmdRealtime, 0x0A, 0x01, 0x00, 0xAB, 0xCD),
	}

	for _, src := range frames {
		decoded, err := Decode(src.Bytes())
		require.NoError(t, err)
		assert.Equal(t, src.Command(), decoded.Command())
		assert.Equal(t, src.Payload(), decoded.Payload())
	}
}

// TestDecodeRejectsMalformed verifies bad length and corrupted trailing bytes
// are rejected with ErrMalformedFrame.
func TestDecodeRejectsMalformed(t *testing.T) {
	valid := BuildRealtimeStart(SpO2).Bytes()

	t.Run("short frame", func(t *testing.T) {
		_, err := Decode(valid[:FrameSize-1])
		assert.ErrorIs(t, err, ErrMalformedFrame)
	})

	t.Run("long frame", func(t *testing.T) {
		_, err := Decode(append(valid, 0x00))
		assert.ErrorIs(t, err, ErrMalformedFrame)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := Decode(nil)
		assert.ErrorIs(t, err, ErrMalformedFrame)
	})

	t.Run("corrupted checksum", func(t *testing.T) {
		corrupted := make([]byte, FrameSize)
		copy(corrupted, valid)
		corrupted[FrameSize-1] ^= 0x01
		_, err := Decode(corrupted)
		assert.ErrorIs(t, err, ErrMalformedFrame)
	})

	t.Run("corrupted payload byte", func(t *testing.T) {
		corrupted := make([]byte, FrameSize)
		copy(corrupted, valid)
		corrupted[5] ^= 0x10 // checksum no longer matches
		_, err := Decode(corrupted)
		assert.ErrorIs(t, err, ErrMalformedFrame)
	})
}

func TestBatteryLevel(t *testing.T) {
	resp := Build(CmdBattery, 87)
	level, ok := BatteryLevel(resp)
	require.True(t, ok)
	assert.Equal(t, 87, level)

	_, ok = BatteryLevel(BuildRealtimeStart(HeartRate))
	assert.False(t, ok, "realtime frame must not decode as battery response")
}

func TestRealtimeControlFrames(t *testing.T) {
	start := BuildRealtimeStart(Temperature)
	assert.Equal(t, CmdRealtime, start.Command())
	assert.Equal(t, byte(Temperature), start.Byte(1))
	assert.Equal(t, ActionStart, start.Byte(2))

	stop := BuildRealtimeStop(Temperature)
	assert.Equal(t, CmdRealtime, stop.Command())
	assert.Equal(t, byte(Temperature), stop.Byte(1))
	assert.Equal(t, ActionStop, stop.Byte(2))
}
