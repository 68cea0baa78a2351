// Package protocol implements the 16-byte framed command protocol spoken by
// the Colmi R09 smart ring over its UART-like BLE service.
//
// Every frame, outbound and inbound, is exactly 16 bytes:
//
//	[0]      command byte
//	[1..14]  command-specific payload
//	[15]     checksum = (sum of bytes 0..14) mod 255
//
// The package is pure: no I/O, no state. Frame construction and decoding are
// deterministic functions over byte slices.
package protocol

import (
	"errors"
	"fmt"
)

// FrameSize is the fixed length of every protocol frame.
const FrameSize = 16

// UART-like GATT identifiers for the ring's command channel.
const (
	ServiceUUID = "6e40fff0-b5a3-f393-e0a9-e50e24dcca9e"
	WriteUUID   = "6e400002-b5a3-f393-e0a9-e50e24dcca9e" // commands to the ring
	NotifyUUID  = "6e400003-b5a3-f393-e0a9-e50e24dcca9e" // responses from the ring
)

// Command bytes.
const (
	CmdBattery  byte = 0x03 // battery level query/response
	CmdRealtime byte = 0x69 // real-time measurement control/response
)

// Real-time action sub-codes, carried as the second payload byte of a
// CmdRealtime frame (the first is the measurement type).
const (
	ActionStart byte = 0x01
	ActionStop  byte = 0x02
)

// ErrMalformedFrame marks an inbound byte sequence that is not a valid frame
// (wrong length or checksum mismatch). Malformed frames are dropped silently
// by callers; the error exists so tests and logging can name the condition.
var ErrMalformedFrame = errors.New("malformed frame")

// Frame is a validated 16-byte protocol unit.
type Frame struct {
	raw [FrameSize]byte
}

// Command returns the command byte at offset 0.
func (f *Frame) Command() byte {
	return f.raw[0]
}

// Payload returns the 14 payload bytes (frame offsets 1..14).
// The returned slice aliases the frame; callers must not modify it.
func (f *Frame) Payload() []byte {
	return f.raw[1 : FrameSize-1]
}

// Byte returns the raw byte at the given frame offset.
func (f *Frame) Byte(i int) byte {
	return f.raw[i]
}

// Bytes returns the full 16-byte wire representation.
func (f *Frame) Bytes() []byte {
	out := make([]byte, FrameSize)
	copy(out, f.raw[:])
	return out
}

// String renders the frame as hex for logging.
func (f *Frame) String() string {
	return fmt.Sprintf("% 02x", f.raw[:])
}

// Checksum computes the protocol checksum over the first 15 bytes:
// sum(bytes 0..14) mod 255. The ring rejects writes whose trailing byte does
// not match, so this rule must hold bit-exactly.
func Checksum(b []byte) byte {
	var sum int
	for _, v := range b[:FrameSize-1] {
		sum += int(v)
	}
	return byte(sum % 255)
}

// Build constructs an outbound frame for the given command. Up to 14 payload
// bytes are copied starting at offset 1; anything longer is truncated (a
// defensive bound, never expected in practice). The checksum is written at
// offset 15.
func Build(command byte, payload ...byte) *Frame {
	f := &Frame{}
	f.raw[0] = command
	if len(payload) > FrameSize-2 {
		payload = payload[:FrameSize-2]
	}
	copy(f.raw[1:], payload)
	f.raw[FrameSize-1] = Checksum(f.raw[:])
	return f
}

// BuildBatteryQuery constructs the battery level query frame.
func BuildBatteryQuery() *Frame {
	return Build(CmdBattery)
}

// BuildRealtimeStart constructs the frame that starts a real-time measurement
// stream for the given measurement type.
func BuildRealtimeStart(mt MeasurementType) *Frame {
	return Build(CmdRealtime, byte(mt), ActionStart)
}

// BuildRealtimeStop constructs the frame that stops an active real-time
// measurement stream.
func BuildRealtimeStop(mt MeasurementType) *Frame {
	return Build(CmdRealtime, byte(mt), ActionStop)
}

// Decode validates an inbound byte sequence and returns it as a Frame.
// It returns ErrMalformedFrame when the length is not exactly 16 bytes or the
// trailing checksum byte does not match. Callers treat a malformed frame as
// noise on the channel, not as a session failure.
func Decode(data []byte) (*Frame, error) {
	if len(data) != FrameSize {
		return nil, fmt.Errorf("%w: length %d, want %d", ErrMalformedFrame, len(data), FrameSize)
	}
	if got, want := data[FrameSize-1], Checksum(data); got != want {
		return nil, fmt.Errorf("%w: checksum 0x%02x, want 0x%02x", ErrMalformedFrame, got, want)
	}
	f := &Frame{}
	copy(f.raw[:], data)
	return f, nil
}

// BatteryLevel extracts the battery percentage from a battery response frame.
// It returns false when the frame is not a battery response.
func BatteryLevel(f *Frame) (int, bool) {
	if f.Command() != CmdBattery {
		return 0, false
	}
	return int(f.Byte(1)), true
}
