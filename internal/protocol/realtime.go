package protocol

import "math"

// MeasurementType identifies which physiological metric a real-time session
// reports. The set is fixed by the ring firmware; payload decoding is keyed
// on this code.
type MeasurementType byte

const (
	HeartRate     MeasurementType = 0x01 // bpm
	BloodPressure MeasurementType = 0x02 // systolic/diastolic mmHg
	SpO2          MeasurementType = 0x03 // blood oxygen saturation %
	Stress        MeasurementType = 0x04 // stress level 0-100
	Temperature   MeasurementType = 0x08 // skin temperature °C
	BloodSugar    MeasurementType = 0x09 // mg/dL
	HRV           MeasurementType = 0x0A // heart rate variability ms
)

// MeasurementTypes lists all supported types in the order the ring is polled
// during a collection round.
var MeasurementTypes = []MeasurementType{
	HeartRate, SpO2, Stress, HRV, Temperature, BloodPressure, BloodSugar,
}

func (mt MeasurementType) String() string {
	switch mt {
	case HeartRate:
		return "heart_rate"
	case BloodPressure:
		return "blood_pressure"
	case SpO2:
		return "spo2"
	case Stress:
		return "stress"
	case Temperature:
		return "temperature"
	case BloodSugar:
		return "blood_sugar"
	case HRV:
		return "hrv"
	default:
		return "unknown"
	}
}

// ParseMeasurementType resolves a metric name as used on the CLI and in the
// collection result back to its wire code.
func ParseMeasurementType(name string) (MeasurementType, bool) {
	for _, mt := range MeasurementTypes {
		if mt.String() == name {
			return mt, true
		}
	}
	return 0, false
}

// Observation is one decoded real-time sample. Value carries the primary
// reading; Secondary is populated only for blood pressure (diastolic), with
// HasSecondary set.
type Observation struct {
	Type         MeasurementType
	Value        float64
	Secondary    float64
	HasSecondary bool
}

// DecodeObservation extracts a typed sample from a real-time response frame
// for the session's requested measurement type.
//
// It returns ok=false when the frame belongs to a different command or type
// (unrelated notifications share the channel and are simply ignored), and
// when the sample is the ring's zero "still measuring" sentinel. No metric in
// this protocol can legitimately read zero, so zero is safe to treat as a
// strict in-progress marker here; do not generalize that rule to other
// devices.
//
// Payload layout (frame offsets 3 and 4):
//
//	heart rate   b3 = bpm
//	spo2         b3 = percent
//	stress       b3 = level 0-100
//	hrv          b3<<8 | b4, big-endian ms
//	temperature  b3 integer part, b4 tenths; one decimal
//	blood press. b3 = systolic, b4 = diastolic, both required
//	blood sugar  b3<<8 | b4, big-endian mg/dL
func DecodeObservation(f *Frame, want MeasurementType) (Observation, bool) {
	if f.Command() != CmdRealtime {
		return Observation{}, false
	}
	if MeasurementType(f.Byte(1)) != want {
		return Observation{}, false
	}

	b3, b4 := f.Byte(3), f.Byte(4)
	obs := Observation{Type: want}

	switch want {
	case HeartRate, SpO2, Stress:
		if b3 == 0 {
			return Observation{}, false
		}
		obs.Value = float64(b3)

	case HRV, BloodSugar:
		raw := uint16(b3)<<8 | uint16(b4)
		if raw == 0 {
			return Observation{}, false
		}
		obs.Value = float64(raw)

	case Temperature:
		// Fixed-point: integer part in b3, tenths in b4. A zero integer part
		// means the ring is still measuring.
		if b3 == 0 {
			return Observation{}, false
		}
		obs.Value = math.Round((float64(b3)+float64(b4)/10.0)*10) / 10

	case BloodPressure:
		// Systolic and diastolic arrive in one frame and are accepted only
		// as a pair.
		if b3 == 0 || b4 == 0 {
			return Observation{}, false
		}
		obs.Value = float64(b3)
		obs.Secondary = float64(b4)
		obs.HasSecondary = true

	default:
		return Observation{}, false
	}

	return obs, true
}
