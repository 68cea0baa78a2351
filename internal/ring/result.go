package ring

import (
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Stable keys of the collection result. Downstream consumers key off these
// names; they must not change.
const (
	KeyBattery     = "battery"
	KeyHeartRate   = "heart_rate"
	KeySpO2        = "spo2"
	KeyBPSystolic  = "blood_pressure_systolic"
	KeyBPDiastolic = "blood_pressure_diastolic"
	KeyTemperature = "temperature"
	KeyHRV         = "hrv"
	KeyStress      = "stress"
	KeyBloodSugar  = "blood_sugar"
)

// resultKeys is the canonical presentation order.
var resultKeys = []string{
	KeyBattery,
	KeyHeartRate,
	KeySpO2,
	KeyBPSystolic,
	KeyBPDiastolic,
	KeyTemperature,
	KeyHRV,
	KeyStress,
	KeyBloodSugar,
}

// Result is one collection round's output: a mapping from metric key to an
// optional value. All nine keys are always present; absent readings are nil.
// Values are int except temperature, which is a float64 with one decimal.
//
// A Result is built fresh per round and owned by the caller once returned;
// it is never reused across rounds.
type Result struct {
	m *orderedmap.OrderedMap[string, any]
}

// NewResult creates a result with all nine keys absent.
func NewResult() *Result {
	m := orderedmap.New[string, any](orderedmap.WithCapacity[string, any](len(resultKeys)))
	for _, k := range resultKeys {
		m.Set(k, nil)
	}
	return &Result{m: m}
}

// Keys returns the nine metric keys in canonical order.
func (r *Result) Keys() []string {
	keys := make([]string, len(resultKeys))
	copy(keys, resultKeys)
	return keys
}

// Set records a value for a known key. Unknown keys are ignored so a decoding
// bug cannot grow the result's shape.
func (r *Result) Set(key string, value any) {
	if _, known := r.m.Get(key); !known {
		return
	}
	r.m.Set(key, value)
}

// Get returns the value for a key; nil means absent.
func (r *Result) Get(key string) any {
	v, _ := r.m.Get(key)
	return v
}

// Present reports whether the key holds a value.
func (r *Result) Present(key string) bool {
	v, ok := r.m.Get(key)
	return ok && v != nil
}

// PresentCount returns how many of the nine metrics hold a value.
func (r *Result) PresentCount() int {
	n := 0
	for pair := r.m.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value != nil {
			n++
		}
	}
	return n
}

// MarshalJSON renders the result as a JSON object with keys in canonical
// order and nulls for absent values.
func (r *Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.m)
}
