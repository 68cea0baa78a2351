package ring

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResultAllAbsent(t *testing.T) {
	r := NewResult()

	assert.Len(t, r.Keys(), 9)
	assert.Zero(t, r.PresentCount())
	for _, key := range r.Keys() {
		assert.Nil(t, r.Get(key))
		assert.False(t, r.Present(key))
	}
}

func TestResultSetAndPresent(t *testing.T) {
	r := NewResult()
	r.Set(KeyHeartRate, 72)
	r.Set(KeyTemperature, 36.7)

	assert.Equal(t, 72, r.Get(KeyHeartRate))
	assert.Equal(t, 36.7, r.Get(KeyTemperature))
	assert.True(t, r.Present(KeyHeartRate))
	assert.Equal(t, 2, r.PresentCount())
}

func TestResultIgnoresUnknownKeys(t *testing.T) {
	r := NewResult()
	r.Set("steps", 10000)

	assert.Len(t, r.Keys(), 9, "result shape is fixed")
	assert.Nil(t, r.Get("steps"))
}

// TestResultJSONShape pins the canonical key order and null rendering for
// absent values, which downstream consumers rely on.
func TestResultJSONShape(t *testing.T) {
	r := NewResult()
	r.Set(KeyBattery, 85)
	r.Set(KeyBPSystolic, 120)
	r.Set(KeyBPDiastolic, 80)

	data, err := json.Marshal(r)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"battery": 85,
		"heart_rate": null,
		"spo2": null,
		"blood_pressure_systolic": 120,
		"blood_pressure_diastolic": 80,
		"temperature": null,
		"hrv": null,
		"stress": null,
		"blood_sugar": null
	}`, string(data))

	// Order is canonical, not alphabetical.
	assert.Equal(t, byte('{'), data[0])
	assert.Contains(t, string(data), `"battery":85`)
	keys := r.Keys()
	assert.Equal(t, KeyBattery, keys[0])
	assert.Equal(t, KeyBloodSugar, keys[len(keys)-1])
}
