package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/srg/ringctl/internal/ring"
)

// metricDisplay maps result keys to presentation metadata.
type metricDisplay struct {
	label string
	unit  string
}

var displayByKey = map[string]metricDisplay{
	ring.KeyBattery:     {label: "Battery", unit: "%"},
	ring.KeyHeartRate:   {label: "Heart rate", unit: "bpm"},
	ring.KeySpO2:        {label: "Blood oxygen (SpO2)", unit: "%"},
	ring.KeyBPSystolic:  {label: "Blood pressure (systolic)", unit: "mmHg"},
	ring.KeyBPDiastolic: {label: "Blood pressure (diastolic)", unit: "mmHg"},
	ring.KeyTemperature: {label: "Temperature", unit: "°C"},
	ring.KeyHRV:         {label: "HRV", unit: "ms"},
	ring.KeyStress:      {label: "Stress", unit: ""},
	ring.KeyBloodSugar:  {label: "Blood sugar", unit: "mg/dL"},
}

// printResultTable renders a collection result as an aligned table. Absent
// metrics render as a dimmed dash so a partially failed round is obvious at a
// glance.
func printResultTable(w io.Writer, result *ring.Result) {
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\n", bold("METRIC"), bold("VALUE"))

	for _, key := range result.Keys() {
		d := displayByKey[key]
		value := result.Get(key)
		if value == nil {
			fmt.Fprintf(tw, "%s\t%s\n", d.label, dim("-"))
			continue
		}
		rendered := fmt.Sprintf("%v", value)
		if d.unit != "" {
			rendered += " " + d.unit
		}
		fmt.Fprintf(tw, "%s\t%s\n", d.label, green(rendered))
	}
	_ = tw.Flush()
}

// printResultJSON renders a collection result as a JSON object with the nine
// stable keys.
func printResultJSON(w io.Writer, result *ring.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
