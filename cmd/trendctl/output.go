package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-trendcharts/pkg/timeseries"
)

// writeOutput prints v as indented JSON or YAML. YAML goes through the JSON
// encoding so custom MarshalJSON shapes are preserved.
func writeOutput(w io.Writer, format string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("trendctl: encode output: %w", err)
	}
	if format != "yaml" {
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return fmt.Errorf("trendctl: encode output: %w", err)
	}
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()
	return encoder.Encode(generic)
}

func readPayload(path string) (timeseries.Payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return timeseries.Payload{}, fmt.Errorf("trendctl: read payload: %w", err)
	}
	return timeseries.DecodePayload(data)
}

// windowEnd parses a dd.mm.yyyy label, defaulting to now.
func windowEnd(label string, now time.Time) (time.Time, error) {
	if label == "" {
		return now, nil
	}
	return timeseries.ParseLabel(label, now.Location())
}
