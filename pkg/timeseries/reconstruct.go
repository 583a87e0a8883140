package timeseries

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// FieldSum is the default series field.
const FieldSum = "sum"

// FieldPrevSum carries the previous window's values in comparison series.
const FieldPrevSum = "prevSum"

// Bucket is one point on the time axis.
type Bucket struct {
	Label  string
	Fields map[string]float64
}

// MarshalJSON flattens the bucket into the chart row shape {"date": ..., field: value}.
func (b Bucket) MarshalJSON() ([]byte, error) {
	row := make(map[string]any, len(b.Fields)+1)
	for field, value := range b.Fields {
		row[field] = value
	}
	row[FieldDate] = b.Label
	return json.Marshal(row)
}

// UnmarshalJSON reads the flat chart row shape.
func (b *Bucket) UnmarshalJSON(data []byte) error {
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return err
	}
	b.Label = record.Date
	b.Fields = record.Values
	if b.Fields == nil {
		b.Fields = map[string]float64{}
	}
	return nil
}

// Value returns the named field or zero.
func (b Bucket) Value(field string) float64 {
	return b.Fields[field]
}

// Series is a dense, chronologically ordered bucket sequence.
type Series []Bucket

// Labels returns the bucket labels in order.
func (s Series) Labels() []string {
	labels := make([]string, len(s))
	for i, bucket := range s {
		labels[i] = bucket.Label
	}
	return labels
}

// Values returns one field across all buckets.
func (s Series) Values(field string) []float64 {
	values := make([]float64, len(s))
	for i, bucket := range s {
		values[i] = bucket.Fields[field]
	}
	return values
}

// GenerateLabels walks [end-period days, end] by step and returns every
// bucket label in order. The label of end is always the last entry.
func GenerateLabels(period int, step Step, end time.Time) ([]string, error) {
	if period < 0 {
		return nil, badInput(fmt.Sprintf("timeseries: period must be non-negative, got %d", period), "INVALID_PERIOD")
	}
	if !step.Valid() {
		return nil, badInput(fmt.Sprintf("timeseries: unsupported step %q", step), "INVALID_STEP")
	}
	start := end.AddDate(0, 0, -period)
	labels := make([]string, 0, period+1)
	for current := start; !current.After(end); current = step.Advance(current, 1) {
		labels = append(labels, step.Label(current))
	}
	if last := step.Label(end); len(labels) == 0 || labels[len(labels)-1] != last {
		labels = append(labels, last)
	}
	return labels, nil
}

// Reconstruct densifies sparse records over the window ending at end.
// Buckets without a record, and fields missing on a record, are zero.
// When several records share a date the first one wins.
func Reconstruct(records []Record, period int, step Step, end time.Time, fields []string) (Series, error) {
	if len(fields) == 0 {
		fields = []string{FieldSum}
	}
	index := make(map[string]int, len(records))
	for i, record := range records {
		if _, err := ParseLabel(record.Date, end.Location()); err != nil {
			return nil, err
		}
		date := strings.TrimSpace(record.Date)
		if _, seen := index[date]; !seen {
			index[date] = i
		}
	}

	labels, err := GenerateLabels(period, step, end)
	if err != nil {
		return nil, err
	}

	series := make(Series, len(labels))
	for i, label := range labels {
		values := make(map[string]float64, len(fields))
		pos, found := index[label]
		for _, field := range fields {
			if found {
				values[field] = records[pos].Values[field]
			} else {
				values[field] = 0
			}
		}
		series[i] = Bucket{Label: label, Fields: values}
	}
	return series, nil
}

// Placeholder builds an all-zero series, used before any data is loaded.
func Placeholder(period int, step Step, end time.Time, fields []string) (Series, error) {
	if len(fields) == 0 {
		fields = []string{FieldSum, FieldPrevSum}
	}
	return Reconstruct(nil, period, step, end, fields)
}
