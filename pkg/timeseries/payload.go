package timeseries

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// FieldDate is the record key holding the bucket label.
const FieldDate = "date"

// Unavailable is the previous-total sentinel meaning "no comparison baseline".
const Unavailable = -1

// Record is one raw aggregation row. Keys keeps the order in which fields
// appeared on the wire; Values holds the numeric ones.
type Record struct {
	Date   string
	Keys   []string
	Values map[string]float64
}

// NewRecord starts a record for the given label.
func NewRecord(date string) Record {
	return Record{Date: date, Values: map[string]float64{}}
}

// With returns a copy of the record with key set to value.
func (r Record) With(key string, value float64) Record {
	out := Record{
		Date:   r.Date,
		Keys:   append([]string(nil), r.Keys...),
		Values: make(map[string]float64, len(r.Values)+1),
	}
	for k, v := range r.Values {
		out.Values[k] = v
	}
	if _, ok := out.Values[key]; !ok && !containsKey(out.Keys, key) {
		out.Keys = append(out.Keys, key)
	}
	out.Values[key] = value
	return out
}

// UnmarshalJSON decodes a flat {"date": ..., field: value} object, keeping key order.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("timeseries: decode record: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return badInput("timeseries: record must be a JSON object", "INVALID_RECORD")
	}
	out := Record{Values: map[string]float64{}}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("timeseries: decode record key: %w", err)
		}
		key, _ := keyTok.(string)
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("timeseries: decode record value %q: %w", key, err)
		}
		if key == FieldDate {
			date, ok := raw.(string)
			if !ok {
				return badInput(fmt.Sprintf("timeseries: record date must be a string, got %T", raw), TextCodeInvalidDateLabel)
			}
			out.Date = date
			continue
		}
		if !containsKey(out.Keys, key) {
			out.Keys = append(out.Keys, key)
		}
		value, present, err := coerceNumber(key, raw)
		if err != nil {
			return err
		}
		if present {
			out.Values[key] = value
		}
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("timeseries: decode record: %w", err)
	}
	*r = out
	return nil
}

// MarshalJSON writes the flat object with date first and fields in key order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	date, _ := json.Marshal(r.Date)
	buf.WriteString(`"` + FieldDate + `":`)
	buf.Write(date)
	for _, key := range r.orderedKeys() {
		name, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(name)
		buf.WriteByte(':')
		if value, ok := r.Values[key]; ok {
			buf.WriteString(strconv.FormatFloat(value, 'f', -1, 64))
		} else {
			buf.WriteString("null")
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r Record) orderedKeys() []string {
	keys := append([]string(nil), r.Keys...)
	for key := range r.Values {
		if !containsKey(keys, key) {
			keys = append(keys, key)
		}
	}
	return keys
}

func coerceNumber(key string, raw any) (float64, bool, error) {
	switch v := raw.(type) {
	case nil:
		return 0, false, nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false, badInput(fmt.Sprintf("timeseries: field %q is not numeric: %v", key, err), "INVALID_FIELD_VALUE")
		}
		return f, true, nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, true, nil
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false, badInput(fmt.Sprintf("timeseries: field %q is not numeric: %q", key, v), "INVALID_FIELD_VALUE")
		}
		return f, true, nil
	case bool:
		if v {
			return 1, true, nil
		}
		return 0, true, nil
	default:
		return 0, false, badInput(fmt.Sprintf("timeseries: field %q has unsupported type %T", key, raw), "INVALID_FIELD_VALUE")
	}
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

// Payload is a decoded aggregation response. The service answers either
// [records, previousTotal] or [currentRecords, previousRecords].
type Payload struct {
	Current []Record
	// Previous is set when the service sent previous-window records.
	Previous []Record
	// PreviousTotal is the previous-window total, or Unavailable.
	PreviousTotal float64
	// Comparison is true when the second element was a record list.
	Comparison bool
}

// UnmarshalJSON accepts [records, number], [records, records] or a bare record list.
func (p *Payload) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return badInput(fmt.Sprintf("timeseries: payload must be a JSON array: %v", err), "INVALID_PAYLOAD")
	}
	out := Payload{PreviousTotal: Unavailable}
	if len(parts) == 0 {
		*p = out
		return nil
	}
	if firstByte(parts[0]) == '{' {
		if err := json.Unmarshal(data, &out.Current); err != nil {
			return err
		}
		*p = out
		return nil
	}
	if err := decodeRecords(parts[0], &out.Current); err != nil {
		return err
	}
	if len(parts) > 1 {
		switch firstByte(parts[1]) {
		case '[':
			out.Comparison = true
			if err := decodeRecords(parts[1], &out.Previous); err != nil {
				return err
			}
		case 'n':
		default:
			var total json.Number
			if err := json.Unmarshal(parts[1], &total); err != nil {
				return badInput(fmt.Sprintf("timeseries: previous total must be a number: %v", err), "INVALID_PAYLOAD")
			}
			f, err := total.Float64()
			if err != nil {
				return badInput(fmt.Sprintf("timeseries: previous total must be a number: %v", err), "INVALID_PAYLOAD")
			}
			out.PreviousTotal = f
		}
	}
	*p = out
	return nil
}

// MarshalJSON writes the payload back in its wire shape.
func (p Payload) MarshalJSON() ([]byte, error) {
	current := p.Current
	if current == nil {
		current = []Record{}
	}
	if p.Comparison {
		previous := p.Previous
		if previous == nil {
			previous = []Record{}
		}
		return json.Marshal([]any{current, previous})
	}
	return json.Marshal([]any{current, p.PreviousTotal})
}

// DecodePayload parses a raw aggregation response.
func DecodePayload(data []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		var gerr *goerrors.Error
		if goerrors.As(err, &gerr) {
			return Payload{}, err
		}
		return Payload{}, goerrors.Wrap(err, goerrors.CategoryBadInput, "timeseries: malformed aggregation payload").
			WithTextCode(TextCodeInvalidPayload)
	}
	return p, nil
}

func decodeRecords(raw json.RawMessage, target *[]Record) error {
	if firstByte(raw) == 'n' {
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("timeseries: decode records: %w", err)
	}
	return nil
}

func firstByte(raw json.RawMessage) byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}
