package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Timestamps travel without a zone offset, the way the upstream sensor
// pipeline emits them. Offset-carrying inputs are accepted on the way in
// and stripped by NaiveUTC.
const timestampLayout = "2006-01-02T15:04:05.999999999"

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// DataPoint is one sensor reading. On the wire it is a flat object:
// {"device_id": ..., "timestamp": ..., "<metric>": <value>, ...}.
// Fields carries every metric key; numeric values decode as float64.
type DataPoint struct {
	DeviceID  string
	Timestamp time.Time
	Fields    map[string]any
}

// ParseTimestamp accepts ISO-8601 with or without fractional seconds and
// with or without a zone offset. The result is naive-UTC.
func ParseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return NaiveUTC(ts), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", value)
}

// NaiveUTC drops the zone offset while keeping the wall-clock fields, so
// "05:00+02:00" becomes 05:00 UTC, not 03:00. Every timestamp in the
// system passes through here exactly once.
func NaiveUTC(t time.Time) time.Time {
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()
	return time.Date(year, month, day, hour, minute, sec, t.Nanosecond(), time.UTC)
}

// FormatTimestamp renders a naive ISO-8601 instant.
func FormatTimestamp(t time.Time) string {
	return t.Format(timestampLayout)
}

func (p DataPoint) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(p.Fields)+2)
	for k, v := range p.Fields {
		flat[k] = v
	}
	if p.DeviceID != "" {
		flat["device_id"] = p.DeviceID
	}
	flat["timestamp"] = FormatTimestamp(p.Timestamp)
	return json.Marshal(flat)
}

func (p *DataPoint) UnmarshalJSON(data []byte) error {
	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	point := DataPoint{Fields: make(map[string]any, len(flat))}
	for k, v := range flat {
		switch k {
		case "device_id":
			id, ok := v.(string)
			if !ok {
				return fmt.Errorf("device_id must be a string")
			}
			point.DeviceID = id
		case "timestamp":
			raw, ok := v.(string)
			if !ok {
				return fmt.Errorf("timestamp must be a string")
			}
			ts, err := ParseTimestamp(raw)
			if err != nil {
				return err
			}
			point.Timestamp = ts
		default:
			point.Fields[k] = v
		}
	}
	*p = point
	return nil
}

// NumericField extracts a metric as float64. JSON decoding yields float64
// for all numbers, but ingestion also happens from in-process callers.
func (p DataPoint) NumericField(name string) (float64, bool) {
	value, ok := p.Fields[name]
	if !ok {
		return 0, false
	}
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
