// Package interp reconstructs a uniform time grid from irregular raw
// samples by linear interpolation between bracketing points.
package interp

import (
	"sort"
	"time"

	"firewatch-backend/internal/model"
)

// Resample produces one synthetic point per grid timestamp
// start, start+interval, ... up to and including the largest value <= end.
//
// The cursor walks the sorted raw series once. A grid timestamp earlier
// than the first raw point yields no output but the walk continues; once
// the cursor lands on the final raw point, generation stops for good.
// Grid timestamps past the end of the raw series are never emitted, even
// when end reaches further. Output points carry the grid timestamp and no
// device id.
//
// Pure and deterministic: no I/O, same inputs always give byte-identical
// output.
func Resample(points []model.DataPoint, start, end time.Time, interval time.Duration) []model.DataPoint {
	if interval <= 0 || end.Before(start) {
		return []model.DataPoint{}
	}

	normalized := make([]model.DataPoint, len(points))
	for i, p := range points {
		p.Timestamp = model.NaiveUTC(p.Timestamp)
		normalized[i] = p
	}
	sort.SliceStable(normalized, func(i, j int) bool {
		return normalized[i].Timestamp.Before(normalized[j].Timestamp)
	})
	start = model.NaiveUTC(start)
	end = model.NaiveUTC(end)

	out := []model.DataPoint{}
	cursor := 0
	for target := start; !target.After(end); target = target.Add(interval) {
		for cursor < len(normalized)-1 && !normalized[cursor+1].Timestamp.After(target) {
			cursor++
		}
		if cursor >= len(normalized)-1 {
			// Raw series exhausted; the rest of the requested range is
			// silently dropped.
			break
		}
		before := normalized[cursor]
		after := normalized[cursor+1]
		if target.Before(before.Timestamp) {
			continue
		}
		out = append(out, interpolate(before, after, target))
	}
	return out
}

func interpolate(before, after model.DataPoint, target time.Time) model.DataPoint {
	span := after.Timestamp.Sub(before.Timestamp).Seconds()
	fraction := 0.0
	if span > 0 {
		fraction = target.Sub(before.Timestamp).Seconds() / span
	}

	fields := make(map[string]any, len(before.Fields))
	for name, value := range before.Fields {
		vBefore, beforeNumeric := before.NumericField(name)
		vAfter, afterNumeric := after.NumericField(name)
		if beforeNumeric && afterNumeric {
			fields[name] = vBefore + fraction*(vAfter-vBefore)
		} else {
			// Non-numeric metrics pass through from the earlier sample.
			fields[name] = value
		}
	}
	return model.DataPoint{Timestamp: target, Fields: fields}
}
