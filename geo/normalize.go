// Package geo acquires Tlatelolco street geometry, normalizes the mixed
// coordinate shapes the sources produce, and builds the map-data
// FeatureCollection.
package geo

import (
	"strconv"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NormalizeCoordinates reduces the several coordinate layouts seen in the
// wild to one of three canonical shapes, all in [lat, lng] order:
//
//	[]float64          a single point
//	[][]float64        a line of points
//	[][][]float64      multiple lines
//
// A flat array of exactly four numbers is reinterpreted as two points.
// Malformed members of a line are dropped; anything unrecognizable
// collapses to an empty line. Canonical input passes through unchanged,
// so the function is idempotent.
func NormalizeCoordinates(raw interface{}) interface{} {
	coords, ok := toSlice(raw)
	if !ok || len(coords) == 0 {
		return [][]float64{}
	}

	if first, isNested := toSlice(coords[0]); isNested {
		if len(first) > 0 {
			if _, deep := toSlice(first[0]); deep {
				return normalizeMultiLine(coords)
			}
		}
		return normalizeLine(coords)
	}

	nums := toFloats(coords)
	if len(coords) == 4 && len(nums) == 4 {
		return [][]float64{{nums[0], nums[1]}, {nums[2], nums[3]}}
	}
	if len(nums) >= 2 {
		return []float64{nums[0], nums[1]}
	}
	return [][]float64{}
}

func normalizeLine(coords []interface{}) [][]float64 {
	line := make([][]float64, 0, len(coords))
	for _, member := range coords {
		pair, ok := toSlice(member)
		if !ok {
			continue
		}
		nums := toFloats(pair)
		if len(nums) >= 2 {
			line = append(line, []float64{nums[0], nums[1]})
		}
	}
	return line
}

func normalizeMultiLine(coords []interface{}) [][][]float64 {
	lines := make([][][]float64, 0, len(coords))
	for _, member := range coords {
		line, ok := toSlice(member)
		if !ok {
			continue
		}
		lines = append(lines, normalizeLine(line))
	}
	return lines
}

// toSlice views the supported slice representations (JSON decode output,
// bson arrays, already-canonical Go slices) as []interface{}.
func toSlice(v interface{}) ([]interface{}, bool) {
	switch s := v.(type) {
	case []interface{}:
		return s, true
	case primitive.A:
		return s, true
	case []float64:
		out := make([]interface{}, len(s))
		for i, f := range s {
			out[i] = f
		}
		return out, true
	case [][]float64:
		out := make([]interface{}, len(s))
		for i, l := range s {
			out[i] = l
		}
		return out, true
	case [][][]float64:
		out := make([]interface{}, len(s))
		for i, l := range s {
			out[i] = l
		}
		return out, true
	default:
		return nil, false
	}
}

func toFloats(values []interface{}) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := toFloat(v); ok {
			out = append(out, f)
		}
	}
	return out
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
