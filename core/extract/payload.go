package extract

import (
	"math"
	"sort"
	"strings"
)

// Helpers for walking a decoded JSON-like value (map[string]interface{},
// []interface{}, string, float64, bool, nil). Every helper returns ok=false
// instead of panicking when the shape is not what the caller expected.

// at indexes v with a mixed path of string keys and int positions.
func at(v interface{}, path ...interface{}) (interface{}, bool) {
	cur := v
	for _, step := range path {
		switch s := step.(type) {
		case string:
			m, ok := cur.(map[string]interface{})
			if !ok {
				return nil, false
			}
			if cur, ok = m[s]; !ok {
				return nil, false
			}
		case int:
			arr, ok := cur.([]interface{})
			if !ok || s < 0 || s >= len(arr) {
				return nil, false
			}
			cur = arr[s]
		default:
			return nil, false
		}
	}
	return cur, true
}

func str(v interface{}, path ...interface{}) (string, bool) {
	x, ok := at(v, path...)
	if !ok {
		return "", false
	}
	s, ok := x.(string)
	return s, ok
}

// integer reads a whole, non-negative number.
func integer(v interface{}, path ...interface{}) (int, bool) {
	x, ok := at(v, path...)
	if !ok {
		return 0, false
	}
	f, ok := x.(float64)
	if !ok || f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func array(v interface{}, path ...interface{}) ([]interface{}, bool) {
	x, ok := at(v, path...)
	if !ok {
		return nil, false
	}
	arr, ok := x.([]interface{})
	return arr, ok
}

// sortedKeys returns the keys of m in lexicographic order.
func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// firstKey returns "the first key" of an object whose key name is not
// stable across page versions. Decoded objects carry no order, so keys are
// taken in lexicographic order. The key name is opaque; callers must treat
// a missing or empty object as no match.
func firstKey(v interface{}) (string, bool) {
	m, ok := v.(map[string]interface{})
	if !ok || len(m) == 0 {
		return "", false
	}
	return sortedKeys(m)[0], true
}

// hasHTTPString reports whether arr holds a string starting with "http".
func hasHTTPString(arr []interface{}) bool {
	for _, x := range arr {
		if s, ok := x.(string); ok && strings.HasPrefix(s, "http") {
			return true
		}
	}
	return false
}
