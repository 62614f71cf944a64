package calibration

import (
	"fmt"
	"time"
)

// Helpers for reading the loosely typed plain-form maps. JSON decoding hands
// us float64 numbers and []any lists, while in-process callers pass native
// Go values; both shapes are accepted.

func asString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %T", v)
	}
	return s, nil
}

func asFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	}
	return 0, fmt.Errorf("expected number, got %T", v)
}

func asInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	}
	return 0, fmt.Errorf("expected integer, got %T", v)
}

func asInts(v any) ([]int, error) {
	switch list := v.(type) {
	case []int:
		out := make([]int, len(list))
		copy(out, list)
		return out, nil
	case []any:
		out := make([]int, len(list))
		for i, item := range list {
			n, err := asInt(item)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected integer list, got %T", v)
}

func asList(v any) ([]any, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected list, got %T", v)
	}
	return list, nil
}

func asMap(v any) (map[string]any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected object, got %T", v)
	}
	return m, nil
}

// asTime accepts a time.Time or an ISO-8601 string. nil maps to the zero
// time so converter output without an update date stays representable.
func asTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t, nil
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", t, err)
		}
		return parsed, nil
	}
	return time.Time{}, fmt.Errorf("expected timestamp, got %T", v)
}
