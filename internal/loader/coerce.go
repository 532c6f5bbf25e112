package loader

import "strconv"

// Authored JSON decodes numbers as float64 and sometimes quotes indices;
// these helpers coerce the loose forms a correct-answer index can take.

func asOptionIndex(v any) (int, bool) {
	switch value := v.(type) {
	case int:
		return value, true
	case float64:
		return int(value), true
	case string:
		if n, err := strconv.Atoi(value); err == nil {
			return n, true
		}
	}
	return 0, false
}

func asOptionIndexSet(v any) ([]int, bool) {
	switch value := v.(type) {
	case []int:
		return value, true
	case []any:
		out := make([]int, 0, len(value))
		for _, item := range value {
			idx, ok := asOptionIndex(item)
			if !ok {
				return nil, false
			}
			out = append(out, idx)
		}
		return out, true
	case []float64:
		out := make([]int, 0, len(value))
		for _, f := range value {
			out = append(out, int(f))
		}
		return out, true
	}
	return nil, false
}
