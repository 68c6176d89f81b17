// Package maputil deep-copies values decoded from JSON, so that validated
// configs can hand out copies that callers may mutate freely.
package maputil

// CloneMap returns a deep copy of a decoded JSON object.
func CloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}

	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = Clone(v)
	}

	return dst
}

// CloneSlice returns a deep copy of a decoded JSON array.
func CloneSlice(src []any) []any {
	if src == nil {
		return nil
	}

	dst := make([]any, len(src))
	for i, v := range src {
		dst[i] = Clone(v)
	}

	return dst
}

// Clone deep-copies objects and arrays. Scalars are returned as is.
func Clone(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CloneMap(val)
	case []any:
		return CloneSlice(val)
	default:
		return v
	}
}
