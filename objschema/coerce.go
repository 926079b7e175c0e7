package objschema

import (
	"fmt"
	"strconv"
	"strings"
)

// Coerce applies deterministic near-miss conversions to a candidate value so
// it can satisfy the schema without discarding content:
//
//   - numeric-looking string -> number
//   - "true"/"false" string -> boolean
//   - single value -> one-element array where the schema expects an array
//
// It returns the coerced value, every issue encountered along the way
// (collected regardless of whether coercion ultimately succeeds), and
// whether the coerced value validates. Numbers are normalized to float64,
// matching what encoding/json produces for provider output.
func (s *Schema) Coerce(v any) (any, []Issue, bool) {
	var issues []Issue
	coerced := s.coerceValue(v, "", &issues)
	remaining := s.Validate(coerced)
	issues = append(issues, remaining...)
	return coerced, issues, len(remaining) == 0
}

func (s *Schema) coerceValue(v any, path string, issues *[]Issue) any {
	obj, ok := v.(map[string]any)
	if !ok {
		*issues = append(*issues, Issue{
			Path:    pathOrRoot(path),
			Message: fmt.Sprintf("expected object, got %T", v),
		})
		return v
	}

	out := make(map[string]any, len(obj))
	for k, val := range obj {
		out[k] = val
	}
	for _, f := range s.Fields {
		val, present := out[f.Name]
		if !present {
			continue // missing required fields surface via Validate
		}
		out[f.Name] = coerceField(f, val, path+"/"+f.Name, issues)
	}
	return out
}

func coerceField(f Field, v any, path string, issues *[]Issue) any {
	switch f.Kind {
	case KindString:
		return v // nothing to coerce into a string without inventing content

	case KindInt, KindFloat:
		if str, ok := v.(string); ok {
			if n, err := strconv.ParseFloat(strings.TrimSpace(str), 64); err == nil {
				*issues = append(*issues, Issue{
					Path:    path,
					Message: fmt.Sprintf("coerced string %q to number", str),
				})
				return n
			}
		}
		return v

	case KindBool:
		if str, ok := v.(string); ok {
			switch strings.ToLower(strings.TrimSpace(str)) {
			case "true":
				*issues = append(*issues, Issue{Path: path, Message: `coerced string "true" to boolean`})
				return true
			case "false":
				*issues = append(*issues, Issue{Path: path, Message: `coerced string "false" to boolean`})
				return false
			}
		}
		return v

	case KindObject:
		if f.Object == nil {
			return v
		}
		return f.Object.coerceValue(v, path, issues)

	case KindArray:
		arr, ok := v.([]any)
		if !ok {
			// Single value where a list is expected: wrap it.
			*issues = append(*issues, Issue{Path: path, Message: "wrapped single value in array"})
			arr = []any{v}
		}
		if f.Elem == nil {
			return arr
		}
		out := make([]any, len(arr))
		for i, elem := range arr {
			out[i] = coerceField(*f.Elem, elem, fmt.Sprintf("%s/%d", path, i), issues)
		}
		return out

	default:
		return v
	}
}

func pathOrRoot(path string) string {
	if path == "" {
		return "/"
	}
	return path
}
