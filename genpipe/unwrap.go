package genpipe

// WrapperType classifies the provider envelope a payload arrived in. New
// wrapper shapes are an addition here plus one case in Unwrap.
type WrapperType string

const (
	WrapperNone       WrapperType = "none"
	WrapperParameters WrapperType = "parameters"
	WrapperInput      WrapperType = "input"
	WrapperUnknown    WrapperType = "unknown"
)

// envelopeMetaKeys are keys a tool-call envelope may carry alongside its
// payload without disqualifying the wrapper match.
var envelopeMetaKeys = map[string]bool{
	"name": true,
	"type": true,
	"id":   true,
}

// Unwrap strips known provider tool-call wrapper shapes from a parsed value.
// It returns the payload, whether a wrapper was found, and which shape
// matched. When no known shape matches, the original value comes back with
// WrapperNone.
func Unwrap(v any) (any, bool, WrapperType) {
	m, ok := v.(map[string]any)
	if !ok {
		return v, false, WrapperNone
	}

	if inner, ok := payloadUnder(m, "parameters"); ok {
		return inner, true, WrapperParameters
	}
	if inner, ok := payloadUnder(m, "input"); ok {
		return inner, true, WrapperInput
	}
	// Tool-call envelope with an arguments payload: a wrapper, but not one
	// of the named shapes.
	if _, hasName := m["name"].(string); hasName {
		if inner, ok := m["arguments"].(map[string]any); ok {
			return inner, true, WrapperUnknown
		}
	}

	return v, false, WrapperNone
}

// payloadUnder reports whether key is the sole relevant key of m and holds
// an object payload. Envelope metadata keys are ignored for the "sole" test.
func payloadUnder(m map[string]any, key string) (map[string]any, bool) {
	inner, ok := m[key].(map[string]any)
	if !ok {
		return nil, false
	}
	for k := range m {
		if k == key || envelopeMetaKeys[k] {
			continue
		}
		return nil, false
	}
	return inner, true
}
