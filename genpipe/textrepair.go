package genpipe

import "strings"

// RepairText applies deterministic fixes for common near-miss JSON syntax in
// provider output: markdown fences and surrounding prose, trailing commas,
// raw control characters inside strings, and unbalanced brackets. It never
// invents content; a fix either reuses existing text or closes what is
// already open. The second return value reports whether anything changed.
func RepairText(s string) (string, bool) {
	original := s
	s = extractCandidate(s)
	s = escapeControlChars(s)
	s = removeTrailingCommas(s)
	s = balanceBrackets(s)
	return s, s != original
}

// extractCandidate strips markdown code fences and any prose before the
// first opening bracket or after the last closing bracket.
func extractCandidate(s string) string {
	s = strings.TrimSpace(s)

	if idx := strings.Index(s, "```"); idx != -1 {
		rest := s[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end != -1 {
			rest = rest[:end]
		}
		s = strings.TrimSpace(rest)
	}

	start := strings.IndexAny(s, "{[")
	if start == -1 {
		return s
	}
	end := strings.LastIndexAny(s, "}]")
	if end > start {
		return s[start : end+1]
	}
	// Opening bracket with no closer: keep the tail, balanceBrackets closes it.
	return s[start:]
}

// escapeControlChars replaces raw newlines, carriage returns, and tabs that
// appear inside JSON string literals with their escape sequences.
func escapeControlChars(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	inString := false
	escaped := false
	for _, r := range s {
		if escaped {
			sb.WriteRune(r)
			escaped = false
			continue
		}
		switch {
		case inString && r == '\\':
			sb.WriteRune(r)
			escaped = true
		case r == '"':
			inString = !inString
			sb.WriteRune(r)
		case inString && r == '\n':
			sb.WriteString(`\n`)
		case inString && r == '\r':
			sb.WriteString(`\r`)
		case inString && r == '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// removeTrailingCommas drops commas that directly precede a closing bracket.
func removeTrailingCommas(s string) string {
	inString := false
	escaped := false
	pendingComma := -1

	out := make([]rune, 0, len(s))
	for _, r := range s {
		if escaped {
			out = append(out, r)
			escaped = false
			continue
		}
		switch {
		case inString && r == '\\':
			out = append(out, r)
			escaped = true
		case r == '"':
			inString = !inString
			out = append(out, r)
			pendingComma = -1
		case !inString && r == ',':
			out = append(out, r)
			pendingComma = len(out) - 1
		case !inString && (r == '}' || r == ']'):
			if pendingComma >= 0 {
				out = append(out[:pendingComma], out[pendingComma+1:]...)
			}
			out = append(out, r)
			pendingComma = -1
		case !inString && (r == ' ' || r == '\n' || r == '\r' || r == '\t'):
			out = append(out, r)
		default:
			out = append(out, r)
			if !inString {
				pendingComma = -1
			}
		}
	}
	return string(out)
}

// balanceBrackets appends closers for any brackets left open outside string
// literals. Mismatched closers are left untouched; only missing ones are added.
func balanceBrackets(s string) string {
	var stack []rune
	inString := false
	escaped := false
	for _, r := range s {
		if escaped {
			escaped = false
			continue
		}
		switch {
		case inString && r == '\\':
			escaped = true
		case r == '"':
			inString = !inString
		case !inString && (r == '{' || r == '['):
			stack = append(stack, r)
		case !inString && r == '}':
			if len(stack) > 0 && stack[len(stack)-1] == '{' {
				stack = stack[:len(stack)-1]
			}
		case !inString && r == ']':
			if len(stack) > 0 && stack[len(stack)-1] == '[' {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if inString {
		s += `"`
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			s += "}"
		} else {
			s += "]"
		}
	}
	return s
}
