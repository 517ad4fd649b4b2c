package gemini

import "encoding/json"

// ExtractJSONObject pulls the first balanced top-level JSON object out
// of surrounding prose. Models occasionally wrap their JSON in markdown
// fences or a lead-in sentence; this recovers the payload before the
// call is declared a hard failure.
func ExtractJSONObject(s string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, r := range s {
		if start == -1 {
			if r == '{' {
				start = i
				depth = 1
			}
			continue
		}

		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}

		switch r {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				candidate := s[start : i+1]
				if json.Valid([]byte(candidate)) {
					return candidate, true
				}
				// Keep scanning: a later object may parse.
				start = -1
			}
		}
	}

	return "", false
}
