package llm

import (
	"errors"
	"strings"
)

// ErrNoJSONObject is returned when a model reply holds no balanced object.
var ErrNoJSONObject = errors.New("llm: no JSON object in response")

// ExtractJSONObject strips markdown code fences from raw and returns the first
// balanced {...} block. Braces inside JSON strings are ignored.
func ExtractJSONObject(raw string) (string, error) {
	s := stripCodeFences(raw)

	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", ErrNoJSONObject
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", ErrNoJSONObject
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```JSON", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
