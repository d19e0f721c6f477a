package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// DecodeJSON decodes an LLM response into v, tolerating the usual model
// output defects. The ladder is strict parse, then jsonrepair, then a strict
// parse of the first balanced JSON value found in the text. Callers own the
// typed fallback when every rung fails.
func DecodeJSON(raw string, v any) error {
	cleaned := StripCodeFences(raw)
	if cleaned == "" {
		return fmt.Errorf("empty response")
	}

	if err := json.Unmarshal([]byte(cleaned), v); err == nil {
		return nil
	}

	if repaired, err := jsonrepair.JSONRepair(cleaned); err == nil {
		if err := json.Unmarshal([]byte(repaired), v); err == nil {
			return nil
		}
	}

	for _, open := range []byte{'{', '['} {
		if extracted := ExtractBalanced(cleaned, open); extracted != "" {
			if err := json.Unmarshal([]byte(extracted), v); err == nil {
				return nil
			}
			if repaired, err := jsonrepair.JSONRepair(extracted); err == nil {
				if err := json.Unmarshal([]byte(repaired), v); err == nil {
					return nil
				}
			}
		}
	}

	return fmt.Errorf("no parseable JSON in response (%d chars)", len(raw))
}

// StripCodeFences removes a surrounding markdown code fence, if present.
func StripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop the optional language tag on the opening fence line.
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		first := strings.TrimSpace(s[:idx])
		if len(first) <= 16 && !strings.ContainsAny(first, "{}[]") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ExtractBalanced returns the first balanced JSON object or array in text,
// honoring string literals and escapes. Returns "" when none closes.
func ExtractBalanced(text string, open byte) string {
	var closer byte
	switch open {
	case '{':
		closer = '}'
	case '[':
		closer = ']'
	default:
		return ""
	}

	start := strings.IndexByte(text, open)
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == open:
			depth++
		case ch == closer:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// DecodeStringArray decodes a response expected to be a JSON array of
// strings, skipping non-string elements.
func DecodeStringArray(raw string) ([]string, error) {
	var items []any
	if err := DecodeJSON(raw, &items); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no string elements in array")
	}
	return out, nil
}
