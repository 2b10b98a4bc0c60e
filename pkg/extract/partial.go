// pkg/extract/partial.go

package extract

import (
	"encoding/json"
	"strings"
)

// ExtractPartial pulls whatever top-level fields are already usable out of a
// JSON object that is still streaming in. It never fails and returns an empty
// map when nothing can be recovered.
//
// Closed top-level string fields are collected by a single forward scan. The
// text is then retried as a whole with one closing brace appended, and any
// field that parse yields takes precedence over the scanned value.
func ExtractPartial(text string) map[string]any {
	result := scanStringFields(text)

	attempt := strings.TrimSpace(text)
	if !strings.HasSuffix(attempt, "}") {
		attempt += "}"
	}
	var repaired map[string]any
	if err := json.Unmarshal([]byte(attempt), &repaired); err == nil {
		for k, v := range repaired {
			result[k] = v
		}
	}
	return result
}

// ExtractPartialArray returns the elements of a streaming JSON array whose
// objects have fully closed so far. Incomplete trailing elements are dropped.
func ExtractPartialArray(text string) []map[string]any {
	start := strings.IndexByte(text, '[')
	if start < 0 {
		return nil
	}
	var out []map[string]any
	depth := 0
	elemStart := -1
	for i := start + 1; i < len(text); i++ {
		switch text[i] {
		case '"':
			end, ok := skipString(text, i)
			if !ok {
				return out
			}
			i = end - 1
		case '{', '[':
			if depth == 0 && text[i] == '{' {
				elemStart = i
			}
			depth++
		case '}', ']':
			depth--
			if depth < 0 {
				return out
			}
			if depth == 0 && text[i] == '}' && elemStart >= 0 {
				var elem map[string]any
				if err := json.Unmarshal([]byte(text[elemStart:i+1]), &elem); err == nil {
					out = append(out, elem)
				}
				elemStart = -1
			}
		}
	}
	return out
}

// scanStringFields walks the first object in text and records every
// "key": "value" pair at depth one whose value string is closed.
func scanStringFields(text string) map[string]any {
	result := map[string]any{}
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return result
	}

	depth := 1
	expectKey := true
	for i := start + 1; i < len(text); {
		switch c := text[i]; c {
		case '"':
			end, ok := skipString(text, i)
			if !ok {
				return result
			}
			if depth != 1 || !expectKey {
				i = end
				continue
			}
			key := decodeString(text[i:end])
			expectKey = false
			j := skipSpace(text, end)
			if j >= len(text) || text[j] != ':' {
				i = j
				continue
			}
			j = skipSpace(text, j+1)
			if j >= len(text) || text[j] != '"' {
				i = j
				continue
			}
			valueEnd, ok := skipString(text, j)
			if !ok {
				return result
			}
			result[key] = decodeString(text[j:valueEnd])
			i = valueEnd
		case '{', '[':
			depth++
			i++
		case '}', ']':
			depth--
			if depth == 0 {
				return result
			}
			i++
		case ',':
			if depth == 1 {
				expectKey = true
			}
			i++
		default:
			i++
		}
	}
	return result
}

// skipString expects text[i] == '"' and returns the index just past the closing quote.
func skipString(text string, i int) (int, bool) {
	for j := i + 1; j < len(text); j++ {
		switch text[j] {
		case '\\':
			j++
		case '"':
			return j + 1, true
		}
	}
	return len(text), false
}

func skipSpace(text string, i int) int {
	for i < len(text) && (text[i] == ' ' || text[i] == '\n' || text[i] == '\t' || text[i] == '\r') {
		i++
	}
	return i
}

// decodeString unquotes a JSON string literal, keeping the raw body if the escapes are malformed.
func decodeString(quoted string) string {
	var s string
	if err := json.Unmarshal([]byte(quoted), &s); err == nil {
		return s
	}
	return quoted[1 : len(quoted)-1]
}
