// pkg/extract/extract.go

package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/ASHISH26940/video-studio-api/pkg/apperr"
)

var (
	jsonFence = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	anyFence  = regexp.MustCompile("(?s)```\\s*(.*?)\\s*```")
)

// Extract decodes the JSON value embedded in an LLM reply into T.
// Strategies are tried in order and the first one yielding valid JSON wins:
// a ```json fence, any ``` fence, the outermost {...} span, the outermost [...]
// span and finally the whole text. When the text opens with '[' before any '{'
// the array span is tried first, so a top-level array of objects is not
// mistaken for its first element.
func Extract[T any](text string) (T, error) {
	var out T
	raw, err := Candidate(text)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, apperr.NewParseError("structured output has an unexpected shape", err)
	}
	return out, nil
}

// Candidate returns the first syntactically valid JSON fragment found in text.
func Candidate(text string) (json.RawMessage, error) {
	strategies := []func(string) (string, bool){
		fenced(jsonFence),
		fenced(anyFence),
		leadingSpan,
		bracketSpan('{', '}'),
		bracketSpan('[', ']'),
		func(s string) (string, bool) { return strings.TrimSpace(s), true },
	}
	for _, strategy := range strategies {
		candidate, ok := strategy(text)
		if ok && json.Valid([]byte(candidate)) {
			return json.RawMessage(candidate), nil
		}
	}
	return nil, apperr.NewParseError("no JSON value found in model output", nil)
}

func fenced(re *regexp.Regexp) func(string) (string, bool) {
	return func(text string) (string, bool) {
		m := re.FindStringSubmatch(text)
		if m == nil {
			return "", false
		}
		return m[1], true
	}
}

func bracketSpan(open, end byte) func(string) (string, bool) {
	return func(text string) (string, bool) {
		start := strings.IndexByte(text, open)
		stop := strings.LastIndexByte(text, end)
		if start < 0 || stop <= start {
			return "", false
		}
		return text[start : stop+1], true
	}
}

func leadingSpan(text string) (string, bool) {
	obj := strings.IndexByte(text, '{')
	arr := strings.IndexByte(text, '[')
	if arr >= 0 && (obj < 0 || arr < obj) {
		return bracketSpan('[', ']')(text)
	}
	return bracketSpan('{', '}')(text)
}
