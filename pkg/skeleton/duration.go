package skeleton

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// autoSentinel is how Auto travels over the wire and through prompts.
const autoSentinel = -1

// Duration is a scene length. It is either a fixed number of seconds or Auto,
// which leaves the choice to whatever measures the generated media later.
// The zero value is "unset" and resolves to the caller's fallback.
type Duration struct {
	auto    bool
	seconds float64
}

func Fixed(seconds float64) Duration { return Duration{seconds: seconds} }

func Auto() Duration { return Duration{auto: true} }

func (d Duration) IsAuto() bool { return d.auto }

// IsSet reports whether the duration is Auto or a positive number of seconds.
func (d Duration) IsSet() bool { return d.auto || d.seconds > 0 }

// Fixed returns the seconds and true when d holds a usable fixed length.
func (d Duration) Fixed() (float64, bool) {
	if d.auto || d.seconds <= 0 {
		return 0, false
	}
	return d.seconds, true
}

// Seconds resolves d for layout: fixed lengths as-is, Auto and unset as fallback.
func (d Duration) Seconds(fallback float64) float64 {
	if s, ok := d.Fixed(); ok {
		return s
	}
	return fallback
}

// Clamp rounds a fixed length to whole seconds inside [min, max]. Auto is kept as-is.
func (d Duration) Clamp(min, max int) Duration {
	if d.auto {
		return d
	}
	s := math.Round(d.seconds)
	if s < float64(min) {
		s = float64(min)
	}
	if s > float64(max) {
		s = float64(max)
	}
	return Fixed(s)
}

// Wire returns the numeric form sent to generation services: -1 for Auto.
func (d Duration) Wire() float64 {
	if d.auto {
		return autoSentinel
	}
	return d.seconds
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Wire())
}

// UnmarshalJSON accepts numbers and numeric strings. Negative numbers mean Auto.
// Anything unreadable leaves the duration unset instead of failing the document.
func (d *Duration) UnmarshalJSON(data []byte) error {
	*d = Duration{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*d = fromNumber(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if n, ok := ParseSeconds(s); ok {
			*d = fromNumber(n)
		}
	}
	return nil
}

func fromNumber(n float64) Duration {
	if n < 0 {
		return Auto()
	}
	return Fixed(n)
}

// ParseSeconds reads the leading integer of s, so "5", "5s" and "5 秒" all give 5.
func ParseSeconds(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return float64(n), true
}
