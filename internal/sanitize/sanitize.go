// Package sanitize coerces raw form input into values the panel can store.
// Every function is total: malformed input falls back to a safe value
// instead of returning an error.
package sanitize

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Number reads the leading base-10 integer of raw, the way a form's
// parseInt does: "12.7" and "12ms" give 12. It never returns a negative
// value. Input without leading digits, or one that overflows, yields
// fallback; negative input yields 0.
func Number(raw string, fallback int) int {
	s := strings.TrimSpace(raw)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return fallback
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return fallback
	}
	if n < 0 {
		return 0
	}
	return n
}

// String trims raw and truncates it to at most maxLen runes.
func String(raw string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	s := strings.TrimSpace(raw)
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:maxLen]))
}

// Clamp bounds v to [min, max].
func Clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Properties trims each name, drops blanks and removes duplicates while
// keeping the first occurrence in place.
func Properties(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
