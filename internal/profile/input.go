package profile

import (
	"errors"
	"strings"
)

// ErrUnrecognizedInput is returned when a line of profile input cannot be
// attributed to any field.
var ErrUnrecognizedInput = errors.New("unrecognized profile input")

// ParseInput splits free text into field assignments. Each non-empty line is
// either "key: value" with a known key, or a bare value. Bare values that
// look like an email or URL go to that field; anything else is assigned to
// the next field in fallback.
func ParseInput(text string, fallback []Field) ([]Assignment, error) {
	var out []Assignment
	next := 0
	for _, line := range splitLines(text) {
		if key, value, ok := strings.Cut(line, ":"); ok {
			if f, known := ParseField(key); known {
				out = append(out, Assignment{Field: f, Value: strings.TrimSpace(value)})
				continue
			}
		}
		if f, ok := guessField(line); ok {
			out = append(out, Assignment{Field: f, Value: line})
			continue
		}
		if next >= len(fallback) {
			return nil, ErrUnrecognizedInput
		}
		out = append(out, Assignment{Field: fallback[next], Value: line})
		next++
	}
	if len(out) == 0 {
		return nil, ErrUnrecognizedInput
	}
	return out, nil
}

func splitLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func guessField(v string) (Field, bool) {
	lower := strings.ToLower(v)
	switch {
	case strings.ContainsAny(v, " \t"):
		return "", false
	case strings.Contains(lower, "linkedin.com/"):
		return FieldLinkedIn, true
	case strings.Contains(lower, "github.com/"):
		return FieldGitHub, true
	case strings.Contains(v, "@") && strings.Contains(v, "."):
		return FieldEmail, true
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return FieldPortfolio, true
	}
	return "", false
}

// ParseKeyed is ParseInput restricted to "key: value" lines. It reports
// false unless every non-empty line names a known field.
func ParseKeyed(text string) ([]Assignment, bool) {
	lines := splitLines(text)
	if len(lines) == 0 {
		return nil, false
	}
	out := make([]Assignment, 0, len(lines))
	for _, line := range lines {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, false
		}
		f, known := ParseField(key)
		if !known {
			return nil, false
		}
		out = append(out, Assignment{Field: f, Value: strings.TrimSpace(value)})
	}
	return out, true
}
