package catalog

import (
	"strings"
	"unicode"
)

// Match scans free text for known technologies and returns their entries
// in order of first mention. Multi-word names are preferred over their
// single-word prefixes ("react native" over "react").
func (c *Catalog) Match(text string) []Entry {
	tokens := tokenize(text)
	seen := make(map[string]struct{})
	var out []Entry

	for i := 0; i < len(tokens); {
		matched := 0
		for n := min(c.maxWords, len(tokens)-i); n >= 1; n-- {
			key := strings.ToLower(strings.Join(tokens[i:i+n], " "))
			idx, ok := c.byKey[key]
			if !ok {
				continue
			}
			e := c.entries[idx]
			if n == 1 && e.Ambiguous && key == e.Name && !startsUpper(tokens[i]) {
				continue
			}
			if _, dup := seen[e.Name]; !dup {
				seen[e.Name] = struct{}{}
				out = append(out, e)
			}
			matched = n
			break
		}
		if matched == 0 {
			matched = 1
		}
		i += matched
	}
	return out
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !strings.ContainsRune("+#./-", r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		f = strings.TrimRight(f, "./-")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}
