// Package keyword is an offline Extractor that matches the self-description
// against the technology catalog. It is the last link of the extraction
// chain so a README can still be produced when every LLM is unreachable.
package keyword

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/nadzzz/readmebot/internal/catalog"
	"github.com/nadzzz/readmebot/internal/extraction"
)

const maxSummaryRunes = 400

var (
	sentenceEnd = regexp.MustCompile(`[.!?](\s+|$)`)
	workingOn   = regexp.MustCompile(`(?i)\b(?:currently |now )?(?:working on|building)\s+([^.!?\n]+)`)
	learning    = regexp.MustCompile(`(?i)\b(?:currently |now )?learning\s+([^.!?\n]+)`)
	openTo      = regexp.MustCompile(`(?i)\bopen to\s+([^.!?\n]+)`)
)

// Extractor finds catalog entries mentioned in text.
type Extractor struct {
	catalog *catalog.Catalog
}

// New returns an Extractor over c, or the embedded catalog when c is nil.
func New(c *catalog.Catalog) *Extractor {
	if c == nil {
		c = catalog.Default()
	}
	return &Extractor{catalog: c}
}

// Name returns the backend identifier.
func (e *Extractor) Name() string { return "keyword" }

// Extract never fails on well-formed input.
func (e *Extractor) Extract(ctx context.Context, text string) (extraction.Result, error) {
	if err := ctx.Err(); err != nil {
		return extraction.Result{}, err
	}

	r := extraction.Result{
		Summary:            summarize(text),
		CurrentlyWorkingOn: capture(workingOn, text),
		CurrentlyLearning:  capture(learning, text),
		OpenTo:             capture(openTo, text),
	}
	for _, entry := range e.catalog.Match(text) {
		r.Append(entry.Category, entry.Name)
	}
	return r, nil
}

// summarize keeps the leading sentences of text up to maxSummaryRunes.
func summarize(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= maxSummaryRunes {
		return text
	}
	var out string
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		candidate := strings.TrimSpace(text[:loc[1]])
		if utf8.RuneCountInString(candidate) > maxSummaryRunes {
			break
		}
		out = candidate
	}
	if out == "" {
		runes := []rune(text)
		out = strings.TrimSpace(string(runes[:maxSummaryRunes])) + "…"
	}
	return out
}

func capture(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(m[1], ",;"))
}
