// Package extraction defines the structured output of an Extractor, the
// schema it is validated against, and the normalizer applied before the
// result reaches the conversation.
package extraction

import (
	"strings"

	"github.com/nadzzz/readmebot/internal/profile"
)

// Result is the structured self-description produced by an Extractor.
type Result struct {
	Summary   string   `json:"summary"`
	Skills    []string `json:"skills"`
	Tools     []string `json:"tools"`
	Languages []string `json:"languages"`

	CurrentlyWorkingOn string `json:"currently_working_on,omitempty"`
	CurrentlyLearning  string `json:"currently_learning,omitempty"`
	OpenTo             string `json:"open_to,omitempty"`
	FunFact            string `json:"fun_fact,omitempty"`
}

// Items returns the names recorded under one category.
func (r Result) Items(c profile.Category) []string {
	switch c {
	case profile.CategorySkill:
		return r.Skills
	case profile.CategoryTool:
		return r.Tools
	case profile.CategoryLanguage:
		return r.Languages
	}
	return nil
}

// Append adds names to one category without normalizing them.
func (r *Result) Append(c profile.Category, names ...string) {
	switch c {
	case profile.CategorySkill:
		r.Skills = append(r.Skills, names...)
	case profile.CategoryTool:
		r.Tools = append(r.Tools, names...)
	case profile.CategoryLanguage:
		r.Languages = append(r.Languages, names...)
	}
}

// Flatten returns every entry as a categorized skill, in render order.
func (r Result) Flatten() []profile.Skill {
	var out []profile.Skill
	for _, c := range profile.Categories {
		for _, name := range r.Items(c) {
			out = append(out, profile.Skill{Name: name, Category: c})
		}
	}
	return out
}

// Count returns the total number of categorized entries.
func (r Result) Count() int {
	return len(r.Skills) + len(r.Tools) + len(r.Languages)
}

// Clone returns a deep copy.
func (r Result) Clone() Result {
	r.Skills = append([]string(nil), r.Skills...)
	r.Tools = append([]string(nil), r.Tools...)
	r.Languages = append([]string(nil), r.Languages...)
	return r
}

// Normalizer cleans extractor output: names are lower-cased and trimmed,
// empties dropped, duplicates within a category removed, and each category
// capped at MaxPerCategory keeping the most recently inserted entries.
// A zero or negative MaxPerCategory disables the cap.
type Normalizer struct {
	MaxPerCategory int
}

// Clean returns the normalized form of r. It never fails and does not
// modify r.
func (n Normalizer) Clean(r Result) Result {
	out := Result{
		Summary:            strings.TrimSpace(r.Summary),
		CurrentlyWorkingOn: strings.TrimSpace(r.CurrentlyWorkingOn),
		CurrentlyLearning:  strings.TrimSpace(r.CurrentlyLearning),
		OpenTo:             strings.TrimSpace(r.OpenTo),
		FunFact:            strings.TrimSpace(r.FunFact),
	}
	for _, c := range profile.Categories {
		out.Append(c, n.cleanCategory(r.Items(c))...)
	}
	return out
}

// cleanCategory keeps the last occurrence of each name, so a repeated entry
// counts as recently inserted.
func (n Normalizer) cleanCategory(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	rev := make([]string, 0, len(names))
	for i := len(names) - 1; i >= 0; i-- {
		name := profile.NormalizeName(names[i])
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		rev = append(rev, name)
		if n.MaxPerCategory > 0 && len(rev) == n.MaxPerCategory {
			break
		}
	}
	out := make([]string, len(rev))
	for i, name := range rev {
		out[len(rev)-1-i] = name
	}
	return out
}
