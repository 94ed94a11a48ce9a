package profile

import "strings"

// Category groups skills in the README.
type Category string

const (
	CategorySkill    Category = "skill"
	CategoryTool     Category = "tool"
	CategoryLanguage Category = "language"
)

// Categories lists every category in render order.
var Categories = []Category{CategoryLanguage, CategorySkill, CategoryTool}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategorySkill, CategoryTool, CategoryLanguage:
		return true
	}
	return false
}

// Skill is one normalized entry of the skill set.
type Skill struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
}

// NormalizeName lower-cases and trims a skill name and collapses inner whitespace.
func NormalizeName(s string) string {
	s = strings.TrimLeft(strings.TrimRight(strings.TrimSpace(s), ".,;"), ",;")
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

type skillKey struct {
	name     string
	category Category
}

// SkillSet is an insertion-ordered set of skills keyed by (name, category).
// The zero value is ready to use.
type SkillSet struct {
	items []Skill
	index map[skillKey]struct{}
}

// NewSkillSet returns a set seeded with skills.
func NewSkillSet(skills ...Skill) *SkillSet {
	s := &SkillSet{}
	for _, sk := range skills {
		s.Add(sk)
	}
	return s
}

// Add inserts a skill, normalizing its name. It reports false for empty
// names and duplicates.
func (s *SkillSet) Add(sk Skill) bool {
	sk.Name = NormalizeName(sk.Name)
	if sk.Name == "" {
		return false
	}
	if s.index == nil {
		s.index = make(map[skillKey]struct{})
	}
	k := skillKey{sk.Name, sk.Category}
	if _, ok := s.index[k]; ok {
		return false
	}
	s.index[k] = struct{}{}
	s.items = append(s.items, sk)
	return true
}

// Len returns the number of skills in the set.
func (s *SkillSet) Len() int { return len(s.items) }

// Items returns a copy of the skills in insertion order.
func (s *SkillSet) Items() []Skill {
	return append([]Skill(nil), s.items...)
}

// ByCategory returns the skill names of one category in insertion order.
func (s *SkillSet) ByCategory(c Category) []string {
	var out []string
	for _, sk := range s.items {
		if sk.Category == c {
			out = append(out, sk.Name)
		}
	}
	return out
}
