// Package icon binds skills to icon identifiers. Resolution never fails:
// names without an icon get a deterministic plain-text fallback.
package icon

import (
	"strings"

	"github.com/nadzzz/readmebot/internal/profile"
)

// FallbackPrefix marks identifiers that render as plain text.
const FallbackPrefix = "text:"

// Resolver looks up the icon for a normalized skill name.
type Resolver interface {
	Resolve(name string) (iconID string, ok bool)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(name string) (string, bool)

// Resolve calls f.
func (f ResolverFunc) Resolve(name string) (string, bool) { return f(name) }

// Binding pairs a skill with its icon.
type Binding struct {
	Skill  profile.Skill
	IconID string
}

// IsFallback reports whether the binding renders as plain text.
func (b Binding) IsFallback() bool {
	return strings.HasPrefix(b.IconID, FallbackPrefix)
}

// Fallback returns the plain-text identifier for name.
func Fallback(name string) string {
	return FallbackPrefix + name
}

// Bind resolves every skill in order. A nil resolver binds everything to
// the fallback.
func Bind(r Resolver, skills []profile.Skill) []Binding {
	out := make([]Binding, 0, len(skills))
	for _, sk := range skills {
		id, ok := "", false
		if r != nil {
			id, ok = r.Resolve(sk.Name)
		}
		if !ok || id == "" {
			id = Fallback(sk.Name)
		}
		out = append(out, Binding{Skill: sk, IconID: id})
	}
	return out
}

// URL joins an icon identifier onto a CDN base. Fallback identifiers have
// no URL.
func URL(cdnBase, iconID string) string {
	if iconID == "" || strings.HasPrefix(iconID, FallbackPrefix) {
		return ""
	}
	return strings.TrimSuffix(cdnBase, "/") + "/" + strings.TrimPrefix(iconID, "/")
}
