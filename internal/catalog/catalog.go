// Package catalog is the static lookup table of known technologies: their
// canonical name, category, aliases and Devicon icon. A Catalog is
// read-only after Load and safe for concurrent use.
package catalog

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/nadzzz/readmebot/internal/profile"
)

//go:embed catalog.yaml
var defaultYAML []byte

// Entry is one known technology.
type Entry struct {
	Name      string           `yaml:"name"`
	Icon      string           `yaml:"icon"`
	Variant   string           `yaml:"variant"`
	Category  profile.Category `yaml:"category"`
	Aliases   []string         `yaml:"aliases"`
	Ambiguous bool             `yaml:"ambiguous"`
}

// IconID returns the icon path relative to the Devicon icons root, or ""
// when the entry has no icon.
func (e Entry) IconID() string {
	if e.Icon == "" {
		return ""
	}
	variant := e.Variant
	if variant == "" {
		variant = "original"
	}
	return fmt.Sprintf("%s/%s-%s.svg", e.Icon, e.Icon, variant)
}

// Catalog indexes entries by normalized name and alias.
type Catalog struct {
	entries  []Entry
	byKey    map[string]int
	maxWords int
}

type file struct {
	Entries []Entry `yaml:"entries"`
}

// Load parses a YAML catalog.
func Load(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	c := &Catalog{byKey: make(map[string]int, len(f.Entries)*2)}
	for _, e := range f.Entries {
		e.Name = profile.NormalizeName(e.Name)
		if e.Name == "" {
			return nil, fmt.Errorf("catalog entry with empty name")
		}
		if !e.Category.Valid() {
			return nil, fmt.Errorf("catalog entry %q: unknown category %q", e.Name, e.Category)
		}
		idx := len(c.entries)
		for _, key := range append([]string{e.Name}, e.Aliases...) {
			key = profile.NormalizeName(key)
			if prev, dup := c.byKey[key]; dup {
				return nil, fmt.Errorf("catalog key %q used by both %q and %q", key, c.entries[prev].Name, e.Name)
			}
			c.byKey[key] = idx
			if n := len(strings.Fields(key)); n > c.maxWords {
				c.maxWords = n
			}
		}
		c.entries = append(c.entries, e)
	}
	return c, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the embedded catalog.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load(defaultYAML)
		if err != nil {
			panic(fmt.Sprintf("embedded catalog: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Lookup finds the entry for a name or alias.
func (c *Catalog) Lookup(name string) (Entry, bool) {
	idx, ok := c.byKey[profile.NormalizeName(name)]
	if !ok {
		return Entry{}, false
	}
	return c.entries[idx], true
}

// Canonical returns the catalog's name for name, or the normalized input
// when it is unknown.
func (c *Catalog) Canonical(name string) string {
	if e, ok := c.Lookup(name); ok {
		return e.Name
	}
	return profile.NormalizeName(name)
}

// Resolve returns the icon identifier for a normalized skill name.
func (c *Catalog) Resolve(name string) (string, bool) {
	e, ok := c.Lookup(name)
	if !ok || e.Icon == "" {
		return "", false
	}
	return e.IconID(), true
}

// Category returns the category of a known name.
func (c *Catalog) Category(name string) (profile.Category, bool) {
	e, ok := c.Lookup(name)
	if !ok {
		return "", false
	}
	return e.Category, true
}

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.entries) }

// Names returns every canonical name, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		names = append(names, e.Name)
	}
	sort.Strings(names)
	return names
}
