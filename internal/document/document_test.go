package document

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/readmebot/internal/icon"
	"github.com/nadzzz/readmebot/internal/profile"
)

const cdn = "https://cdn.jsdelivr.net/gh/devicons/devicon/icons"

func TestMarkdown_Assemble(t *testing.T) {
	m, err := NewMarkdown(cdn)
	require.NoError(t, err)

	out, err := m.Assemble(context.Background(), Input{
		Profile: profile.Profile{
			Name:     "Ada Lovelace",
			GitHub:   "ada",
			LinkedIn: "https://linkedin.com/in/ada",
			Email:    "ada@example.com",
		},
		Summary:   "I design analytical engines.",
		WorkingOn: "a difference engine",
		Icons: []icon.Binding{
			{Skill: profile.Skill{Name: "python", Category: profile.CategoryLanguage}, IconID: "python/python-original.svg"},
			{Skill: profile.Skill{Name: "docker", Category: profile.CategoryTool}, IconID: "docker/docker-original.svg"},
			{Skill: profile.Skill{Name: "punch cards", Category: profile.CategorySkill}, IconID: icon.Fallback("punch cards")},
		},
	})
	require.NoError(t, err)
	doc := string(out)

	assert.Contains(t, doc, "Hi there, I'm Ada Lovelace 👋")
	assert.Contains(t, doc, "username=ada")
	assert.Contains(t, doc, `href="https://linkedin.com/in/ada"`)
	assert.Contains(t, doc, "mailto:ada@example.com")
	assert.Contains(t, doc, "## 🚀 About Me")
	assert.Contains(t, doc, "I design analytical engines.")
	assert.Contains(t, doc, "working on **a difference engine**")
	assert.Contains(t, doc, cdn+"/python/python-original.svg")
	assert.Contains(t, doc, "<code>punch cards</code>")
	assert.Contains(t, doc, "## 📊 GitHub Stats")

	langs := strings.Index(doc, "Programming Languages")
	skills := strings.Index(doc, "Skills")
	tools := strings.Index(doc, "Tools")
	assert.True(t, langs < skills && skills < tools, "sections render in category order")
	assert.True(t, strings.HasSuffix(doc, "</p>\n"))
}

func TestMarkdown_Assemble_Minimal(t *testing.T) {
	m, err := NewMarkdown(cdn)
	require.NoError(t, err)

	out, err := m.Assemble(context.Background(), Input{Profile: profile.Profile{Name: "Grace"}})
	require.NoError(t, err)
	doc := string(out)

	assert.Contains(t, doc, "Hi there, I'm Grace")
	assert.NotContains(t, doc, "GitHub Stats")
	assert.NotContains(t, doc, "About Me")
	assert.NotContains(t, doc, "<p align=\"left\">")
}

func TestMarkdown_Assemble_EscapesAttributes(t *testing.T) {
	m, err := NewMarkdown(cdn)
	require.NoError(t, err)

	out, err := m.Assemble(context.Background(), Input{
		Profile: profile.Profile{Name: "Eve"},
		Icons: []icon.Binding{
			{Skill: profile.Skill{Name: `a"b`, Category: profile.CategoryTool}, IconID: "x/x-original.svg"},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, string(out), `alt="a&#34;b"`)
}

func TestMarkdown_Assemble_CancelledContext(t *testing.T) {
	m, err := NewMarkdown(cdn)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Assemble(ctx, Input{})
	assert.ErrorIs(t, err, context.Canceled)
}
