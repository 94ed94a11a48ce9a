// Package document assembles the final profile README from a committed
// profile, its icon bindings and the extracted summary.
package document

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html"
	"strings"
	"text/template"

	"github.com/nadzzz/readmebot/internal/icon"
	"github.com/nadzzz/readmebot/internal/profile"
)

// Input is everything the assembler needs. It is built once per document.
type Input struct {
	Profile   profile.Profile
	Summary   string
	WorkingOn string
	Learning  string
	OpenTo    string
	FunFact   string
	Icons     []icon.Binding
}

// Assembler renders a document.
type Assembler interface {
	Assemble(ctx context.Context, in Input) ([]byte, error)
}

// RenderError wraps a template failure.
type RenderError struct {
	Stage string
	Cause error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("document %s: %v", e.Stage, e.Cause)
}

func (e *RenderError) Unwrap() error { return e.Cause }

//go:embed templates/*.tmpl
var templateFS embed.FS

// Markdown renders a GitHub profile README.
type Markdown struct {
	tmpl    *template.Template
	cdnBase string
}

// NewMarkdown parses the embedded README template. cdnBase is the Devicon
// icons root that icon identifiers are joined onto.
func NewMarkdown(cdnBase string) (*Markdown, error) {
	tmpl, err := template.New("readme.md.tmpl").
		Funcs(template.FuncMap{"attr": html.EscapeString}).
		ParseFS(templateFS, "templates/readme.md.tmpl")
	if err != nil {
		return nil, &RenderError{Stage: "parse", Cause: err}
	}
	return &Markdown{tmpl: tmpl, cdnBase: cdnBase}, nil
}

// Filename is the attachment name of the rendered document.
const Filename = "README.md"

// ContentType is the MIME type of the rendered document.
const ContentType = "text/markdown; charset=utf-8"

type item struct {
	Name string
	URL  string
}

type section struct {
	Title string
	Items []item
}

type view struct {
	Input
	Name     string
	Sections []section
}

var sectionTitles = map[profile.Category]string{
	profile.CategoryLanguage: "💻 Programming Languages",
	profile.CategorySkill:    "🛠️ Skills",
	profile.CategoryTool:     "🧰 Tools",
}

// Assemble renders in as Markdown.
func (m *Markdown) Assemble(ctx context.Context, in Input) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v := view{Input: in, Name: strings.TrimSpace(in.Profile.Name)}
	for _, c := range profile.Categories {
		var items []item
		for _, b := range in.Icons {
			if b.Skill.Category != c {
				continue
			}
			items = append(items, item{Name: b.Skill.Name, URL: icon.URL(m.cdnBase, b.IconID)})
		}
		if len(items) > 0 {
			v.Sections = append(v.Sections, section{Title: sectionTitles[c], Items: items})
		}
	}

	var buf bytes.Buffer
	if err := m.tmpl.Execute(&buf, v); err != nil {
		return nil, &RenderError{Stage: "render", Cause: err}
	}
	out := bytes.TrimSpace(buf.Bytes())
	return append(out, '\n'), nil
}
