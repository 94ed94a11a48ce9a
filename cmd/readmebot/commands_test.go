package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/readmebot/internal/message"
)

func TestRenderReadme_YAML(t *testing.T) {
	input := []byte(`
profile:
  name: Ada Lovelace
  github: "@ada"
summary: I build analytical engines.
languages: [Python, python, Go]
tools: [Docker]
skills: [Machine Learning]
currently_learning: Rust
`)
	doc, err := renderReadme(context.Background(), input, "https://cdn.example.com/icons", 20)
	require.NoError(t, err)

	out := string(doc)
	assert.Contains(t, out, "Ada Lovelace")
	assert.Contains(t, out, "I build analytical engines.")
	assert.Contains(t, out, "https://cdn.example.com/icons")
	assert.Contains(t, out, "Rust")
}

func TestRenderReadme_JSON(t *testing.T) {
	input := []byte(`{"profile": {"name": "Grace Hopper"}, "summary": "Compilers.", "languages": ["COBOL"]}`)
	doc, err := renderReadme(context.Background(), input, "https://cdn.example.com/icons", 20)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "Grace Hopper")
}

func TestRenderReadme_InvalidProfile(t *testing.T) {
	input := []byte("profile:\n  email: not-an-email\n")
	_, err := renderReadme(context.Background(), input, "https://cdn.example.com/icons", 20)
	require.Error(t, err)
}

func TestRenderReadme_BadInput(t *testing.T) {
	_, err := renderReadme(context.Background(), []byte("profile: [unterminated"), "", 20)
	require.Error(t, err)
}

func TestPrintResponse(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	err := printResponse(cmd, &message.Response{
		Message:     "Here is your README.",
		Phase:       "TERMINAL",
		Actions:     []string{"rate"},
		Attachments: []message.Attachment{{Name: "README.md", Data: []byte("# Ada\n")}},
	}, dir)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "Here is your README.")
	assert.Contains(t, buf.String(), "[phase TERMINAL, next: rate]")

	data, err := os.ReadFile(filepath.Join(dir, "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Ada\n", string(data))
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "readmebot dev\n", buf.String())
}
