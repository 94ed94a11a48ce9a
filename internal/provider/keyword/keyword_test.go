package keyword

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractor_Extract(t *testing.T) {
	text := "I'm a backend engineer. I write Go and Python, deploy with Docker and k8s. " +
		"Currently working on a payments API. Learning Rust. Open to remote roles."

	r, err := New(nil).Extract(context.Background(), text)
	require.NoError(t, err)

	assert.Contains(t, r.Languages, "go")
	assert.Contains(t, r.Languages, "python")
	assert.Contains(t, r.Languages, "rust")
	assert.Contains(t, r.Tools, "docker")
	assert.Contains(t, r.Tools, "kubernetes")
	assert.Equal(t, "a payments API", r.CurrentlyWorkingOn)
	assert.Equal(t, "Rust", r.CurrentlyLearning)
	assert.Equal(t, "remote roles", r.OpenTo)
	assert.Equal(t, text, r.Summary)
}

func TestExtractor_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(nil).Extract(ctx, "I write Go")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSummarize(t *testing.T) {
	long := strings.Repeat("I like building things. ", 40)
	s := summarize(long)
	assert.LessOrEqual(t, utf8.RuneCountInString(s), maxSummaryRunes)
	assert.True(t, strings.HasSuffix(s, "."))

	noStops := strings.Repeat("word ", 200)
	s = summarize(noStops)
	assert.True(t, strings.HasSuffix(s, "…"))
}
