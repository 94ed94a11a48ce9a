package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/readmebot/internal/profile"
)

func TestDefault_Loads(t *testing.T) {
	c := Default()
	require.NotNil(t, c)
	assert.Greater(t, c.Len(), 50)
}

func TestCatalog_Resolve(t *testing.T) {
	c := Default()

	tests := []struct {
		name   string
		wantID string
		wantOK bool
	}{
		{"python", "python/python-original.svg", true},
		{"js", "javascript/javascript-original.svg", true},
		{"golang", "go/go-original.svg", true},
		{"k8s", "kubernetes/kubernetes-plain.svg", true},
		{"postgres", "postgresql/postgresql-original.svg", true},
		{"aws", "amazonwebservices/amazonwebservices-original-wordmark.svg", true},
		{"c++", "cplusplus/cplusplus-original.svg", true},
		{"C#", "csharp/csharp-original.svg", true},
		{"node.js", "nodejs/nodejs-original.svg", true},
		{".net", "dot-net/dot-net-original.svg", true},
		{"machine learning", "", false},
		{"cobol", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := c.Resolve(tt.name)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestCatalog_Category(t *testing.T) {
	c := Default()

	cat, ok := c.Category("TypeScript")
	require.True(t, ok)
	assert.Equal(t, profile.CategoryLanguage, cat)

	cat, ok = c.Category("docker")
	require.True(t, ok)
	assert.Equal(t, profile.CategoryTool, cat)

	_, ok = c.Category("basket weaving")
	assert.False(t, ok)

	assert.Equal(t, "javascript", c.Canonical("JS"))
	assert.Equal(t, "basket weaving", c.Canonical(" Basket  Weaving "))
}

func TestCatalog_Match(t *testing.T) {
	c := Default()

	got := c.Match("I build React Native apps in TypeScript, deploy with Docker on k8s and AWS. " +
		"I go hiking. I also write Go and some C++. Node.js.")

	var names []string
	for _, e := range got {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"react native", "typescript", "docker", "kubernetes", "aws", "go", "c++", "node.js"}, names)
}

func TestCatalog_Match_AmbiguousWordsNeedCapital(t *testing.T) {
	got := Default().Match("every spring I go to the coast and express myself")
	assert.Empty(t, got)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load([]byte("entries:\n  - {name: x, category: gadget}\n"))
	assert.ErrorContains(t, err, "unknown category")

	_, err = Load([]byte("entries:\n  - {name: a, category: tool, aliases: [z]}\n  - {name: z, category: tool}\n"))
	assert.ErrorContains(t, err, "used by both")

	_, err = Load([]byte("entries: [oops"))
	assert.Error(t, err)
}
