package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.HealthPort)
	assert.Equal(t, []string{"groq", "gemini"}, cfg.Providers.Transcription)
	assert.Equal(t, []string{"gemini", "openai", "keyword"}, cfg.Providers.Extraction)
	assert.Equal(t, 30*time.Second, cfg.Providers.Timeout)
	assert.Equal(t, 50, cfg.Conversation.MinTextLength)
	assert.Equal(t, 20, cfg.Conversation.MaxSkillsPerCategory)
	assert.Equal(t, []string{"name"}, cfg.Conversation.RequiredFields)
	assert.Equal(t, "whisper-large-v3-turbo", cfg.Providers.Groq.TranscriptionModel)
	assert.Equal(t, "memory", cfg.Store.Backend)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("READMEBOT_PROVIDERS_EXTRACTION", "openai, keyword")
	t.Setenv("READMEBOT_CONVERSATION_MIN_TEXT_LENGTH", "10")
	t.Setenv("READMEBOT_PROVIDERS_TIMEOUT", "5s")
	t.Setenv("GROQ_API_KEY", "gsk-test")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"openai", "keyword"}, cfg.Providers.Extraction)
	assert.Equal(t, 10, cfg.Conversation.MinTextLength)
	assert.Equal(t, 5*time.Second, cfg.Providers.Timeout)
	assert.Equal(t, "gsk-test", cfg.Providers.Groq.APIKey)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "readmebot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
providers:
  transcription: [local]
  extraction: [local, keyword]
conversation:
  required_fields: [name, github]
store:
  backend: sqlite
  dsn: /tmp/readmebot.db
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"local"}, cfg.Providers.Transcription)
	assert.Equal(t, []string{"name", "github"}, cfg.Conversation.RequiredFields)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Providers:    ProvidersConfig{Extraction: []string{"keyword"}},
			Conversation: ConversationConfig{MinTextLength: 50, MaxTextLength: 5000, MaxSkillsPerCategory: 20},
			Store:        StoreConfig{Backend: "memory"},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown extractor", mutate: func(c *Config) { c.Providers.Extraction = []string{"cohere"} }, errMsg: `unknown backend "cohere"`},
		{name: "keyword cannot transcribe", mutate: func(c *Config) { c.Providers.Transcription = []string{"keyword"} }, errMsg: "providers.transcription"},
		{name: "no extractors", mutate: func(c *Config) { c.Providers.Extraction = nil }, errMsg: "at least one backend"},
		{name: "max below min", mutate: func(c *Config) { c.Conversation.MaxTextLength = 10 }, errMsg: "max_text_length"},
		{name: "unknown field", mutate: func(c *Config) { c.Conversation.RequiredFields = []string{"phone"} }, errMsg: `unknown field "phone"`},
		{name: "sqlite without dsn", mutate: func(c *Config) { c.Store.Backend = "sqlite" }, errMsg: "store.dsn"},
		{name: "telegram without token", mutate: func(c *Config) { c.Transports.Telegram.Enabled = true }, errMsg: "telegram.token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := c.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestResolveEnvRef(t *testing.T) {
	t.Setenv("READMEBOT_TEST_SECRET", "s3cret")
	assert.Equal(t, "s3cret", resolveEnvRef("${READMEBOT_TEST_SECRET}"))
	assert.Equal(t, "", resolveEnvRef("${READMEBOT_TEST_UNSET}"))
	assert.Equal(t, "literal", resolveEnvRef("literal"))
}
