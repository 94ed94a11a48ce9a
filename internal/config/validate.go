package config

import (
	"errors"
	"fmt"
	"slices"
)

// Backend names accepted in providers.transcription and providers.extraction.
var (
	TranscriptionBackends = []string{"openai", "groq", "gemini", "local"}
	ExtractionBackends    = []string{"openai", "groq", "gemini", "local", "keyword"}
	StoreBackends         = []string{"memory", "redis", "postgres", "sqlite"}
	ProfileFields         = []string{"name", "github", "linkedin", "portfolio", "email"}
)

// Validate rejects configurations the daemon cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Providers.Extraction) == 0 {
		errs = append(errs, errors.New("providers.extraction: at least one backend is required"))
	}
	for _, name := range c.Providers.Transcription {
		if !slices.Contains(TranscriptionBackends, name) {
			errs = append(errs, fmt.Errorf("providers.transcription: unknown backend %q", name))
		}
	}
	for _, name := range c.Providers.Extraction {
		if !slices.Contains(ExtractionBackends, name) {
			errs = append(errs, fmt.Errorf("providers.extraction: unknown backend %q", name))
		}
	}
	if c.Providers.Timeout < 0 {
		errs = append(errs, errors.New("providers.timeout: must not be negative"))
	}

	conv := c.Conversation
	if conv.MinTextLength < 0 {
		errs = append(errs, errors.New("conversation.min_text_length: must not be negative"))
	}
	if conv.MaxTextLength > 0 && conv.MaxTextLength < conv.MinTextLength {
		errs = append(errs, errors.New("conversation.max_text_length: must be at least min_text_length"))
	}
	if conv.MaxSkillsPerCategory <= 0 {
		errs = append(errs, errors.New("conversation.max_skills_per_category: must be positive"))
	}
	for _, f := range conv.RequiredFields {
		if !slices.Contains(ProfileFields, f) {
			errs = append(errs, fmt.Errorf("conversation.required_fields: unknown field %q", f))
		}
	}

	if !slices.Contains(StoreBackends, c.Store.Backend) {
		errs = append(errs, fmt.Errorf("store.backend: unknown backend %q", c.Store.Backend))
	}
	if (c.Store.Backend == "postgres" || c.Store.Backend == "sqlite") && c.Store.DSN == "" {
		errs = append(errs, fmt.Errorf("store.dsn: required for %s", c.Store.Backend))
	}
	if c.Transports.Telegram.Enabled && c.Transports.Telegram.Token == "" {
		errs = append(errs, errors.New("transports.telegram.token: required when telegram is enabled"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
