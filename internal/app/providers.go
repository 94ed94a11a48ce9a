package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nadzzz/readmebot/internal/catalog"
	"github.com/nadzzz/readmebot/internal/provider"
	"github.com/nadzzz/readmebot/internal/provider/gemini"
	"github.com/nadzzz/readmebot/internal/provider/keyword"
	"github.com/nadzzz/readmebot/internal/provider/local"
	"github.com/nadzzz/readmebot/internal/provider/openai"
)

// backend is anything a provider package constructs.
type backend interface {
	Name() string
}

// buildSelector instantiates the configured backends in order. A hosted
// backend without credentials is skipped with a warning; each backend is
// created once even when it serves both capabilities.
func (a *App) buildSelector(ctx context.Context) (*provider.Selector, bool, error) {
	cfg := a.cfg.Providers
	built := map[string]backend{}

	get := func(name string) (backend, error) {
		if b, ok := built[name]; ok {
			return b, nil
		}
		b, err := a.newBackend(ctx, name)
		if err != nil {
			return nil, err
		}
		built[name] = b
		return b, nil
	}

	var transcribers []provider.Transcriber
	for _, name := range cfg.Transcription {
		b, err := get(name)
		if err != nil {
			return nil, false, err
		}
		if b == nil {
			continue
		}
		t, ok := b.(provider.Transcriber)
		if !ok {
			return nil, false, fmt.Errorf("providers.transcription: %s cannot transcribe", name)
		}
		transcribers = append(transcribers, t)
	}

	var extractors []provider.Extractor
	for _, name := range cfg.Extraction {
		b, err := get(name)
		if err != nil {
			return nil, false, err
		}
		if b == nil {
			continue
		}
		e, ok := b.(provider.Extractor)
		if !ok {
			return nil, false, fmt.Errorf("providers.extraction: %s cannot extract", name)
		}
		extractors = append(extractors, e)
	}

	if len(extractors) == 0 {
		return nil, false, fmt.Errorf("providers.extraction: no usable backend among %v", cfg.Extraction)
	}
	if len(transcribers) == 0 {
		slog.Warn("no transcription backend available, voice notes will be declined")
	}
	return provider.NewSelector(transcribers, extractors, cfg.Timeout), len(transcribers) > 0, nil
}

// newBackend returns nil, nil for a hosted backend with no API key.
func (a *App) newBackend(ctx context.Context, name string) (backend, error) {
	cfg := a.cfg.Providers
	skip := func() (backend, error) {
		slog.Warn("provider has no api key, skipping", "provider", name)
		return nil, nil
	}

	switch name {
	case "openai":
		if cfg.OpenAI.APIKey == "" {
			return skip()
		}
		return openai.New("openai", cfg.OpenAI), nil
	case "groq":
		if cfg.Groq.APIKey == "" {
			return skip()
		}
		return openai.New("groq", cfg.Groq), nil
	case "gemini":
		if cfg.Gemini.APIKey == "" {
			return skip()
		}
		b, err := gemini.New(ctx, cfg.Gemini)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, b)
		return b, nil
	case "local":
		return local.New(cfg.Local), nil
	case "keyword":
		return keyword.New(catalog.Default()), nil
	}
	return nil, fmt.Errorf("providers: unknown backend %q", name)
}
