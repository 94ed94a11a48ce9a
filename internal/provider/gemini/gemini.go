// Package gemini implements transcription and extraction with Google Gemini.
// Audio is sent inline to a multimodal model, so one API key covers both
// capabilities.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/nadzzz/readmebot/internal/config"
	"github.com/nadzzz/readmebot/internal/extraction"
	"github.com/nadzzz/readmebot/internal/provider"
)

// Inline request data is capped at 20 MB.
const maxInlineBytes = 20 << 20

var audioFormats = []string{"wav", "mp3", "aiff", "ogg", "flac"}

// Backend wraps a Gemini client.
type Backend struct {
	client *genai.Client
	model  string
	limits provider.Limits
}

// New creates a Gemini backend.
func New(ctx context.Context, cfg config.GeminiConfig) (*Backend, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Backend{
		client: client,
		model:  model,
		limits: provider.Limits{Formats: audioFormats, MaxAudioBytes: maxInlineBytes},
	}, nil
}

// AudioFormats lists the formats Transcribe accepts.
func (b *Backend) AudioFormats() []string { return b.limits.Formats }

// Name returns the backend identifier.
func (b *Backend) Name() string { return "gemini" }

// Transcribe asks the model for a verbatim transcript of audio.
func (b *Backend) Transcribe(ctx context.Context, audio []byte, format string) (string, error) {
	format = provider.NormalizeFormat(format)
	if err := b.limits.CheckAudio(audio, format); err != nil {
		return "", err
	}

	model := b.client.GenerativeModel(b.model)
	model.SetTemperature(0)

	resp, err := model.GenerateContent(ctx,
		genai.Blob{MIMEType: provider.MIMEType(format), Data: audio},
		genai.Text(extraction.TranscriptionPrompt),
	)
	if err != nil {
		return "", classify(err, provider.ErrTranscriptionFailed)
	}
	text, err := extractText(resp)
	if err != nil {
		return "", fmt.Errorf("%w: %v", provider.ErrTranscriptionFailed, err)
	}

	slog.Debug("transcription complete", "provider", "gemini", "model", b.model, "text_length", len(text))
	return strings.TrimSpace(text), nil
}

// Extract asks the model for the extraction JSON.
func (b *Backend) Extract(ctx context.Context, text string) (extraction.Result, error) {
	model := b.client.GenerativeModel(b.model)
	model.SetTemperature(0.2)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = genai.NewUserContent(genai.Text(extraction.SystemPrompt))

	resp, err := model.GenerateContent(ctx, genai.Text(extraction.BuildPrompt(text)))
	if err != nil {
		return extraction.Result{}, classify(err, provider.ErrExtractionFailed)
	}
	raw, err := extractText(resp)
	if err != nil {
		return extraction.Result{}, fmt.Errorf("%w: %v", provider.ErrMalformedResponse, err)
	}

	result, defects, err := extraction.Parse(raw)
	if err != nil {
		return extraction.Result{}, err
	}
	if len(defects) > 0 {
		slog.Warn("extraction response had invalid fields", "provider", "gemini", "defects", defects)
	}
	return result, nil
}

// Close releases the client.
func (b *Backend) Close() error {
	return b.client.Close()
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("no candidates in response")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", errors.New("no text parts in response")
	}
	return strings.Join(parts, ""), nil
}

func classify(err error, transient error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == http.StatusRequestEntityTooLarge:
			return fmt.Errorf("%w: %v", provider.ErrInputTooLarge, err)
		case gerr.Code == http.StatusBadRequest && strings.Contains(strings.ToLower(gerr.Message), "mime"):
			return fmt.Errorf("%w: %v", provider.ErrUnsupportedFormat, err)
		}
	}
	return fmt.Errorf("%w: %w", transient, err)
}
