// Package openai implements transcription and extraction against the OpenAI
// API or any OpenAI-compatible endpoint (Groq, vLLM, LiteLLM).
package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	oai "github.com/sashabaranov/go-openai"

	"github.com/nadzzz/readmebot/internal/config"
	"github.com/nadzzz/readmebot/internal/extraction"
	"github.com/nadzzz/readmebot/internal/provider"
)

// Whisper endpoints reject uploads above 25 MB.
const maxUploadBytes = 25 << 20

var audioFormats = []string{"flac", "m4a", "mp3", "ogg", "wav", "webm"}

// Backend talks to one OpenAI-compatible deployment.
type Backend struct {
	name               string
	client             *oai.Client
	transcriptionModel string
	completionModel    string
	limits             provider.Limits
}

// New creates a backend. name distinguishes deployments that share this
// implementation ("openai", "groq").
func New(name string, cfg config.OpenAIConfig) *Backend {
	c := oai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		c.BaseURL = cfg.BaseURL
	}
	tm := cfg.TranscriptionModel
	if tm == "" {
		tm = oai.Whisper1
	}
	cm := cfg.CompletionModel
	if cm == "" {
		cm = oai.GPT4oMini
	}
	return &Backend{
		name:               name,
		client:             oai.NewClientWithConfig(c),
		transcriptionModel: tm,
		completionModel:    cm,
		limits:             provider.Limits{Formats: audioFormats, MaxAudioBytes: maxUploadBytes},
	}
}

// AudioFormats lists the formats Transcribe accepts.
func (b *Backend) AudioFormats() []string { return b.limits.Formats }

// Name returns the backend identifier.
func (b *Backend) Name() string { return b.name }

// Transcribe sends audio to the /audio/transcriptions endpoint.
func (b *Backend) Transcribe(ctx context.Context, audio []byte, format string) (string, error) {
	format = provider.NormalizeFormat(format)
	if err := b.limits.CheckAudio(audio, format); err != nil {
		return "", err
	}

	resp, err := b.client.CreateTranscription(ctx, oai.AudioRequest{
		Model:    b.transcriptionModel,
		FilePath: "audio." + format,
		Reader:   bytes.NewReader(audio),
		Prompt:   "A software developer describing their skills, tools and experience.",
		Format:   oai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", classify(err, provider.ErrTranscriptionFailed)
	}

	slog.Debug("transcription complete", "provider", b.name, "model", b.transcriptionModel, "text_length", len(resp.Text))
	return resp.Text, nil
}

// Extract asks the chat completion endpoint for the extraction JSON.
func (b *Backend) Extract(ctx context.Context, text string) (extraction.Result, error) {
	resp, err := b.client.CreateChatCompletion(ctx, oai.ChatCompletionRequest{
		Model: b.completionModel,
		Messages: []oai.ChatCompletionMessage{
			{Role: oai.ChatMessageRoleSystem, Content: extraction.SystemPrompt},
			{Role: oai.ChatMessageRoleUser, Content: extraction.BuildPrompt(text)},
		},
		Temperature: 0.2,
		ResponseFormat: &oai.ChatCompletionResponseFormat{
			Type: oai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return extraction.Result{}, classify(err, provider.ErrExtractionFailed)
	}
	if len(resp.Choices) == 0 {
		return extraction.Result{}, fmt.Errorf("%w: no choices in response", provider.ErrMalformedResponse)
	}

	result, defects, err := extraction.Parse(resp.Choices[0].Message.Content)
	if err != nil {
		return extraction.Result{}, err
	}
	if len(defects) > 0 {
		slog.Warn("extraction response had invalid fields", "provider", b.name, "defects", defects)
	}
	slog.Debug("extraction complete", "provider", b.name, "model", b.completionModel, "items", result.Count())
	return result, nil
}

// classify maps API failures onto the provider error taxonomy.
func classify(err error, transient error) error {
	var apiErr *oai.APIError
	var reqErr *oai.RequestError
	status := 0
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch status {
	case http.StatusRequestEntityTooLarge:
		return fmt.Errorf("%w: %v", provider.ErrInputTooLarge, err)
	case http.StatusUnsupportedMediaType:
		return fmt.Errorf("%w: %v", provider.ErrUnsupportedFormat, err)
	}
	return fmt.Errorf("%w: %w", transient, err)
}
