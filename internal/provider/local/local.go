// Package local implements transcription and extraction with self-hosted
// models.
//
// It supports any Whisper-compatible transcription endpoint (e.g., whisper.cpp
// server, faster-whisper, whisper-asr-webservice) and either Ollama's
// /api/generate or an OpenAI-compatible chat endpoint (e.g., vLLM,
// llama.cpp server).
package local

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/nadzzz/readmebot/internal/config"
	"github.com/nadzzz/readmebot/internal/extraction"
	"github.com/nadzzz/readmebot/internal/provider"
)

// Backend uses self-hosted models for transcription and extraction.
type Backend struct {
	whisperEndpoint string
	whisperType     string // "openai" or "asr"
	llmEndpoint     string
	llmModel        string
	vadFilter       bool
	language        string
	client          *http.Client
}

// New creates a local backend from config.
func New(cfg config.LocalConfig) *Backend {
	wt := cfg.WhisperType
	if wt == "" {
		wt = "openai"
	}
	model := cfg.LLMModel
	if model == "" {
		model = "llama3.2:3b"
	}
	return &Backend{
		whisperEndpoint: cfg.WhisperEndpoint,
		whisperType:     wt,
		llmEndpoint:     cfg.LLMEndpoint,
		llmModel:        model,
		vadFilter:       cfg.VADFilter,
		language:        cfg.Language,
		client:          &http.Client{},
	}
}

// Name returns the backend identifier.
func (b *Backend) Name() string { return "local" }

// Transcribe sends audio to the Whisper-compatible endpoint.
// Supports two flavors:
//   - "openai": OpenAI-compatible API (whisper.cpp server, faster-whisper)
//   - "asr":    ahmetoner/whisper-asr-webservice (POST /asr with query params)
func (b *Backend) Transcribe(ctx context.Context, audio []byte, format string) (string, error) {
	if b.whisperEndpoint == "" {
		return "", fmt.Errorf("%w: no whisper endpoint configured", provider.ErrTranscriptionFailed)
	}
	format = provider.NormalizeFormat(format)
	if len(audio) == 0 {
		return "", fmt.Errorf("%w: empty audio", provider.ErrTranscriptionFailed)
	}

	field, endpoint := "file", b.whisperEndpoint
	if b.whisperType == "asr" {
		field, endpoint = "audio_file", b.asrURL()
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, "audio."+format)
	if err != nil {
		return "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("writing audio: %w", err)
	}
	if b.whisperType != "asr" {
		if b.language != "" {
			_ = writer.WriteField("language", b.language)
		}
		_ = writer.WriteField("response_format", "json")
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	slog.Debug("local transcription request", "url", endpoint, "type", b.whisperType)

	data, err := b.do(req, provider.ErrTranscriptionFailed)
	if err != nil {
		return "", err
	}

	var result struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("%w: decoding transcription: %v", provider.ErrTranscriptionFailed, err)
	}

	slog.Debug("local transcription complete", "text_length", len(result.Text), "language", result.Language)
	return strings.TrimSpace(result.Text), nil
}

func (b *Backend) asrURL() string {
	q := make(url.Values)
	q.Set("task", "transcribe")
	q.Set("output", "json")
	q.Set("encode", "true")
	if b.language != "" {
		q.Set("language", b.language)
	}
	if b.vadFilter {
		q.Set("vad_filter", "true")
	}
	return b.whisperEndpoint + "?" + q.Encode()
}

// Extract sends the self-description to the local LLM endpoint. Endpoints
// ending in /api/generate get Ollama's native format with JSON mode; any
// other endpoint is treated as OpenAI-compatible chat completions.
func (b *Backend) Extract(ctx context.Context, text string) (extraction.Result, error) {
	if b.llmEndpoint == "" {
		return extraction.Result{}, fmt.Errorf("%w: no llm endpoint configured", provider.ErrExtractionFailed)
	}

	var reqBody map[string]any
	if strings.HasSuffix(b.llmEndpoint, "/api/generate") {
		reqBody = map[string]any{
			"model":   b.llmModel,
			"system":  extraction.SystemPrompt,
			"prompt":  extraction.BuildPrompt(text),
			"stream":  false,
			"format":  "json",
			"options": map[string]any{"temperature": 0.2},
		}
	} else {
		reqBody = map[string]any{
			"model": b.llmModel,
			"messages": []map[string]string{
				{"role": "system", "content": extraction.SystemPrompt},
				{"role": "user", "content": extraction.BuildPrompt(text)},
			},
			"temperature":     0.2,
			"stream":          false,
			"response_format": map[string]string{"type": "json_object"},
		}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return extraction.Result{}, fmt.Errorf("marshalling request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.llmEndpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return extraction.Result{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	data, err := b.do(req, provider.ErrExtractionFailed)
	if err != nil {
		return extraction.Result{}, err
	}

	content := extractContent(data)
	if content == "" {
		return extraction.Result{}, fmt.Errorf("%w: empty response from local LLM", provider.ErrMalformedResponse)
	}

	result, defects, err := extraction.Parse(content)
	if err != nil {
		return extraction.Result{}, err
	}
	if len(defects) > 0 {
		slog.Warn("extraction response had invalid fields", "provider", "local", "defects", defects)
	}
	slog.Debug("local extraction complete", "items", result.Count())
	return result, nil
}

// do runs req and returns the body of a 200 response.
func (b *Backend) do(req *http.Request, transient error) ([]byte, error) {
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", transient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		cause := transient
		switch resp.StatusCode {
		case http.StatusRequestEntityTooLarge:
			cause = provider.ErrInputTooLarge
		case http.StatusUnsupportedMediaType:
			cause = provider.ErrUnsupportedFormat
		}
		return nil, fmt.Errorf("%w (status %d): %s", cause, resp.StatusCode, respBody)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", transient, err)
	}
	return data, nil
}

func extractContent(data []byte) string {
	// OpenAI-compatible: {"choices": [{"message": {"content": "..."}}]}
	var chatResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &chatResp); err == nil && len(chatResp.Choices) > 0 {
		return chatResp.Choices[0].Message.Content
	}

	// Ollama: {"response": "..."}
	var ollamaResp struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(data, &ollamaResp); err == nil && ollamaResp.Response != "" {
		return ollamaResp.Response
	}

	return string(data)
}
