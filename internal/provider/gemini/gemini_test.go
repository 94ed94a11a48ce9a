package gemini

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/nadzzz/readmebot/internal/config"
	"github.com/nadzzz/readmebot/internal/provider"
)

func TestNew_RequiresKey(t *testing.T) {
	_, err := New(context.Background(), config.GeminiConfig{})
	assert.Error(t, err)
}

func TestExtractText(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"summary":`), genai.Text(`"hi"}`)}},
	}}}
	text, err := extractText(resp)
	require.NoError(t, err)
	assert.Equal(t, `{"summary":"hi"}`, text)

	_, err = extractText(&genai.GenerateContentResponse{})
	assert.Error(t, err)

	_, err = extractText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{genai.Blob{MIMEType: "audio/ogg"}}},
	}}})
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"too large", &googleapi.Error{Code: http.StatusRequestEntityTooLarge}, provider.ErrInputTooLarge},
		{"bad mime", &googleapi.Error{Code: http.StatusBadRequest, Message: "Unsupported MIME type: audio/x-foo"}, provider.ErrUnsupportedFormat},
		{"bad request", &googleapi.Error{Code: http.StatusBadRequest, Message: "invalid argument"}, provider.ErrExtractionFailed},
		{"quota", &googleapi.Error{Code: http.StatusTooManyRequests}, provider.ErrExtractionFailed},
		{"network", errors.New("connection reset"), provider.ErrExtractionFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classify(tt.err, provider.ErrExtractionFailed), tt.want)
		})
	}
}

func TestTranscribe_RejectsBeforeCalling(t *testing.T) {
	b := &Backend{limits: provider.Limits{Formats: audioFormats, MaxAudioBytes: maxInlineBytes}}

	_, err := b.Transcribe(context.Background(), []byte("x"), "audio/webm")
	assert.ErrorIs(t, err, provider.ErrUnsupportedFormat)

	_, err = b.Transcribe(context.Background(), make([]byte, maxInlineBytes+1), "ogg")
	assert.ErrorIs(t, err, provider.ErrInputTooLarge)
}
