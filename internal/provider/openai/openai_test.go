package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/readmebot/internal/config"
	"github.com/nadzzz/readmebot/internal/provider"
)

func newTestBackend(t *testing.T, h http.HandlerFunc) *Backend {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New("groq", config.OpenAIConfig{
		APIKey:             "test-key",
		BaseURL:            srv.URL + "/v1",
		TranscriptionModel: "whisper-large-v3-turbo",
		CompletionModel:    "llama-3.3-70b-versatile",
	})
}

func chatReply(content string) map[string]any {
	return map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  "llama-3.3-70b-versatile",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	}
}

func TestBackend_Transcribe(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-large-v3-turbo", r.FormValue("model"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "audio.ogg", hdr.Filename)
		data, _ := io.ReadAll(f)
		assert.Equal(t, "OggS", string(data))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "I write Go."})
	})

	text, err := b.Transcribe(context.Background(), []byte("OggS"), "audio/ogg")
	require.NoError(t, err)
	assert.Equal(t, "I write Go.", text)
	assert.Equal(t, "groq", b.Name())
}

func TestBackend_Transcribe_RejectsBeforeCalling(t *testing.T) {
	called := false
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	_, err := b.Transcribe(context.Background(), []byte{1}, "aiff")
	assert.ErrorIs(t, err, provider.ErrUnsupportedFormat)

	_, err = b.Transcribe(context.Background(), make([]byte, maxUploadBytes+1), "mp3")
	assert.ErrorIs(t, err, provider.ErrInputTooLarge)
	assert.False(t, called)
}

func TestBackend_Extract(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		var req struct {
			Model          string `json:"model"`
			ResponseFormat struct {
				Type string `json:"type"`
			} `json:"response_format"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "json_object", req.ResponseFormat.Type)
		require.Len(t, req.Messages, 2)
		assert.Contains(t, req.Messages[1].Content, "I build APIs in Go")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatReply("```json\n" +
			`{"summary":"Go developer.","languages":["go"],"tools":["docker"],"skills":"oops","fun_fact":null}` +
			"\n```"))
	})

	r, err := b.Extract(context.Background(), "I build APIs in Go and ship them with Docker.")
	require.NoError(t, err)
	assert.Equal(t, "Go developer.", r.Summary)
	assert.Equal(t, []string{"go"}, r.Languages)
	assert.Equal(t, []string{"docker"}, r.Tools)
	assert.Empty(t, r.Skills)
}

func TestBackend_Extract_Malformed(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatReply("Sure! Here are your skills: Go, Docker."))
	})

	_, err := b.Extract(context.Background(), "I build APIs in Go.")
	assert.ErrorIs(t, err, provider.ErrMalformedResponse)
	assert.True(t, provider.IsTransient(err))
}

func TestBackend_ErrorClassification(t *testing.T) {
	tests := []struct {
		status int
		want   error
		defect bool
	}{
		{http.StatusInternalServerError, provider.ErrExtractionFailed, false},
		{http.StatusTooManyRequests, provider.ErrExtractionFailed, false},
		{http.StatusBadRequest, provider.ErrExtractionFailed, false},
		{http.StatusUnprocessableEntity, provider.ErrExtractionFailed, false},
		{http.StatusRequestEntityTooLarge, provider.ErrInputTooLarge, true},
		{http.StatusUnsupportedMediaType, provider.ErrUnsupportedFormat, true},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"message":"nope","type":"server_error"}}`))
			})
			_, err := b.Extract(context.Background(), "I build APIs in Go.")
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.defect, provider.IsRequestDefect(err))
		})
	}
}
