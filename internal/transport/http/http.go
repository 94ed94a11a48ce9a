// Package http implements the HTTP transport for readmebot.
//
// This transport exposes a small REST API: JSON events for text and
// commands, and raw audio uploads for voice notes. It is best suited for web
// front ends and scripted clients.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/nadzzz/readmebot/internal/docs" // registers the OpenAPI spec
	"github.com/nadzzz/readmebot/internal/message"
	"github.com/nadzzz/readmebot/internal/transport"
)

// Transport implements transport.Transport over HTTP.
type Transport struct {
	port     int
	maxBytes int64
	server   *http.Server
}

// New creates an HTTP transport on the given port. maxBytes caps request
// bodies; audio uploads above it are rejected with 413.
func New(port int, maxBytes int64) *Transport {
	return &Transport{port: port, maxBytes: maxBytes}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "http" }

// Routes returns the HTTP handler serving the API.
func (t *Transport) Routes(handler transport.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/events", t.handleEvent(handler))
		r.Post("/users/{userID}/audio", t.handleAudio(handler))
	})

	// Swagger UI serves the generated OpenAPI docs.
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	return r
}

// Listen starts the HTTP server and routes incoming requests to the handler.
func (t *Transport) Listen(ctx context.Context, handler transport.Handler) error {
	t.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", t.port),
		Handler:           t.Routes(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("http transport listening", "port", t.port)

	go func() {
		<-ctx.Done()
		slog.Info("http transport shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = t.server.Shutdown(shutdownCtx)
	}()

	if err := t.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("http listen: %w", err)
	}
	return nil
}

// handleEvent processes a POST /v1/events request.
//
// @Summary     Send a conversation event
// @Description Sends a text message or slash command (e.g. "/start", "confirm") on behalf of a user.
// @Description Audio may be included base64-encoded in the "audio" field with its "format".
// @Description The reply carries the next prompt, the conversation phase and, once confirmed, the README attachment.
// @Tags        conversation
// @Accept      json
// @Produce     json
// @Param       event  body      message.Event     true  "Conversation event"
// @Success     200    {object}  message.Response  "Reply for the sender"
// @Failure     400    {object}  message.Response  "Malformed or empty event"
// @Failure     413    {string}  string            "Request body too large"
// @Failure     500    {object}  message.Response  "Internal processing error"
// @Router      /v1/events [post]
func (t *Transport) handleEvent(handler transport.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if t.maxBytes > 0 {
			// base64 inflates audio by about 4/3.
			r.Body = http.MaxBytesReader(w, r.Body, t.maxBytes*4/3+64<<10)
		}
		var ev message.Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			if isTooLarge(err) {
				http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
			return
		}
		dispatch(w, r, handler, &ev)
	}
}

// handleAudio processes a POST /v1/users/{userID}/audio request.
//
// @Summary     Upload a voice note
// @Description Posts raw audio bytes for a user. The Content-Type (or the "format" query parameter) names the encoding.
// @Tags        conversation
// @Accept      audio/ogg
// @Accept      audio/mpeg
// @Accept      audio/wav
// @Produce     json
// @Param       userID  path      string            true   "Conversation user id"
// @Param       format  query     string            false  "Audio format override (ogg, mp3, wav, m4a, flac)"
// @Success     200     {object}  message.Response  "Reply for the sender"
// @Failure     400     {object}  message.Response  "Empty upload"
// @Failure     413     {string}  string            "Audio too large"
// @Router      /v1/users/{userID}/audio [post]
func (t *Transport) handleAudio(handler transport.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := io.Reader(r.Body)
		if t.maxBytes > 0 {
			body = http.MaxBytesReader(w, r.Body, t.maxBytes)
		}
		audio, err := io.ReadAll(body)
		if err != nil {
			if isTooLarge(err) {
				http.Error(w, "audio too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "reading audio: "+err.Error(), http.StatusBadRequest)
			return
		}

		format := r.URL.Query().Get("format")
		if format == "" {
			format = r.Header.Get("Content-Type")
		}
		dispatch(w, r, handler, &message.Event{
			UserID: chi.URLParam(r, "userID"),
			Kind:   message.KindAudio,
			Audio:  audio,
			Format: format,
		})
	}
}

func dispatch(w http.ResponseWriter, r *http.Request, handler transport.Handler, ev *message.Event) {
	resp, err := handler(r.Context(), ev)
	if err != nil {
		slog.Error("dispatch failed", "error", err)
		http.Error(w, "dispatch error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(resp.Error))
	_ = json.NewEncoder(w).Encode(resp)
}

// statusFor maps response error codes onto HTTP status. Conversation-level
// problems (short text, invalid profile) are normal replies.
func statusFor(code string) int {
	switch code {
	case "invalid_event":
		return http.StatusBadRequest
	case "internal":
		return http.StatusInternalServerError
	}
	return http.StatusOK
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

// Close gracefully shuts down the HTTP server.
func (t *Transport) Close() error {
	if t.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return t.server.Shutdown(ctx)
	}
	return nil
}
