// Package dispatch sits between the transports and the conversation engine.
//
// Every event gets an ID and a timestamp, is normalized, and is handed to
// the engine. The sender always receives a response: engine failures are
// folded into it rather than surfaced to the transport.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nadzzz/readmebot/internal/message"
)

// Engine handles one normalized event.
type Engine interface {
	Handle(ctx context.Context, ev *message.Event) (*message.Response, error)
}

// ErrEmptyEvent is reported for events with no text, audio or command.
var ErrEmptyEvent = errors.New("event has no text, audio or command")

// ErrMissingUser is reported for events without a user id.
var ErrMissingUser = errors.New("event has no user id")

const (
	codeInvalidEvent = "invalid_event"
	codeInternal     = "internal"

	replyInvalidEvent = "I couldn't read that message. Please send text, a voice note or a command."
	replyInternal     = "Something went wrong on my side. Please try again."
)

// Dispatcher is the shared entry point of every transport.
type Dispatcher struct {
	engine Engine
	now    func() time.Time
}

// New creates a Dispatcher in front of engine.
func New(engine Engine) *Dispatcher {
	return &Dispatcher{engine: engine, now: time.Now}
}

// Handle processes a single event. It is passed as the transport.Handler
// to each transport and never returns an error.
func (d *Dispatcher) Handle(ctx context.Context, ev *message.Event) (*message.Response, error) {
	start := d.now()
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = start
	}
	ev.Normalize()

	logger := slog.With("event_id", ev.ID, "user_id", ev.UserID, "kind", ev.Kind)

	if err := validate(ev); err != nil {
		logger.Info("event rejected", "error", err)
		return &message.Response{
			EventID: ev.ID,
			UserID:  ev.UserID,
			Message: replyInvalidEvent,
			Error:   codeInvalidEvent,
			Cause:   err,
		}, nil
	}

	logger.Debug("dispatch started", "command", ev.Command, "audio_bytes", len(ev.Audio))

	resp, err := d.engine.Handle(ctx, ev)
	if err != nil {
		logger.Error("dispatch failed", "error", err, "duration", time.Since(start))
		return &message.Response{
			EventID: ev.ID,
			UserID:  ev.UserID,
			Message: replyInternal,
			Error:   codeInternal,
			Cause:   err,
		}, nil
	}

	logger.Info("dispatch complete", "phase", resp.Phase, "error", resp.Error,
		"attachments", len(resp.Attachments), "duration", time.Since(start))

	// The response always goes back through the transport that received the event.
	return resp, nil
}

func validate(ev *message.Event) error {
	switch {
	case ev.UserID == "":
		return ErrMissingUser
	case ev.Kind == message.KindAudio && !ev.HasAudio():
		return ErrEmptyEvent
	case ev.Kind == message.KindCommand && ev.Command == "":
		return ErrEmptyEvent
	case ev.Kind == message.KindText && strings.TrimSpace(ev.Text) == "":
		return ErrEmptyEvent
	case ev.Kind != message.KindText && ev.Kind != message.KindAudio && ev.Kind != message.KindCommand:
		return fmt.Errorf("unknown event kind %q", ev.Kind)
	}
	return nil
}
