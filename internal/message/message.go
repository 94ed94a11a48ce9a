// Package message defines the inbound events and outbound responses that
// flow between transports and the conversation engine.
package message

import (
	"strings"
	"time"
)

// Kind classifies an inbound event.
type Kind string

const (
	// KindText is a typed message.
	KindText Kind = "text"

	// KindAudio is a voice or audio upload.
	KindAudio Kind = "audio"

	// KindCommand is a slash command such as /start or /confirm.
	KindCommand Kind = "command"
)

// Event is a single user interaction received by any transport.
type Event struct {
	// ID is a unique identifier for this event (UUID). Assigned by the
	// dispatcher when the transport leaves it empty.
	ID string `json:"id"`

	// UserID identifies the conversation (e.g., "telegram:12345").
	UserID string `json:"user_id"`

	// Kind is inferred by the dispatcher when empty.
	Kind Kind `json:"kind,omitempty"`

	// Text is the typed message, or the raw "/command args" line.
	Text string `json:"text,omitempty"`

	// Audio is the raw audio payload (base64 in JSON).
	Audio []byte `json:"audio,omitempty"`

	// Format is the audio format hint: an extension ("ogg") or MIME type ("audio/ogg").
	Format string `json:"format,omitempty"`

	// Command is the command name without the leading slash, lower-cased.
	Command string `json:"command,omitempty"`

	// Args holds the text after the command name.
	Args string `json:"args,omitempty"`

	// ReceivedAt is when the event reached readmebot.
	ReceivedAt time.Time `json:"received_at"`
}

// HasAudio returns true if the event carries an audio payload.
func (e *Event) HasAudio() bool {
	return len(e.Audio) > 0
}

// Normalize fills Kind, Command and Args from the payload when the
// transport did not set them.
func (e *Event) Normalize() {
	if e.Kind == "" {
		switch {
		case e.HasAudio():
			e.Kind = KindAudio
		case strings.HasPrefix(strings.TrimSpace(e.Text), "/"):
			e.Kind = KindCommand
		default:
			e.Kind = KindText
		}
	}
	if e.Kind == KindCommand && e.Command == "" {
		e.Command, e.Args = ParseCommand(e.Text)
	}
	e.Command = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e.Command), "/"))
}

// ParseCommand splits "/name@bot rest of line" into "name" and "rest of line".
func ParseCommand(text string) (name, args string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", text
	}
	head, rest, _ := strings.Cut(text[1:], " ")
	head, _, _ = strings.Cut(head, "@")
	return strings.ToLower(head), strings.TrimSpace(rest)
}

// Attachment is a file delivered with a response.
type Attachment struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// Response is what the sender receives for one event.
type Response struct {
	// EventID is the originating event ID.
	EventID string `json:"event_id"`

	// UserID is the conversation the response belongs to.
	UserID string `json:"user_id"`

	// Message is the user-facing reply text.
	Message string `json:"message"`

	// Phase is the conversation phase after the event was handled.
	Phase string `json:"phase"`

	// Transcript is the text produced by audio transcription (empty for text input).
	Transcript string `json:"transcript,omitempty"`

	// Actions lists the replies the user can give next (e.g., "confirm", "edit").
	Actions []string `json:"actions,omitempty"`

	// Attachments carries the generated document, if any.
	Attachments []Attachment `json:"attachments,omitempty"`

	// Error is a stable code for failed events (e.g., "input_too_short").
	Error string `json:"error,omitempty"`

	// Cause is the underlying error for in-process callers.
	Cause error `json:"-"`
}
