// Package provider defines the speech-to-text and extraction contracts that
// every backend implements, the failure taxonomy they share, and the
// Selector that falls back across backends in configured order.
//
// Backends live in subpackages (openai, gemini, local, keyword). None of
// them carries conversation logic; they translate between the contract and
// a vendor API.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nadzzz/readmebot/internal/extraction"
)

// Transcriber converts recorded speech into text.
type Transcriber interface {
	// Name returns the backend identifier (e.g., "groq", "gemini").
	Name() string

	// Transcribe returns the spoken text of audio encoded as format
	// ("ogg", "mp3", ...).
	Transcribe(ctx context.Context, audio []byte, format string) (string, error)
}

// FormatLister is implemented by transcribers that accept a fixed set of
// audio formats. An empty list means any format.
type FormatLister interface {
	AudioFormats() []string
}

// Extractor turns a free-text self-description into structured data.
type Extractor interface {
	// Name returns the backend identifier.
	Name() string

	// Extract returns the raw (not yet normalized) extraction of text.
	Extract(ctx context.Context, text string) (extraction.Result, error)
}

// Request defects. These describe the input, so no other backend will do
// better and they are never retried.
var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrInputTooLarge     = errors.New("input too large")
	ErrInputTooShort     = errors.New("input too short")
)

// Transient failures. The Selector moves on to the next backend.
var (
	ErrTranscriptionFailed = errors.New("transcription failed")
	ErrExtractionFailed    = errors.New("extraction failed")
	ErrTimeout             = errors.New("provider call timed out")
	ErrMalformedResponse   = extraction.ErrMalformedResponse
)

// ErrAllProvidersExhausted matches an *ExhaustedError via errors.Is.
var ErrAllProvidersExhausted = errors.New("all providers exhausted")

// IsRequestDefect reports whether err is caused by the input itself.
func IsRequestDefect(err error) bool {
	return errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrInputTooLarge) ||
		errors.Is(err, ErrInputTooShort)
}

// IsTransient reports whether another backend might succeed where this one
// failed. Unclassified errors count as transient; context cancellation of
// the caller does not.
func IsTransient(err error) bool {
	if err == nil || IsRequestDefect(err) {
		return false
	}
	return !errors.Is(err, context.Canceled)
}

// Failure is one backend's failed attempt.
type Failure struct {
	Provider string
	Err      error
}

// ExhaustedError is returned by the Selector when every backend failed
// transiently.
type ExhaustedError struct {
	Capability string // "transcription" or "extraction"
	Failures   []Failure
}

func (e *ExhaustedError) Error() string {
	if len(e.Failures) == 0 {
		return fmt.Sprintf("%s: no providers configured", e.Capability)
	}
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Provider, f.Err))
	}
	return fmt.Sprintf("%s: all providers exhausted (%s)", e.Capability, strings.Join(parts, "; "))
}

// Is makes errors.Is(err, ErrAllProvidersExhausted) true.
func (e *ExhaustedError) Is(target error) bool {
	return target == ErrAllProvidersExhausted
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *ExhaustedError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}
