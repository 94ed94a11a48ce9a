package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/nadzzz/readmebot/internal/extraction"
)

// Selector tries backends in order. A transient failure moves on to the
// next backend, a request defect is returned immediately, and when every
// backend fails the caller gets an *ExhaustedError listing each failure.
//
// Selector itself implements Transcriber and Extractor.
type Selector struct {
	transcribers []Transcriber
	extractors   []Extractor
	timeout      time.Duration
}

// NewSelector creates a Selector. A zero timeout leaves per-call deadlines
// to the caller's context.
func NewSelector(transcribers []Transcriber, extractors []Extractor, timeout time.Duration) *Selector {
	return &Selector{
		transcribers: transcribers,
		extractors:   extractors,
		timeout:      timeout,
	}
}

// Name returns the backend identifier.
func (s *Selector) Name() string { return "selector" }

// Transcribers returns the configured transcription order.
func (s *Selector) Transcribers() []string {
	names := make([]string, 0, len(s.transcribers))
	for _, t := range s.transcribers {
		names = append(names, t.Name())
	}
	return names
}

// Extractors returns the configured extraction order.
func (s *Selector) Extractors() []string {
	names := make([]string, 0, len(s.extractors))
	for _, e := range s.extractors {
		names = append(names, e.Name())
	}
	return names
}

// AudioFormats returns the formats at least one transcriber accepts, or nil
// when some transcriber accepts any format.
func (s *Selector) AudioFormats() []string {
	var out []string
	for _, t := range s.transcribers {
		formats := formatsOf(t)
		if len(formats) == 0 {
			return nil
		}
		for _, f := range formats {
			if !slices.Contains(out, f) {
				out = append(out, f)
			}
		}
	}
	return out
}

// Transcribe runs the transcription chain over the backends that accept
// format. When none does, it fails with ErrUnsupportedFormat.
func (s *Selector) Transcribe(ctx context.Context, audio []byte, format string) (string, error) {
	var eligible []Transcriber
	for _, t := range s.transcribers {
		if formats := formatsOf(t); len(formats) == 0 || SupportsFormat(formats, format) {
			eligible = append(eligible, t)
		}
	}
	if len(s.transcribers) > 0 && len(eligible) == 0 {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	names := make([]string, 0, len(eligible))
	for _, t := range eligible {
		names = append(names, t.Name())
	}
	return try(ctx, "transcription", names, s.timeout, func(ctx context.Context, i int) (string, error) {
		text, err := eligible[i].Transcribe(ctx, audio, format)
		if err == nil && text == "" {
			err = fmt.Errorf("%w: empty transcript", ErrTranscriptionFailed)
		}
		return text, err
	})
}

func formatsOf(t Transcriber) []string {
	if fl, ok := t.(FormatLister); ok {
		return fl.AudioFormats()
	}
	return nil
}

// Extract runs the extraction chain.
func (s *Selector) Extract(ctx context.Context, text string) (extraction.Result, error) {
	names := s.Extractors()
	return try(ctx, "extraction", names, s.timeout, func(ctx context.Context, i int) (extraction.Result, error) {
		return s.extractors[i].Extract(ctx, text)
	})
}

func try[T any](ctx context.Context, capability string, names []string, timeout time.Duration, call func(context.Context, int) (T, error)) (T, error) {
	var zero T
	exhausted := &ExhaustedError{Capability: capability}

	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		logger := slog.With("capability", capability, "provider", name, "attempt", i+1)
		start := time.Now()

		v, err := callWithTimeout(ctx, timeout, i, call)
		if err == nil {
			logger.Debug("provider call succeeded", "duration", time.Since(start))
			return v, nil
		}

		if ctx.Err() != nil {
			// The caller gave up; not this backend's fault.
			return zero, ctx.Err()
		}
		if IsRequestDefect(err) {
			logger.Info("provider rejected input", "error", err)
			return zero, err
		}

		logger.Warn("provider call failed, trying next", "error", err, "duration", time.Since(start))
		exhausted.Failures = append(exhausted.Failures, Failure{Provider: name, Err: err})
	}

	return zero, exhausted
}

func callWithTimeout[T any](ctx context.Context, timeout time.Duration, i int, call func(context.Context, int) (T, error)) (T, error) {
	if timeout <= 0 {
		return call(ctx, i)
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	v, err := call(callCtx, i)
	if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return v, fmt.Errorf("%w after %s: %v", ErrTimeout, timeout, err)
	}
	return v, err
}
