// Package providertest provides scripted Transcriber and Extractor fakes.
package providertest

import (
	"context"
	"sync"

	"github.com/nadzzz/readmebot/internal/extraction"
)

// Transcriber returns scripted results, one per call. Once the script is
// exhausted the last entry repeats.
type Transcriber struct {
	ID     string
	Script []TranscribeStep
	// Formats, when set, is reported by AudioFormats.
	Formats []string

	mu    sync.Mutex
	calls int
}

// TranscribeStep is one scripted Transcribe outcome.
type TranscribeStep struct {
	Text string
	Err  error
	// Block, when set, waits for ctx to be done and returns its error.
	Block bool
}

// Name returns the fake's identifier.
func (t *Transcriber) Name() string { return t.ID }

// AudioFormats returns Formats.
func (t *Transcriber) AudioFormats() []string { return t.Formats }

// Transcribe plays the next step of the script.
func (t *Transcriber) Transcribe(ctx context.Context, _ []byte, _ string) (string, error) {
	t.mu.Lock()
	step := t.Script[min(t.calls, len(t.Script)-1)]
	t.calls++
	t.mu.Unlock()

	if step.Block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return step.Text, step.Err
}

// Calls returns how many times Transcribe ran.
func (t *Transcriber) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

// Extractor returns scripted results, one per call. Once the script is
// exhausted the last entry repeats.
type Extractor struct {
	ID     string
	Script []ExtractStep

	mu     sync.Mutex
	calls  int
	inputs []string
}

// ExtractStep is one scripted Extract outcome.
type ExtractStep struct {
	Result extraction.Result
	Err    error
	Block  bool
}

// Name returns the fake's identifier.
func (e *Extractor) Name() string { return e.ID }

// Extract plays the next step of the script.
func (e *Extractor) Extract(ctx context.Context, text string) (extraction.Result, error) {
	e.mu.Lock()
	step := e.Script[min(e.calls, len(e.Script)-1)]
	e.calls++
	e.inputs = append(e.inputs, text)
	e.mu.Unlock()

	if step.Block {
		<-ctx.Done()
		return extraction.Result{}, ctx.Err()
	}
	return step.Result.Clone(), step.Err
}

// Calls returns how many times Extract ran.
func (e *Extractor) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// Inputs returns the texts passed to Extract.
func (e *Extractor) Inputs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.inputs...)
}
