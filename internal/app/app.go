// Package app wires configuration into a running readmebot daemon: stores,
// provider backends, the conversation engine, the dispatcher, transports and
// the health server.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nadzzz/readmebot/internal/catalog"
	"github.com/nadzzz/readmebot/internal/config"
	"github.com/nadzzz/readmebot/internal/conversation"
	"github.com/nadzzz/readmebot/internal/dispatch"
	"github.com/nadzzz/readmebot/internal/document"
	"github.com/nadzzz/readmebot/internal/extraction"
	"github.com/nadzzz/readmebot/internal/health"
	"github.com/nadzzz/readmebot/internal/message"
	"github.com/nadzzz/readmebot/internal/profile"
	"github.com/nadzzz/readmebot/internal/provider"
	"github.com/nadzzz/readmebot/internal/transport"
)

// JanitorInterval is how often expired SQL state is purged.
const JanitorInterval = 10 * time.Minute

// App is an assembled daemon.
type App struct {
	cfg        *config.Config
	machine    *conversation.Machine
	dispatcher *dispatch.Dispatcher
	health     *health.Server
	transports []transport.Transport
	janitor    expirer
	closers    []io.Closer
}

type expirer interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// New builds the daemon from cfg. Transports are created but not started.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{cfg: cfg, health: health.New(cfg.Server.HealthPort)}

	st, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	selector, hasTranscriber, err := a.buildSelector(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	cat := catalog.Default()
	assembler, err := document.NewMarkdown(cfg.Icons.CDNBase)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("document assembler: %w", err)
	}

	required, err := requiredFields(cfg.Conversation.RequiredFields)
	if err != nil {
		a.Close()
		return nil, err
	}

	mcfg := conversation.Config{
		Store:          st.store,
		Archive:        st.archive,
		Extractor:      selector,
		Assembler:      assembler,
		Icons:          cat,
		Categorizer:    cat,
		Normalizer:     extraction.Normalizer{MaxPerCategory: cfg.Conversation.MaxSkillsPerCategory},
		RequiredFields: required,
		Limits: provider.Limits{
			Formats:       cfg.Conversation.AudioFormats,
			MaxAudioBytes: cfg.Conversation.MaxAudioBytes,
			MinTextLength: cfg.Conversation.MinTextLength,
			MaxTextLength: cfg.Conversation.MaxTextLength,
		},
	}
	if hasTranscriber {
		mcfg.Transcriber = selector
		mcfg.Limits.Formats, err = narrowFormats(cfg.Conversation.AudioFormats, selector.AudioFormats())
		if err != nil {
			a.Close()
			return nil, err
		}
	}
	a.machine, err = conversation.New(mcfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.dispatcher = dispatch.New(a.machine)

	a.transports, err = a.buildTransports()
	if err != nil {
		a.Close()
		return nil, err
	}

	slog.Info("readmebot assembled",
		"store", cfg.Store.Backend,
		"transcription", selector.Transcribers(),
		"extraction", selector.Extractors(),
		"catalog_entries", cat.Len())
	return a, nil
}

// Handle runs one event through the dispatcher.
func (a *App) Handle(ctx context.Context, ev *message.Event) (*message.Response, error) {
	return a.dispatcher.Handle(ctx, ev)
}

// Health returns the health server.
func (a *App) Health() *health.Server { return a.health }

// Transports lists the enabled transports.
func (a *App) Transports() []transport.Transport { return a.transports }

// Run starts the health server, every transport and the janitor, and blocks
// until ctx is cancelled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	if len(a.transports) == 0 {
		return errors.New("no transports enabled, enable at least one in config")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.health.ListenAndServe(gctx) })

	for _, t := range a.transports {
		g.Go(func() error {
			slog.Info("starting transport", "name", t.Name())
			if err := t.Listen(gctx, a.dispatcher.Handle); err != nil {
				return fmt.Errorf("transport %s: %w", t.Name(), err)
			}
			return nil
		})
	}

	if a.janitor != nil {
		g.Go(func() error {
			a.runJanitor(gctx, JanitorInterval)
			return nil
		})
	}

	a.health.SetReady(true)
	slog.Info("readmebot ready",
		"transports", len(a.transports),
		"health_port", a.cfg.Server.HealthPort)

	err := g.Wait()
	a.health.SetReady(false)
	return err
}

func (a *App) runJanitor(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.sweep(ctx)
		}
	}
}

func (a *App) sweep(ctx context.Context) {
	n, err := a.janitor.DeleteExpired(ctx)
	if err != nil {
		slog.Error("purging expired conversations failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("purged expired conversations", "count", n)
	}
}

// Close releases transports, provider clients and stores.
func (a *App) Close() error {
	var errs []error
	for _, t := range a.transports {
		if err := t.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing transport %s: %w", t.Name(), err))
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// narrowFormats keeps the configured formats at least one transcriber
// accepts. A nil supported list accepts everything.
func narrowFormats(configured, supported []string) ([]string, error) {
	if supported == nil {
		return configured, nil
	}
	var kept, dropped []string
	for _, f := range configured {
		if provider.SupportsFormat(supported, f) {
			kept = append(kept, f)
		} else {
			dropped = append(dropped, f)
		}
	}
	if len(dropped) > 0 {
		slog.Warn("audio formats not accepted by any transcriber, disabling", "formats", dropped)
	}
	if len(configured) > 0 && len(kept) == 0 {
		return nil, fmt.Errorf("conversation.audio_formats: none of %v is accepted by the configured transcribers", configured)
	}
	return kept, nil
}

func requiredFields(names []string) ([]profile.Field, error) {
	out := make([]profile.Field, 0, len(names))
	for _, n := range names {
		f, ok := profile.ParseField(n)
		if !ok {
			return nil, fmt.Errorf("conversation.required_fields: unknown field %q", n)
		}
		out = append(out, f)
	}
	return out, nil
}
