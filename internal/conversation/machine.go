// Package conversation implements the per-user state machine that turns a
// sequence of events into a profile README:
//
//	AWAITING_PROFILE_INFO -> AWAITING_CONTENT_INPUT -> AWAITING_CONFIRMATION -> TERMINAL
//	                                 ^                          |
//	                                 +---------- edit ----------+
//
// Events for the same user are handled one at a time; different users
// never block each other.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nadzzz/readmebot/internal/document"
	"github.com/nadzzz/readmebot/internal/extraction"
	"github.com/nadzzz/readmebot/internal/icon"
	"github.com/nadzzz/readmebot/internal/message"
	"github.com/nadzzz/readmebot/internal/profile"
	"github.com/nadzzz/readmebot/internal/provider"
)

// Errors reported in responses for input that does not fit the current phase.
var (
	ErrUnexpectedInput   = errors.New("input not expected in this phase")
	ErrUnknownCommand    = errors.New("unknown command")
	ErrMissingArguments  = errors.New("command needs arguments")
	ErrInvalidRating     = errors.New("rating must be a number from 1 to 5")
	ErrIllegalTransition = errors.New("illegal phase transition")
	ErrMissingUser       = errors.New("event has no user id")
)

// reviewActions are offered while an extraction awaits confirmation.
var reviewActions = []string{"confirm", "edit", "regenerate"}

// Categorizer assigns a category to a known technology name.
type Categorizer interface {
	Category(name string) (profile.Category, bool)
}

// Config wires a Machine to its collaborators.
type Config struct {
	Store       Store
	Archive     Archive // optional
	Transcriber provider.Transcriber
	Extractor   provider.Extractor
	Assembler   document.Assembler
	Icons       icon.Resolver
	Categorizer Categorizer // optional; uncategorized /add items become skills
	Normalizer  extraction.Normalizer

	// RequiredFields must be filled before content input is accepted.
	RequiredFields []profile.Field

	// Limits bounds audio and text input. Formats lists the accepted audio
	// formats; anything else is rejected before a provider is called.
	Limits provider.Limits

	// Now defaults to time.Now.
	Now func() time.Time
}

// Machine is the conversation engine.
type Machine struct {
	cfg   Config
	locks KeyedMutex
}

// New validates cfg and returns a Machine.
func New(cfg Config) (*Machine, error) {
	switch {
	case cfg.Store == nil:
		return nil, errors.New("conversation: store is required")
	case cfg.Extractor == nil:
		return nil, errors.New("conversation: extractor is required")
	case cfg.Assembler == nil:
		return nil, errors.New("conversation: assembler is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Machine{cfg: cfg}, nil
}

// Handle processes one event and returns the reply for the sender.
// Input problems and provider failures are reported in the response and
// leave the state unchanged; only store failures return an error.
func (m *Machine) Handle(ctx context.Context, ev *message.Event) (*message.Response, error) {
	if ev.UserID == "" {
		return nil, ErrMissingUser
	}
	unlock := m.locks.Lock(ev.UserID)
	defer unlock()

	st, fresh, err := m.load(ctx, ev.UserID)
	if err != nil {
		return nil, err
	}

	t := &turn{
		m:     m,
		ctx:   ctx,
		ev:    ev,
		st:    st,
		dirty: fresh,
		resp:  &message.Response{EventID: ev.ID, UserID: ev.UserID},
		log:   slog.With("user_id", ev.UserID, "event_id", ev.ID, "phase", st.Phase),
	}

	if ev.Kind == message.KindCommand && isRestart(ev.Command) {
		return t.restart()
	}

	t.run()

	if t.dirty {
		st.Revision++
		st.UpdatedAt = m.cfg.Now()
		if err := m.cfg.Store.Put(ctx, st); err != nil {
			return nil, fmt.Errorf("saving conversation state: %w", err)
		}
	}
	t.resp.Phase = string(st.Phase)
	return t.resp, nil
}

func (m *Machine) load(ctx context.Context, userID string) (*State, bool, error) {
	st, err := m.cfg.Store.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return NewState(userID, m.cfg.Now()), true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("loading conversation state: %w", err)
	}
	if !st.Phase.Valid() {
		slog.Warn("discarding state with unknown phase", "user_id", userID, "phase", st.Phase)
		return NewState(userID, m.cfg.Now()), true, nil
	}
	return st, false, nil
}

// turn is the handling of a single event.
type turn struct {
	m     *Machine
	ctx   context.Context
	ev    *message.Event
	st    *State
	dirty bool
	resp  *message.Response
	log   *slog.Logger
}

func (t *turn) reply(msg string, actions ...string) {
	t.resp.Message = msg
	t.resp.Actions = actions
}

func (t *turn) fail(err error, msg string) {
	t.resp.Message = msg
	t.resp.Error = ErrorCode(err)
	t.resp.Cause = err
	if provider.IsRequestDefect(err) || isUserError(err) {
		t.log.Info("event rejected", "error", err)
	} else {
		t.log.Warn("event failed", "error", err)
	}
}

func (t *turn) advance(to Phase) bool {
	if !CanTransition(t.st.Phase, to) {
		err := fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, t.st.Phase, to)
		t.log.Error("refusing phase change", "error", err)
		t.fail(err, replyInternal)
		return false
	}
	t.log.Info("phase changed", "from", t.st.Phase, "to", to)
	t.st.Phase = to
	t.dirty = true
	return true
}

func (t *turn) restart() (*message.Response, error) {
	if err := t.m.cfg.Store.Delete(t.ctx, t.ev.UserID); err != nil {
		return nil, fmt.Errorf("deleting conversation state: %w", err)
	}
	st := NewState(t.ev.UserID, t.m.cfg.Now())
	if err := t.m.cfg.Store.Put(t.ctx, st); err != nil {
		return nil, fmt.Errorf("saving conversation state: %w", err)
	}
	t.log.Info("conversation restarted", "session_id", st.SessionID)
	t.reply(welcome(t.m.cfg.RequiredFields))
	t.resp.Phase = string(st.Phase)
	return t.resp, nil
}

func (t *turn) run() {
	if t.ev.Kind == message.KindCommand {
		switch t.ev.Command {
		case "help":
			t.reply(replyHelp)
			return
		case "status":
			t.reply(status(t.st, t.m.cfg.RequiredFields))
			return
		}
	}

	switch t.st.Phase {
	case PhaseAwaitingProfileInfo:
		t.profileInfo()
	case PhaseAwaitingContentInput:
		t.contentInput()
	case PhaseAwaitingConfirmation:
		t.confirmation()
	case PhaseTerminal:
		t.terminal()
	}
}

func (t *turn) unknownCommand() {
	t.fail(fmt.Errorf("%w: /%s", ErrUnknownCommand, t.ev.Command), replyUnknownCommand)
}

// profileInfo collects profile fields until every required one is present.
func (t *turn) profileInfo() {
	required := t.m.cfg.RequiredFields
	switch t.ev.Kind {
	case message.KindAudio:
		t.fail(ErrUnexpectedInput, replyProfileAsText)
		return
	case message.KindCommand:
		if t.ev.Command != "skip" {
			if isFlowCommand(t.ev.Command) {
				t.fail(ErrUnexpectedInput, askProfile(t.st.Profile.Missing(required)))
				return
			}
			t.unknownCommand()
			return
		}
		if missing := t.st.Profile.Missing(required); len(missing) > 0 {
			t.fail(ErrUnexpectedInput, askProfile(missing))
			return
		}
		if t.advance(PhaseAwaitingContentInput) {
			t.reply(askContent(t.m.cfg.Limits.MinTextLength))
		}
		return
	}

	assignments, err := profile.ParseInput(t.ev.Text, t.st.Profile.Missing(required))
	if err != nil {
		t.fail(err, replyProfileFormat)
		return
	}
	updated, err := t.st.Profile.With(assignments)
	if err != nil {
		t.fail(err, invalidProfile(err))
		return
	}
	if updated != t.st.Profile {
		t.st.Profile = updated
		t.dirty = true
	}

	if missing := updated.Missing(required); len(missing) > 0 {
		t.reply(savedProfile(updated, missing))
		return
	}
	if t.advance(PhaseAwaitingContentInput) {
		t.reply(savedProfile(updated, nil) + "\n\n" + askContent(t.m.cfg.Limits.MinTextLength))
	}
}

// contentInput accepts the self-description as text or audio.
func (t *turn) contentInput() {
	switch t.ev.Kind {
	case message.KindCommand:
		if isFlowCommand(t.ev.Command) {
			t.fail(ErrUnexpectedInput, askContent(t.m.cfg.Limits.MinTextLength))
			return
		}
		t.unknownCommand()
	case message.KindAudio:
		text, ok := t.transcribe()
		if !ok {
			return
		}
		t.resp.Transcript = text
		t.describe(text)
	default:
		if assignments, ok := profile.ParseKeyed(t.ev.Text); ok {
			if t.updateProfile(assignments) {
				t.reply(savedProfile(t.st.Profile, nil) + "\n\n" + askContent(t.m.cfg.Limits.MinTextLength))
			}
			return
		}
		t.describe(t.ev.Text)
	}
}

// updateProfile applies "field: value" lines sent after the profile phase.
// Required fields may be changed but not cleared.
func (t *turn) updateProfile(assignments []profile.Assignment) bool {
	updated, err := t.st.Profile.With(assignments)
	if err == nil {
		err = updated.Require(t.m.cfg.RequiredFields)
	}
	if err != nil {
		t.fail(err, invalidProfile(err))
		return false
	}
	if updated != t.st.Profile {
		t.st.Profile = updated
		t.dirty = true
	}
	return true
}

func (t *turn) transcribe() (string, bool) {
	format := provider.NormalizeFormat(t.ev.Format)
	if err := t.m.cfg.Limits.CheckAudio(t.ev.Audio, format); err != nil {
		t.fail(err, audioRejected(err, t.m.cfg.Limits))
		return "", false
	}
	if t.m.cfg.Transcriber == nil {
		t.fail(&provider.ExhaustedError{Capability: "transcription"}, replyNoVoice)
		return "", false
	}

	text, err := t.m.cfg.Transcriber.Transcribe(t.ctx, t.ev.Audio, format)
	if err != nil {
		t.fail(err, providerFailed(err))
		return "", false
	}
	t.log.Info("audio transcribed", "bytes", len(t.ev.Audio), "format", format, "text_length", len(text))
	return text, true
}

func (t *turn) describe(text string) {
	textLimits := provider.Limits{
		MinTextLength: t.m.cfg.Limits.MinTextLength,
		MaxTextLength: t.m.cfg.Limits.MaxTextLength,
	}
	if err := textLimits.CheckText(text); err != nil {
		t.fail(err, textRejected(err, textLimits))
		return
	}

	clean, ok := t.extract(text)
	if !ok {
		return
	}
	if t.advance(PhaseAwaitingConfirmation) {
		t.st.Pending = &clean
		t.st.Source = text
		t.reply(review(clean), reviewActions...)
	}
}

func (t *turn) extract(text string) (extraction.Result, bool) {
	raw, err := t.m.cfg.Extractor.Extract(t.ctx, text)
	if err != nil {
		t.fail(err, providerFailed(err))
		return extraction.Result{}, false
	}
	clean := t.m.cfg.Normalizer.Clean(raw)
	t.log.Info("extraction complete",
		"languages", len(clean.Languages), "skills", len(clean.Skills), "tools", len(clean.Tools))
	return clean, true
}

// confirmation reviews the pending extraction.
func (t *turn) confirmation() {
	switch t.ev.Kind {
	case message.KindAudio:
		t.fail(ErrUnexpectedInput, replyConfirmOrEdit)
		return
	case message.KindCommand:
		switch t.ev.Command {
		case "confirm":
			t.confirm()
		case "edit":
			t.edit()
		case "add":
			t.add(t.ev.Args)
		case "regenerate":
			t.regenerate()
		default:
			if isFlowCommand(t.ev.Command) {
				t.fail(ErrUnexpectedInput, replyConfirmOrEdit)
				return
			}
			t.unknownCommand()
		}
		return
	}

	if assignments, ok := profile.ParseKeyed(t.ev.Text); ok {
		if t.updateProfile(assignments) {
			t.reply(savedProfile(t.st.Profile, nil)+"\n\n"+review(t.pendingOrEmpty()), reviewActions...)
		}
		return
	}

	switch strings.ToLower(strings.Trim(strings.TrimSpace(t.ev.Text), ".!")) {
	case "confirm", "yes", "y", "approve", "looks good", "generate":
		t.confirm()
	case "edit", "no", "n", "redo", "change":
		t.edit()
	case "regenerate", "retry", "try again":
		t.regenerate()
	default:
		t.fail(ErrUnexpectedInput, replyConfirmOrEdit)
	}
}

func (t *turn) confirm() {
	pending := t.st.Pending
	if pending == nil {
		t.fail(fmt.Errorf("%w: no pending extraction", ErrUnexpectedInput), replyInternal)
		return
	}

	set := profile.NewSkillSet(t.st.Skills...)
	for _, sk := range pending.Flatten() {
		set.Add(sk)
	}
	skills := set.Items()
	bindings := icon.Bind(t.m.cfg.Icons, skills)

	doc, err := t.m.cfg.Assembler.Assemble(t.ctx, document.Input{
		Profile:   t.st.Profile,
		Summary:   pending.Summary,
		WorkingOn: pending.CurrentlyWorkingOn,
		Learning:  pending.CurrentlyLearning,
		OpenTo:    pending.OpenTo,
		FunFact:   pending.FunFact,
		Icons:     bindings,
	})
	if err != nil {
		t.fail(err, replyAssemblyFailed)
		return
	}

	if !t.advance(PhaseTerminal) {
		return
	}
	t.st.Skills = skills
	t.st.Pending = nil
	t.st.Source = ""
	t.archive(*pending, doc)

	t.resp.Attachments = []message.Attachment{{
		Name:        document.Filename,
		ContentType: document.ContentType,
		Data:        doc,
	}}
	t.reply(replyDone, "rate")
}

func (t *turn) archive(pending extraction.Result, doc []byte) {
	if t.m.cfg.Archive == nil {
		return
	}
	err := t.m.cfg.Archive.SaveSession(t.ctx, ArchivedSession{
		SessionID:   t.st.SessionID,
		UserID:      t.st.UserID,
		Profile:     t.st.Profile,
		Skills:      t.st.Skills,
		Extraction:  pending,
		Document:    doc,
		CompletedAt: t.m.cfg.Now(),
	})
	if err != nil {
		t.log.Error("archiving session failed", "session_id", t.st.SessionID, "error", err)
	}
}

func (t *turn) edit() {
	if t.advance(PhaseAwaitingContentInput) {
		t.st.Pending = nil
		t.st.Source = ""
		t.reply(replyEdit + "\n\n" + askContent(t.m.cfg.Limits.MinTextLength))
	}
}

func (t *turn) add(args string) {
	items := splitItems(args)
	if len(items) == 0 {
		t.fail(ErrMissingArguments, replyAddUsage)
		return
	}
	var pending extraction.Result
	if t.st.Pending != nil {
		pending = t.st.Pending.Clone()
	}
	for _, item := range items {
		cat := profile.CategorySkill
		if t.m.cfg.Categorizer != nil {
			if c, ok := t.m.cfg.Categorizer.Category(item); ok {
				cat = c
			}
		}
		pending.Append(cat, item)
	}
	clean := t.m.cfg.Normalizer.Clean(pending)
	t.st.Pending = &clean
	t.dirty = true
	t.reply(review(clean), reviewActions...)
}

// regenerate re-runs extraction on the last description. Items added with
// /add are replaced.
func (t *turn) regenerate() {
	if t.st.Source == "" {
		t.fail(fmt.Errorf("%w: no description to regenerate from", ErrUnexpectedInput), replyNothingToRegenerate)
		return
	}
	clean, ok := t.extract(t.st.Source)
	if !ok {
		return
	}
	t.st.Pending = &clean
	t.dirty = true
	t.reply(review(clean), reviewActions...)
}

func (t *turn) pendingOrEmpty() extraction.Result {
	if t.st.Pending == nil {
		return extraction.Result{}
	}
	return *t.st.Pending
}

// terminal only accepts ratings; the document has been delivered.
func (t *turn) terminal() {
	if t.ev.Kind != message.KindCommand || t.ev.Command != "rate" {
		if t.ev.Kind == message.KindCommand && !isFlowCommand(t.ev.Command) {
			t.unknownCommand()
			return
		}
		t.reply(replyAlreadyDone, "rate")
		return
	}

	starsText, feedback, _ := strings.Cut(strings.TrimSpace(t.ev.Args), " ")
	stars, err := strconv.Atoi(starsText)
	if err != nil || stars < 1 || stars > 5 {
		t.fail(ErrInvalidRating, replyRateUsage)
		return
	}
	if t.m.cfg.Archive != nil {
		err := t.m.cfg.Archive.SaveRating(t.ctx, Rating{
			ID:        uuid.NewString(),
			SessionID: t.st.SessionID,
			UserID:    t.st.UserID,
			Stars:     stars,
			Feedback:  strings.TrimSpace(feedback),
			CreatedAt: t.m.cfg.Now(),
		})
		if err != nil {
			t.log.Error("saving rating failed", "error", err)
			t.fail(err, replyInternal)
			return
		}
	}
	t.log.Info("rating recorded", "stars", stars)
	t.reply(thanks(stars))
}

func isFlowCommand(cmd string) bool {
	switch cmd {
	case "start", "reset", "cancel", "help", "status", "skip", "confirm", "edit", "add", "regenerate", "rate":
		return true
	}
	return false
}

// isRestart reports commands that discard the conversation.
func isRestart(cmd string) bool {
	return cmd == "start" || cmd == "reset" || cmd == "cancel"
}

func splitItems(s string) []string {
	s = strings.ReplaceAll(s, " and ", ",")
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' || r == '\n' })
	var out []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
