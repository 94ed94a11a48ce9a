package conversation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nadzzz/readmebot/internal/document"
	"github.com/nadzzz/readmebot/internal/extraction"
	"github.com/nadzzz/readmebot/internal/profile"
	"github.com/nadzzz/readmebot/internal/provider"
)

const (
	replyHelp = `I turn a description of yourself into a GitHub profile README.

1. Send your profile details, one per line, e.g.
   name: Ada Lovelace
   github: ada
   linkedin: https://linkedin.com/in/ada
2. Describe your work and skills in a message or a voice note.
3. Review what I found, then reply "confirm" or "edit". You can still fix
   profile details with "field: value" lines, or /regenerate to extract again.

Commands: /start /reset /cancel /status /skip /add /confirm /edit /regenerate /rate /help`

	replyUnknownCommand = "I don't know that command. Send /help to see what I can do."
	replyProfileAsText  = "Please send your profile details as text first. Voice notes come next."
	replyProfileFormat  = "I couldn't match that to a profile field. Send lines like \"name: Ada Lovelace\" or \"github: ada\"."
	replyNoVoice        = "Voice notes aren't available right now. Please type your description instead."
	replyConfirmOrEdit  = "Reply \"confirm\" to generate your README or \"edit\" to describe yourself again. Use /add to add missing items."
	replyAssemblyFailed = "Something went wrong while generating your README. Reply \"confirm\" to try again."
	replyDone           = "Your README is ready! Copy it into a repository named after your GitHub username.\n\nHow did I do? Send /rate 1-5 with optional feedback, or /start to make another."
	replyEdit           = "No problem, let's try again."
	replyAddUsage       = "Tell me what to add, e.g. /add docker, rust, graphql"
	replyAlreadyDone    = "Your README has already been generated. Send /rate 1-5 to leave feedback or /start to make a new one."
	replyRateUsage      = "Send a rating from 1 to 5, e.g. /rate 5 loved it"
	replyInternal       = "Something went wrong on my side. Please try again."

	replyNothingToRegenerate = "There's no description to regenerate from. Reply \"edit\" to describe yourself again."
)

func welcome(required []profile.Field) string {
	return "Hi! I'll help you build a GitHub profile README.\n\n" + askProfile(required)
}

func askProfile(missing []profile.Field) string {
	if len(missing) == 0 {
		return "Send any more profile details (github, linkedin, portfolio, email) or /skip to continue."
	}
	return fmt.Sprintf("Please send your %s. You can add more as \"field: value\" lines (github, linkedin, portfolio, email).",
		joinFields(missing))
}

func savedProfile(p profile.Profile, missing []profile.Field) string {
	var sb strings.Builder
	sb.WriteString("Saved:")
	for _, f := range profile.Fields {
		if v := p.Get(f); v != "" {
			fmt.Fprintf(&sb, "\n- %s: %s", f, v)
		}
	}
	if len(missing) > 0 {
		fmt.Fprintf(&sb, "\n\nStill needed: %s.", joinFields(missing))
	}
	return sb.String()
}

func invalidProfile(err error) string {
	var verr *profile.ValidationError
	if !errors.As(err, &verr) {
		return replyProfileFormat
	}
	var sb strings.Builder
	sb.WriteString("Nothing was saved, please fix:")
	for _, fe := range verr.Fields {
		fmt.Fprintf(&sb, "\n- %s: %s", fe.Field, fe.Reason)
	}
	return sb.String()
}

func askContent(minLength int) string {
	return fmt.Sprintf("Now tell me about yourself: your role, experience, the languages, frameworks and tools you use, "+
		"and what you're working on or learning. Type it (at least %d characters) or send a voice note.", minLength)
}

func audioRejected(err error, l provider.Limits) string {
	switch {
	case errors.Is(err, provider.ErrUnsupportedFormat):
		return fmt.Sprintf("I can't read that audio format. Supported formats: %s.", strings.Join(l.Formats, ", "))
	case errors.Is(err, provider.ErrInputTooLarge):
		return fmt.Sprintf("That recording is too large (limit %d MB). Please send a shorter one.", l.MaxAudioBytes>>20)
	}
	return "I couldn't understand that recording. Please try again or type your description."
}

func textRejected(err error, l provider.Limits) string {
	if errors.Is(err, provider.ErrInputTooLarge) {
		return fmt.Sprintf("That's a bit long. Please keep it under %d characters.", l.MaxTextLength)
	}
	return fmt.Sprintf("I need more detail to work with. Please write at least %d characters about your work and skills.",
		l.MinTextLength)
}

func providerFailed(err error) string {
	if provider.IsRequestDefect(err) {
		return "I couldn't process that input. Please try a different message."
	}
	return "I'm having trouble reaching my language services right now. Please send that again in a moment."
}

func review(r extraction.Result) string {
	var sb strings.Builder
	if r.Count() == 0 {
		sb.WriteString("I couldn't spot any specific technologies.")
	} else {
		sb.WriteString("Here's what I picked up:\n")
		writeList(&sb, "💻 Languages", r.Languages)
		writeList(&sb, "🛠️ Skills", r.Skills)
		writeList(&sb, "🧰 Tools", r.Tools)
	}
	if r.Summary != "" {
		fmt.Fprintf(&sb, "\n\n📝 %s", r.Summary)
	}
	sb.WriteString("\n\n")
	sb.WriteString(replyConfirmOrEdit)
	return sb.String()
}

func writeList(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n%s: %s", title, strings.Join(items, ", "))
}

func status(st *State, required []profile.Field) string {
	switch st.Phase {
	case PhaseAwaitingProfileInfo:
		return "Collecting your profile. " + askProfile(st.Profile.Missing(required))
	case PhaseAwaitingContentInput:
		return "Waiting for your description (text or voice)."
	case PhaseAwaitingConfirmation:
		return "Waiting for you to review what I found. " + replyConfirmOrEdit
	case PhaseTerminal:
		return replyAlreadyDone
	}
	return replyInternal
}

func thanks(stars int) string {
	return fmt.Sprintf("Thanks for the %s! Send /start whenever you want a new README.", strings.Repeat("⭐", stars))
}

func joinFields(fields []profile.Field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = string(f)
	}
	return strings.Join(parts, ", ")
}

// ErrorCode maps an error onto the stable code carried in responses.
func ErrorCode(err error) string {
	var verr *profile.ValidationError
	var rerr *document.RenderError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, provider.ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, provider.ErrInputTooLarge):
		return "input_too_large"
	case errors.Is(err, provider.ErrInputTooShort):
		return "input_too_short"
	case errors.As(err, &verr):
		return "invalid_profile"
	case errors.Is(err, profile.ErrUnrecognizedInput):
		return "unrecognized_input"
	case errors.Is(err, provider.ErrAllProvidersExhausted):
		return "providers_unavailable"
	case errors.Is(err, provider.ErrTimeout):
		return "timeout"
	case errors.As(err, &rerr):
		return "document_failed"
	case errors.Is(err, ErrUnexpectedInput):
		return "unexpected_input"
	case errors.Is(err, ErrUnknownCommand):
		return "unknown_command"
	case errors.Is(err, ErrMissingArguments):
		return "missing_arguments"
	case errors.Is(err, ErrInvalidRating):
		return "invalid_rating"
	}
	return "internal"
}

func isUserError(err error) bool {
	var verr *profile.ValidationError
	return errors.As(err, &verr) ||
		errors.Is(err, profile.ErrUnrecognizedInput) ||
		errors.Is(err, ErrUnexpectedInput) ||
		errors.Is(err, ErrUnknownCommand) ||
		errors.Is(err, ErrMissingArguments) ||
		errors.Is(err, ErrInvalidRating)
}
