package provider

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Limits are the input bounds a backend enforces before calling out.
// Zero values disable the corresponding check.
type Limits struct {
	Formats       []string
	MaxAudioBytes int
	MinTextLength int
	MaxTextLength int
}

// CheckAudio validates an audio payload against the limits.
func (l Limits) CheckAudio(audio []byte, format string) error {
	if len(l.Formats) > 0 && !SupportsFormat(l.Formats, format) {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if l.MaxAudioBytes > 0 && len(audio) > l.MaxAudioBytes {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrInputTooLarge, len(audio), l.MaxAudioBytes)
	}
	if len(audio) == 0 {
		return fmt.Errorf("%w: empty audio", ErrTranscriptionFailed)
	}
	return nil
}

// CheckText validates a self-description against the limits. Length is
// counted in characters, not bytes.
func (l Limits) CheckText(text string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	if l.MinTextLength > 0 && n < l.MinTextLength {
		return fmt.Errorf("%w: %d characters, need at least %d", ErrInputTooShort, n, l.MinTextLength)
	}
	if l.MaxTextLength > 0 && n > l.MaxTextLength {
		return fmt.Errorf("%w: %d characters exceeds %d", ErrInputTooLarge, n, l.MaxTextLength)
	}
	return nil
}

// SupportsFormat reports whether format (in any spelling NormalizeFormat
// accepts) is in the allowed set.
func SupportsFormat(allowed []string, format string) bool {
	f := NormalizeFormat(format)
	if f == "" {
		return false
	}
	for _, a := range allowed {
		if NormalizeFormat(a) == f {
			return true
		}
	}
	return false
}

// NormalizeFormat maps a file extension or MIME type onto a canonical audio
// format name ("ogg", "mp3", "wav", "m4a", "flac", "webm").
// Unknown values are returned lower-cased without a leading dot.
func NormalizeFormat(format string) string {
	f := strings.ToLower(strings.TrimSpace(format))
	if i := strings.Index(f, ";"); i >= 0 {
		f = strings.TrimSpace(f[:i])
	}
	f = strings.TrimPrefix(f, ".")
	f = strings.TrimPrefix(f, "audio/")
	f = strings.TrimPrefix(f, "x-")
	switch f {
	case "oga", "opus", "vorbis":
		return "ogg"
	case "mpeg", "mpga", "mp3":
		return "mp3"
	case "wave", "vnd.wave":
		return "wav"
	case "mp4", "m4a", "aac":
		return "m4a"
	}
	return f
}

// MIMEType returns the MIME type for a canonical format.
func MIMEType(format string) string {
	switch f := NormalizeFormat(format); f {
	case "mp3":
		return "audio/mpeg"
	case "m4a":
		return "audio/mp4"
	case "":
		return "application/octet-stream"
	default:
		return "audio/" + f
	}
}
