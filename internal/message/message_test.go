package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in       string
		wantName string
		wantArgs string
	}{
		{"/start", "start", ""},
		{"/ADD go, rust ", "add", "go, rust"},
		{"/rate@readme_bot 5 great bot", "rate", "5 great bot"},
		{"hello", "", "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			name, args := ParseCommand(tt.in)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestEvent_Normalize(t *testing.T) {
	audio := Event{Audio: []byte{1}, Text: "/start"}
	audio.Normalize()
	assert.Equal(t, KindAudio, audio.Kind)

	cmd := Event{Text: "  /Confirm"}
	cmd.Normalize()
	assert.Equal(t, KindCommand, cmd.Kind)
	assert.Equal(t, "confirm", cmd.Command)

	explicit := Event{Kind: KindCommand, Command: "/EDIT"}
	explicit.Normalize()
	assert.Equal(t, "edit", explicit.Command)

	text := Event{Text: "I write Go"}
	text.Normalize()
	assert.Equal(t, KindText, text.Kind)
	assert.Empty(t, text.Command)
}
