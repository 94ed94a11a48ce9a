package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/readmebot/internal/message"
)

type engineFunc func(ctx context.Context, ev *message.Event) (*message.Response, error)

func (f engineFunc) Handle(ctx context.Context, ev *message.Event) (*message.Response, error) {
	return f(ctx, ev)
}

func TestDispatcher_AssignsIDAndNormalizes(t *testing.T) {
	var seen *message.Event
	d := New(engineFunc(func(_ context.Context, ev *message.Event) (*message.Response, error) {
		seen = ev
		return &message.Response{EventID: ev.ID, UserID: ev.UserID, Phase: "AWAITING_PROFILE_INFO"}, nil
	}))

	resp, err := d.Handle(context.Background(), &message.Event{UserID: "http:ada", Text: "/Start"})
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.NotEmpty(t, seen.ID)
	assert.False(t, seen.ReceivedAt.IsZero())
	assert.Equal(t, message.KindCommand, seen.Kind)
	assert.Equal(t, "start", seen.Command)
	assert.Equal(t, seen.ID, resp.EventID)
}

func TestDispatcher_KeepsCallerID(t *testing.T) {
	d := New(engineFunc(func(_ context.Context, ev *message.Event) (*message.Response, error) {
		return &message.Response{EventID: ev.ID}, nil
	}))
	resp, _ := d.Handle(context.Background(), &message.Event{ID: "ev-1", UserID: "u", Text: "hi"})
	assert.Equal(t, "ev-1", resp.EventID)
}

func TestDispatcher_RejectsInvalidEvents(t *testing.T) {
	called := false
	d := New(engineFunc(func(context.Context, *message.Event) (*message.Response, error) {
		called = true
		return &message.Response{}, nil
	}))

	tests := []struct {
		name string
		ev   *message.Event
		want error
	}{
		{"no user", &message.Event{Text: "hi"}, ErrMissingUser},
		{"blank text", &message.Event{UserID: "u", Text: "   "}, ErrEmptyEvent},
		{"audio kind without audio", &message.Event{UserID: "u", Kind: message.KindAudio}, ErrEmptyEvent},
		{"bare slash", &message.Event{UserID: "u", Text: "/"}, ErrEmptyEvent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := d.Handle(context.Background(), tt.ev)
			require.NoError(t, err)
			assert.Equal(t, codeInvalidEvent, resp.Error)
			assert.ErrorIs(t, resp.Cause, tt.want)
		})
	}

	resp, _ := d.Handle(context.Background(), &message.Event{UserID: "u", Kind: "video", Text: "x"})
	assert.Equal(t, codeInvalidEvent, resp.Error)
	assert.False(t, called)
}

func TestDispatcher_FoldsEngineErrors(t *testing.T) {
	d := New(engineFunc(func(context.Context, *message.Event) (*message.Response, error) {
		return nil, errors.New("store down")
	}))
	resp, err := d.Handle(context.Background(), &message.Event{UserID: "u", Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, codeInternal, resp.Error)
	assert.Equal(t, replyInternal, resp.Message)
	assert.EqualError(t, resp.Cause, "store down")
}
