package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/readmebot/internal/conversation"
	"github.com/nadzzz/readmebot/internal/extraction"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("READMEBOT_TEST_REDIS_URL")
	if url == "" {
		t.Skip("READMEBOT_TEST_REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opt)
	prefix := "readmebot-test:" + uuid.NewString() + ":"
	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := client.Keys(ctx, prefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})
	s := NewWithClient(client, prefix, time.Minute)
	require.NoError(t, s.Ping(context.Background()))
	return s
}

func TestStore_StateRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "u")
	assert.ErrorIs(t, err, conversation.ErrNotFound)

	st := conversation.NewState("u", time.Now().UTC().Truncate(time.Second))
	st.Phase = conversation.PhaseAwaitingConfirmation
	st.Profile.Name = "Ada Lovelace"
	st.Pending = &extraction.Result{Languages: []string{"go"}}
	require.NoError(t, s.Put(ctx, st))

	got, err := s.Get(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, st.SessionID, got.SessionID)
	assert.Equal(t, conversation.PhaseAwaitingConfirmation, got.Phase)
	assert.Equal(t, []string{"go"}, got.Pending.Languages)

	ttl, err := s.client.TTL(ctx, s.stateKey("u")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, s.Delete(ctx, "u"))
	_, err = s.Get(ctx, "u")
	assert.ErrorIs(t, err, conversation.ErrNotFound)
}

func TestStore_Archive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSession(ctx, conversation.ArchivedSession{SessionID: "s1", UserID: "u", Document: []byte("# hi")}))
	require.NoError(t, s.SaveRating(ctx, conversation.Rating{ID: "r1", SessionID: "s1", Stars: 4}))
	require.NoError(t, s.SaveRating(ctx, conversation.Rating{ID: "r2", SessionID: "s1", Stars: 5}))

	ratings, err := s.Ratings(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, ratings, 2)
	assert.Equal(t, 5, ratings[1].Stars)
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New("not a url", 0)
	assert.Error(t, err)
}
