package sqlstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/readmebot/internal/conversation"
	"github.com/nadzzz/readmebot/internal/extraction"
	"github.com/nadzzz/readmebot/internal/profile"
)

func openTestStore(t *testing.T, dialect, dsn string, ttl time.Duration) *Store {
	t.Helper()
	s, err := Open(dialect, dsn, ttl)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background(), "up"))
	return s
}

func sqliteStore(t *testing.T, ttl time.Duration) *Store {
	return openTestStore(t, SQLite, ":memory:", ttl)
}

func TestStore_StateRoundTrip(t *testing.T) {
	s := sqliteStore(t, 0)
	ctx := context.Background()

	_, err := s.Get(ctx, "u")
	assert.ErrorIs(t, err, conversation.ErrNotFound)

	st := conversation.NewState("u", time.Now())
	st.Profile = profile.Profile{Name: "Ada Lovelace", GitHub: "ada"}
	st.Phase = conversation.PhaseAwaitingConfirmation
	st.Pending = &extraction.Result{Languages: []string{"go"}, Summary: "hi"}
	require.NoError(t, s.Put(ctx, st))

	st.Revision = 2
	st.Pending.Summary = "updated"
	require.NoError(t, s.Put(ctx, st))

	got, err := s.Get(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, st.SessionID, got.SessionID)
	assert.Equal(t, int64(2), got.Revision)
	assert.Equal(t, "updated", got.Pending.Summary)
	assert.Equal(t, "ada", got.Profile.GitHub)

	require.NoError(t, s.Delete(ctx, "u"))
	require.NoError(t, s.Delete(ctx, "u"))
	_, err = s.Get(ctx, "u")
	assert.ErrorIs(t, err, conversation.ErrNotFound)
}

func TestStore_Expiry(t *testing.T) {
	s := sqliteStore(t, time.Hour)
	ctx := context.Background()
	now := time.Now()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Put(ctx, conversation.NewState("old", now)))
	now = now.Add(2 * time.Hour)
	require.NoError(t, s.Put(ctx, conversation.NewState("fresh", now)))

	_, err := s.Get(ctx, "old")
	assert.ErrorIs(t, err, conversation.ErrNotFound)
	_, err = s.Get(ctx, "fresh")
	assert.NoError(t, err)

	n, err := s.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestStore_Archive(t *testing.T) {
	s := sqliteStore(t, 0)
	ctx := context.Background()
	done := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	sess := conversation.ArchivedSession{
		SessionID:   "s1",
		UserID:      "u",
		Profile:     profile.Profile{Name: "Ada Lovelace"},
		Skills:      []profile.Skill{{Name: "go", Category: profile.CategoryLanguage}},
		Extraction:  extraction.Result{Summary: "Go developer."},
		Document:    []byte("# Hi\n"),
		CompletedAt: done,
	}
	require.NoError(t, s.SaveSession(ctx, sess))
	require.NoError(t, s.SaveSession(ctx, sess), "archiving twice is a no-op")

	got, err := s.Session(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, sess, got)

	_, err = s.Session(ctx, "missing")
	assert.ErrorIs(t, err, conversation.ErrNotFound)

	require.NoError(t, s.SaveRating(ctx, conversation.Rating{ID: "r1", SessionID: "s1", UserID: "u", Stars: 5, Feedback: "great", CreatedAt: done}))
	assert.Error(t, s.SaveRating(ctx, conversation.Rating{ID: "r2", SessionID: "s1", UserID: "u", Stars: 9, CreatedAt: done}))

	ratings, err := s.Ratings(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, ratings, 1)
	assert.Equal(t, "great", ratings[0].Feedback)
}

func TestStore_MigrateDownAndStatus(t *testing.T) {
	s := sqliteStore(t, 0)
	ctx := context.Background()

	v, err := s.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	require.NoError(t, s.Migrate(ctx, "status"))
	require.NoError(t, s.Migrate(ctx, "down"))
	v, err = s.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	assert.Error(t, s.Migrate(ctx, "sideways"))
}

func TestStore_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "readmebot.db")
	s := openTestStore(t, SQLite, path, 0)
	require.NoError(t, s.Put(context.Background(), conversation.NewState("u", time.Now())))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestStore_Postgres(t *testing.T) {
	dsn := os.Getenv("READMEBOT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("READMEBOT_TEST_POSTGRES_DSN not set")
	}
	s := openTestStore(t, Postgres, dsn, 0)
	ctx := context.Background()

	st := conversation.NewState("pg-user", time.Now())
	require.NoError(t, s.Put(ctx, st))
	got, err := s.Get(ctx, "pg-user")
	require.NoError(t, err)
	assert.Equal(t, st.SessionID, got.SessionID)
	require.NoError(t, s.Delete(ctx, "pg-user"))
}

func TestRebind(t *testing.T) {
	pg := &Store{dialect: Postgres}
	assert.Equal(t, "SELECT $1, $2", pg.rebind("SELECT ?, ?"))
	lite := &Store{dialect: SQLite}
	assert.Equal(t, "SELECT ?", lite.rebind("SELECT ?"))
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(SQLite, "", 0)
	assert.Error(t, err)
	_, err = Open("oracle", "dsn", 0)
	assert.Error(t, err)
}
