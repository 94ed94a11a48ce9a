// Package sqlstore keeps conversation state and archived sessions in a SQL
// database: PostgreSQL through pgx, or SQLite through modernc.org/sqlite.
// The schema is managed with goose migrations embedded in the binary.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/nadzzz/readmebot/internal/conversation"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Dialects understood by Open.
const (
	Postgres = "postgres"
	SQLite   = "sqlite"
)

// Store implements conversation.Store and conversation.Archive.
type Store struct {
	db      *sql.DB
	dialect string
	ttl     time.Duration
	now     func() time.Time
}

// Open connects to the database. For SQLite, dsn is a file path or
// ":memory:". ttl expires states that have not been updated for that long;
// zero disables expiry. Migrations are not applied; call Migrate.
func Open(dialect, dsn string, ttl time.Duration) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("missing database dsn")
	}

	var (
		db  *sql.DB
		err error
	)
	switch dialect {
	case Postgres:
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	case SQLite:
		db, err = openSQLite(dsn)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported sql dialect %q", dialect)
	}
	return &Store{db: db, dialect: dialect, ttl: ttl, now: time.Now}, nil
}

func openSQLite(dsn string) (*sql.DB, error) {
	if dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One connection avoids "database is locked" and keeps :memory: a
	// single database.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA busy_timeout = 5000", "PRAGMA journal_mode=WAL"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return db, nil
}

// Migrate applies pending migrations, or rolls back the latest one when
// direction is "down". "status" logs the applied versions.
func (s *Store) Migrate(ctx context.Context, direction string) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetTableName("schema_migrations")
	dialect := "postgres"
	if s.dialect == SQLite {
		dialect = "sqlite3"
	}
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}

	switch direction {
	case "", "up":
		return goose.UpContext(ctx, s.db, "migrations")
	case "down":
		return goose.DownContext(ctx, s.db, "migrations")
	case "status":
		return goose.StatusContext(ctx, s.db, "migrations")
	}
	return fmt.Errorf("unknown migration direction %q", direction)
}

// Version returns the current schema version.
func (s *Store) Version(ctx context.Context) (int64, error) {
	goose.SetTableName("schema_migrations")
	return goose.GetDBVersionContext(ctx, s.db)
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB { return s.db }

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// rebind rewrites ? placeholders as $1, $2, ... for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	_, err := s.db.ExecContext(ctx, s.rebind(query), args...)
	return err
}

// Get loads a user's state. Expired states are reported as not found.
func (s *Store) Get(ctx context.Context, userID string) (*conversation.State, error) {
	var (
		data      string
		updatedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT data, updated_at FROM conversation_states WHERE user_id = ?`), userID,
	).Scan(&data, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, conversation.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query state: %w", err)
	}
	if s.expired(updatedAt) {
		return nil, conversation.ErrNotFound
	}

	var st conversation.State
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		return nil, fmt.Errorf("decoding state for %s: %w", userID, err)
	}
	return &st, nil
}

func (s *Store) expired(updatedAt int64) bool {
	return s.ttl > 0 && s.now().Sub(time.Unix(updatedAt, 0)) > s.ttl
}

// Put upserts a user's state.
func (s *Store) Put(ctx context.Context, st *conversation.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	err = s.exec(ctx, `
		INSERT INTO conversation_states (user_id, session_id, phase, revision, data, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			session_id = excluded.session_id,
			phase = excluded.phase,
			revision = excluded.revision,
			data = excluded.data,
			updated_at = excluded.updated_at`,
		st.UserID, st.SessionID, string(st.Phase), st.Revision, string(data), s.now().Unix())
	if err != nil {
		return fmt.Errorf("upsert state: %w", err)
	}
	return nil
}

// Delete removes a user's state.
func (s *Store) Delete(ctx context.Context, userID string) error {
	if err := s.exec(ctx, `DELETE FROM conversation_states WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete state: %w", err)
	}
	return nil
}

// DeleteExpired removes states older than the TTL and returns how many
// were removed.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.ttl).Unix()
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM conversation_states WHERE updated_at < ?`), cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired states: %w", err)
	}
	return res.RowsAffected()
}

// SaveSession archives a finished session.
func (s *Store) SaveSession(ctx context.Context, sess conversation.ArchivedSession) error {
	profile, err := json.Marshal(sess.Profile)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	skills, err := json.Marshal(sess.Skills)
	if err != nil {
		return fmt.Errorf("encoding skills: %w", err)
	}
	extraction, err := json.Marshal(sess.Extraction)
	if err != nil {
		return fmt.Errorf("encoding extraction: %w", err)
	}
	err = s.exec(ctx, `
		INSERT INTO sessions (session_id, user_id, profile, skills, extraction, document, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id) DO NOTHING`,
		sess.SessionID, sess.UserID, string(profile), string(skills), string(extraction),
		string(sess.Document), sess.CompletedAt.Unix())
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Session loads an archived session.
func (s *Store) Session(ctx context.Context, id string) (conversation.ArchivedSession, error) {
	var (
		sess                                  conversation.ArchivedSession
		profile, skills, extraction, document string
		completedAt                           int64
	)
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT session_id, user_id, profile, skills, extraction, document, completed_at
		FROM sessions WHERE session_id = ?`), id,
	).Scan(&sess.SessionID, &sess.UserID, &profile, &skills, &extraction, &document, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return sess, conversation.ErrNotFound
	}
	if err != nil {
		return sess, fmt.Errorf("query session: %w", err)
	}
	if err := json.Unmarshal([]byte(profile), &sess.Profile); err != nil {
		return sess, fmt.Errorf("decoding profile: %w", err)
	}
	if err := json.Unmarshal([]byte(skills), &sess.Skills); err != nil {
		return sess, fmt.Errorf("decoding skills: %w", err)
	}
	if err := json.Unmarshal([]byte(extraction), &sess.Extraction); err != nil {
		return sess, fmt.Errorf("decoding extraction: %w", err)
	}
	sess.Document = []byte(document)
	sess.CompletedAt = time.Unix(completedAt, 0).UTC()
	return sess, nil
}

// SaveRating records a rating.
func (s *Store) SaveRating(ctx context.Context, r conversation.Rating) error {
	err := s.exec(ctx, `
		INSERT INTO ratings (id, session_id, user_id, stars, feedback, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.SessionID, r.UserID, r.Stars, r.Feedback, r.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("insert rating: %w", err)
	}
	return nil
}

// Ratings returns the ratings of a session, oldest first.
func (s *Store) Ratings(ctx context.Context, sessionID string) ([]conversation.Rating, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, session_id, user_id, stars, feedback, created_at
		FROM ratings WHERE session_id = ? ORDER BY created_at, id`), sessionID)
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w", err)
	}
	defer rows.Close()

	var out []conversation.Rating
	for rows.Next() {
		var (
			r         conversation.Rating
			createdAt int64
		)
		if err := rows.Scan(&r.ID, &r.SessionID, &r.UserID, &r.Stars, &r.Feedback, &createdAt); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		r.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}
