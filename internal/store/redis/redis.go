// Package redis keeps conversation state in Redis. Each user's state is a
// JSON document under its own key, expired after a period of inactivity.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nadzzz/readmebot/internal/conversation"
)

const defaultPrefix = "readmebot:"

// Store implements conversation.Store and conversation.Archive.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// New connects to the Redis server at url (redis://host:port/db). A zero
// ttl keeps state until it is deleted.
func New(url string, ttl time.Duration) (*Store, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return NewWithClient(redis.NewClient(opt), defaultPrefix, ttl), nil
}

// NewWithClient wraps an existing client. Keys are namespaced by prefix.
func NewWithClient(client *redis.Client, prefix string, ttl time.Duration) *Store {
	return &Store{client: client, prefix: prefix, ttl: ttl}
}

func (s *Store) stateKey(userID string) string { return s.prefix + "state:" + userID }
func (s *Store) sessionKey(id string) string { return s.prefix + "session:" + id }
func (s *Store) ratingsKey(sessionID string) string { return s.prefix + "ratings:" + sessionID }

// Get loads a user's state.
func (s *Store) Get(ctx context.Context, userID string) (*conversation.State, error) {
	data, err := s.client.Get(ctx, s.stateKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, conversation.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var st conversation.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decoding state for %s: %w", userID, err)
	}
	return &st, nil
}

// Put stores a user's state and refreshes its expiry.
func (s *Store) Put(ctx context.Context, st *conversation.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	if err := s.client.Set(ctx, s.stateKey(st.UserID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes a user's state.
func (s *Store) Delete(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, s.stateKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// SaveSession archives a finished session without expiry.
func (s *Store) SaveSession(ctx context.Context, sess conversation.ArchivedSession) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := s.client.Set(ctx, s.sessionKey(sess.SessionID), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// SaveRating appends a rating to its session's list.
func (s *Store) SaveRating(ctx context.Context, r conversation.Rating) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding rating: %w", err)
	}
	if err := s.client.RPush(ctx, s.ratingsKey(r.SessionID), data).Err(); err != nil {
		return fmt.Errorf("redis rpush: %w", err)
	}
	return nil
}

// Ratings returns the ratings recorded for a session.
func (s *Store) Ratings(ctx context.Context, sessionID string) ([]conversation.Rating, error) {
	raw, err := s.client.LRange(ctx, s.ratingsKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange: %w", err)
	}
	out := make([]conversation.Rating, 0, len(raw))
	for _, item := range raw {
		var r conversation.Rating
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			return nil, fmt.Errorf("decoding rating: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}
