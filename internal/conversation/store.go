package conversation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nadzzz/readmebot/internal/extraction"
	"github.com/nadzzz/readmebot/internal/profile"
)

// ErrNotFound is returned by Store.Get for unknown users. The Machine
// treats it as a fresh conversation.
var ErrNotFound = errors.New("conversation state not found")

// Store persists conversation state. Implementations must be safe for
// concurrent use; the Machine already serializes access per user.
type Store interface {
	Get(ctx context.Context, userID string) (*State, error)
	Put(ctx context.Context, state *State) error
	Delete(ctx context.Context, userID string) error
}

// ArchivedSession is the record kept once a README has been delivered.
type ArchivedSession struct {
	SessionID   string            `json:"session_id"`
	UserID      string            `json:"user_id"`
	Profile     profile.Profile   `json:"profile"`
	Skills      []profile.Skill   `json:"skills"`
	Extraction  extraction.Result `json:"extraction"`
	Document    []byte            `json:"document"`
	CompletedAt time.Time         `json:"completed_at"`
}

// Rating is user feedback on a delivered README.
type Rating struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Stars     int       `json:"stars"`
	Feedback  string    `json:"feedback,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Archive keeps finished sessions and their ratings.
type Archive interface {
	SaveSession(ctx context.Context, s ArchivedSession) error
	SaveRating(ctx context.Context, r Rating) error
}

// MemoryStore is an in-process Store and Archive.
type MemoryStore struct {
	mu       sync.RWMutex
	states   map[string]*State
	sessions map[string]ArchivedSession
	ratings  []Rating
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states:   make(map[string]*State),
		sessions: make(map[string]ArchivedSession),
	}
}

// Get returns a copy of the stored state.
func (m *MemoryStore) Get(_ context.Context, userID string) (*State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.states[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

// Put stores a copy of state.
func (m *MemoryStore) Put(_ context.Context, state *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[state.UserID] = state.Clone()
	return nil
}

// Delete removes a user's state. Deleting an unknown user is not an error.
func (m *MemoryStore) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, userID)
	return nil
}

// SaveSession records a finished session.
func (m *MemoryStore) SaveSession(_ context.Context, s ArchivedSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.SessionID] = s
	return nil
}

// SaveRating records a rating.
func (m *MemoryStore) SaveRating(_ context.Context, r Rating) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ratings = append(m.ratings, r)
	return nil
}

// Session returns an archived session by ID.
func (m *MemoryStore) Session(id string) (ArchivedSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Ratings returns every recorded rating.
func (m *MemoryStore) Ratings() []Rating {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Rating(nil), m.ratings...)
}
