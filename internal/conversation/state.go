package conversation

import (
	"time"

	"github.com/google/uuid"

	"github.com/nadzzz/readmebot/internal/extraction"
	"github.com/nadzzz/readmebot/internal/profile"
)

// State is everything remembered about one user's conversation. It is
// mutated only by the Machine, one event at a time per user.
type State struct {
	UserID    string             `json:"user_id"`
	SessionID string             `json:"session_id"`
	Phase     Phase              `json:"phase"`
	Profile   profile.Profile    `json:"profile"`
	Pending   *extraction.Result `json:"pending_extraction,omitempty"`
	Source    string             `json:"source_text,omitempty"`
	Skills    []profile.Skill    `json:"skills,omitempty"`
	Revision  int64              `json:"revision"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// NewState returns a fresh conversation at the start of the flow.
func NewState(userID string, now time.Time) *State {
	return &State{
		UserID:    userID,
		SessionID: uuid.NewString(),
		Phase:     PhaseAwaitingProfileInfo,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	c := *s
	if s.Pending != nil {
		p := s.Pending.Clone()
		c.Pending = &p
	}
	c.Skills = append([]profile.Skill(nil), s.Skills...)
	return &c
}
