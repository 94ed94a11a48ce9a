package conversation

// Phase is the position of a user in the README flow.
type Phase string

const (
	PhaseAwaitingProfileInfo  Phase = "AWAITING_PROFILE_INFO"
	PhaseAwaitingContentInput Phase = "AWAITING_CONTENT_INPUT"
	PhaseAwaitingConfirmation Phase = "AWAITING_CONFIRMATION"
	PhaseTerminal             Phase = "TERMINAL"
)

// transitions lists the legal phase changes. The only backward edge is
// confirmation back to content input (edit). Restarting a conversation is
// not a transition: the state is discarded.
var transitions = map[Phase][]Phase{
	PhaseAwaitingProfileInfo:  {PhaseAwaitingContentInput},
	PhaseAwaitingContentInput: {PhaseAwaitingConfirmation},
	PhaseAwaitingConfirmation: {PhaseTerminal, PhaseAwaitingContentInput},
	PhaseTerminal:             nil,
}

// CanTransition reports whether from -> to is a legal phase change.
func CanTransition(from, to Phase) bool {
	for _, p := range transitions[from] {
		if p == to {
			return true
		}
	}
	return false
}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	_, ok := transitions[p]
	return ok
}
