package dialogue

import "strings"

// State is the closed set of dialogue steps a session can be in.
type State uint8

const (
	// StateInitial is the entry/reset step; an absent stored label maps here.
	StateInitial State = iota
	// StateMenu waits for a root menu choice.
	StateMenu
	// StateAudience shows who the course is for.
	StateAudience
	// StateProgram browses the lesson catalog.
	StateProgram
	// StateMentors browses mentor bios.
	StateMentors
	// StatePayment shows the purchase link.
	StatePayment
)

// legacyAudienceLabel was persisted by earlier deployments for StateAudience.
const legacyAudienceLabel = "HANDLE_SYMPTOMS"

var stateLabels = [...]string{
	StateInitial:  "START",
	StateMenu:     "HANDLE_MENU",
	StateAudience: "HANDLE_AUDIENCE",
	StateProgram:  "HANDLE_PROGRAM",
	StateMentors:  "HANDLE_MENTORS",
	StatePayment:  "HANDLE_PAYMENT",
}

// String returns the label written to the session store.
func (s State) String() string {
	if int(s) < len(stateLabels) {
		return stateLabels[s]
	}
	return "UNKNOWN"
}

// Valid reports whether s is one of the declared states.
func (s State) Valid() bool {
	return int(s) < len(stateLabels)
}

// ParseState maps a stored label back to a State.
func ParseState(label string) (State, bool) {
	label = strings.TrimSpace(label)
	for i, l := range stateLabels {
		if l == label {
			return State(i), true
		}
	}
	return StateInitial, false
}

// parseLegacyState resolves labels only earlier deployments wrote.
func parseLegacyState(label string) (State, bool) {
	if strings.TrimSpace(label) == legacyAudienceLabel {
		return StateAudience, true
	}
	return StateInitial, false
}
