package session

import (
	"errors"
	"fmt"
	"slices"
)

// ErrIllegalTransition is returned when a round or responder tries to move
// to a state its current state does not lead to.
var ErrIllegalTransition = errors.New("illegal session transition")

// State is a position in the request lifecycle. The round as a whole moves
// Idle → ParamsChosen → Sent → AwaitingResponse → Scored → Idle; each
// responder moves AwaitingResponse → {Verified, IntegrityFailed, Timeout} → Scored.
type State uint8

const (
	Idle State = iota
	ParamsChosen
	Sent
	AwaitingResponse
	Verified
	IntegrityFailed
	Timeout
	Scored
)

var stateNames = [...]string{
	Idle:             "idle",
	ParamsChosen:     "params_chosen",
	Sent:             "sent",
	AwaitingResponse: "awaiting_response",
	Verified:         "verified",
	IntegrityFailed:  "integrity_failed",
	Timeout:          "timeout",
	Scored:           "scored",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

var transitions = map[State][]State{
	Idle:             {ParamsChosen},
	ParamsChosen:     {Sent, Idle},
	Sent:             {AwaitingResponse, Idle},
	AwaitingResponse: {Verified, IntegrityFailed, Timeout, Scored},
	Verified:         {Scored},
	IntegrityFailed:  {Scored},
	Timeout:          {Scored},
	Scored:           {Idle},
}

// CanTransition reports whether from may move directly to to.
func CanTransition(from, to State) bool {
	return slices.Contains(transitions[from], to)
}

func transition(from, to State) (State, error) {
	if !CanTransition(from, to) {
		return from, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	return to, nil
}
