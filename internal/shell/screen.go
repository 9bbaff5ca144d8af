// internal/shell/screen.go
//
// Screen routing for the navigation shell.
//   - home is the only place a game can be chosen from.
//   - back always lands on home.
//   - measurement is listed on the home grid but cannot be entered.

package shell

import (
	"errors"
	"fmt"
)

// Screen is one of the shell's destinations.
type Screen string

const (
	Home        Screen = "home"
	Word        Screen = "word"
	Math        Screen = "math"
	Drawing     Screen = "drawing"
	Measurement Screen = "measurement"
)

var (
	ErrUnavailable       = errors.New("screen not available yet")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrNotMounted        = errors.New("component not mounted")
)

// ActionKind distinguishes navigation requests.
type ActionKind string

const (
	ActionSelect ActionKind = "select"
	ActionBack   ActionKind = "back"
)

// Action is a navigation request. Target is only meaningful for select.
type Action struct {
	Kind   ActionKind `json:"action"`
	Target Screen     `json:"screen,omitempty"`
}

// Select builds the action that opens target from home.
func Select(target Screen) Action { return Action{Kind: ActionSelect, Target: target} }

// Back is the action that returns to home.
var Back = Action{Kind: ActionBack}

// Playable reports whether s can be entered from home.
func (s Screen) Playable() bool {
	switch s {
	case Word, Math, Drawing:
		return true
	}
	return false
}

// Transition computes the screen reached from `from` by a. It has no side effects.
func Transition(from Screen, a Action) (Screen, error) {
	switch from {
	case Home, Word, Math, Drawing:
	default:
		return from, fmt.Errorf("%w: unknown screen %q", ErrInvalidTransition, from)
	}

	switch a.Kind {
	case ActionBack:
		return Home, nil
	case ActionSelect:
		if from != Home {
			return from, fmt.Errorf("%w: select %q from %q", ErrInvalidTransition, a.Target, from)
		}
		switch {
		case a.Target == Measurement:
			return from, fmt.Errorf("%w: %q", ErrUnavailable, a.Target)
		case a.Target.Playable():
			return a.Target, nil
		default:
			return from, fmt.Errorf("%w: select %q", ErrInvalidTransition, a.Target)
		}
	default:
		return from, fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, a.Kind)
	}
}
