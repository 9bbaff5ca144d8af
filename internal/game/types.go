// internal/game/types.go
//
// Core type definitions for the challenge sessions.
// Defines:
//   - Feedback: result of the last evaluated answer (none/correct/incorrect).
//   - State:    coarse session state reported to the page.
//   - Speaker / WordSource / MathSource: collaborators of a session.
//   - Snapshots: read-only views for rendering.

package game

import (
	"context"
	"errors"

	"github.com/robalobadob/imparo/internal/challenge"
)

// Feedback is the tri-state evaluation of the last answer.
type Feedback string

const (
	FeedbackNone      Feedback = ""
	FeedbackCorrect   Feedback = "correct"
	FeedbackIncorrect Feedback = "incorrect"
)

// State is the coarse lifecycle position of a session.
//   - "loading":   a challenge fetch is in flight.
//   - "ready":     a challenge is shown and input is accepted.
//   - "correct":   answered correctly; only "next" is available.
//   - "incorrect": answered wrongly; input disabled.
type State string

const (
	StateLoading   State = "loading"
	StateReady     State = "ready"
	StateCorrect   State = "correct"
	StateIncorrect State = "incorrect"
)

var (
	ErrNoChallenge    = errors.New("no challenge loaded")
	ErrTileOutOfRange = errors.New("tile out of range")
	ErrNotAnOption    = errors.New("not one of the options")
)

// Speaker announces phrases (see speech.Announcer).
type Speaker interface {
	Speak(text string)
}

// WordSource provides word challenges and their tile pools.
type WordSource interface {
	Word(ctx context.Context) challenge.Word
	LetterPool(w challenge.Word) []string
}

// MathSource provides addition challenges.
type MathSource interface {
	Math(ctx context.Context) challenge.Math
}

// WordSnapshot is the renderable state of a word session.
type WordSnapshot struct {
	State      State           `json:"state"`
	Feedback   Feedback        `json:"feedback"`
	Challenge  *challenge.Word `json:"challenge,omitempty"`
	Slots      int             `json:"slots"`
	Pool       []string        `json:"pool"`
	Progress   []string        `json:"progress"`
	InputOpen  bool            `json:"inputOpen"`
	CanAdvance bool            `json:"canAdvance"`
	LoadFailed bool            `json:"loadFailed"`
}

// OptionMark tells the page how to paint a math option once feedback is set.
type OptionMark string

const (
	MarkNone   OptionMark = ""
	MarkAnswer OptionMark = "answer" // the correct value, always highlighted
	MarkWrong  OptionMark = "wrong"  // the user's wrong pick
	MarkDimmed OptionMark = "dimmed"
)

// MathOption is one answer button.
type MathOption struct {
	Value int        `json:"value"`
	Mark  OptionMark `json:"mark"`
}

// MathSnapshot is the renderable state of a math session.
type MathSnapshot struct {
	State      State           `json:"state"`
	Feedback   Feedback        `json:"feedback"`
	Challenge  *challenge.Math `json:"challenge,omitempty"`
	Options    []MathOption    `json:"options"`
	Selected   *int            `json:"selected,omitempty"`
	InputOpen  bool            `json:"inputOpen"`
	CanAdvance bool            `json:"canAdvance"`
	LoadFailed bool            `json:"loadFailed"`
}
