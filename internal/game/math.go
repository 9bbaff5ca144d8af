// internal/game/math.go
//
// MathSession runs the "how much is it?" addition game.
//   - SubmitAnswer compares the choice with the answer (exact equality).
//   - After the first choice the options are locked until a new challenge is
//     requested; a wrong choice is not reset automatically.

package game

import (
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/imparo/assets"
	"github.com/robalobadob/imparo/internal/challenge"
)

// MathSession is safe for concurrent use.
type MathSession struct {
	*session[challenge.Math]
	catalog  *assets.Catalog
	selected *int
}

// NewMathSession mounts a math game and starts fetching its first challenge.
func NewMathSession(src MathSource, sp Speaker) *MathSession {
	m := &MathSession{catalog: assets.MustLoad()}
	m.session = newSession(sp, src.Math)
	m.onClear = func() { m.selected = nil }
	m.onReady = func(c challenge.Math) string {
		log.Debug().Int("num1", c.Num1).Int("num2", c.Num2).Ints("options", c.Options).Msg("math challenge ready")
		return fmt.Sprintf(m.catalog.Math.Prompt, c.Num1, c.Num2)
	}
	m.RequestNewChallenge()
	return m
}

// SubmitAnswer evaluates choice. It is ignored once feedback is set.
func (m *MathSession) SubmitAnswer(choice int) error {
	m.mu.Lock()
	if m.challenge == nil || m.loading {
		m.mu.Unlock()
		return ErrNoChallenge
	}
	if !slices.Contains(m.challenge.Options, choice) {
		m.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrNotAnOption, choice)
	}
	if !m.inputOpen() {
		m.mu.Unlock()
		return nil
	}
	m.selected = &choice
	msg := m.catalog.Math.Incorrect
	m.feedback = FeedbackIncorrect
	if choice == m.challenge.Answer {
		m.feedback = FeedbackCorrect
		msg = m.catalog.Math.Correct
	}
	m.mu.Unlock()

	m.say(msg)
	return nil
}

// Snapshot returns the renderable state.
func (m *MathSession) Snapshot() MathSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := MathSnapshot{
		State:      m.state(),
		Feedback:   m.feedback,
		InputOpen:  m.inputOpen(),
		CanAdvance: !m.loading && m.feedback == FeedbackCorrect,
		LoadFailed: !m.loading && m.challenge == nil,
	}
	if m.challenge == nil || m.loading {
		return snap
	}
	c := *m.challenge
	c.Options = slices.Clone(c.Options)
	snap.Challenge = &c
	if m.selected != nil {
		v := *m.selected
		snap.Selected = &v
	}
	for _, o := range c.Options {
		snap.Options = append(snap.Options, MathOption{Value: o, Mark: m.markLocked(o)})
	}
	return snap
}

func (m *MathSession) markLocked(option int) OptionMark {
	switch {
	case m.feedback == FeedbackNone:
		return MarkNone
	case option == m.challenge.Answer:
		return MarkAnswer
	case m.selected != nil && option == *m.selected:
		return MarkWrong
	default:
		return MarkDimmed
	}
}
