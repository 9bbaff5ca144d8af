// internal/game/word.go
//
// WordSession runs the "compose the word" game.
// Responsibilities:
//   - Build the tile pool once per challenge (word letters + 4 distractors).
//   - Accumulate selected letters; evaluate when the word is complete.
//   - Correct: announce success, allow advancing.
//   - Incorrect: announce retry, then after resetDelay clear progress and
//     feedback so the same word can be tried again.
//
// Tiles are not consumed: the same tile may be picked more than once.

package game

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/imparo/assets"
	"github.com/robalobadob/imparo/internal/challenge"
)

// DefaultResetDelay is how long a wrong word stays on screen.
const DefaultResetDelay = 1500 * time.Millisecond

// WordSession is safe for concurrent use.
type WordSession struct {
	*session[challenge.Word]
	catalog    *assets.Catalog
	resetDelay time.Duration

	pool       []string
	progress   []string
	round      uint64 // bumped on every clear; stale reset timers compare against it
	resetTimer *time.Timer
}

// NewWordSession mounts a word game and starts fetching its first challenge.
func NewWordSession(src WordSource, sp Speaker, resetDelay time.Duration) *WordSession {
	if resetDelay <= 0 {
		resetDelay = DefaultResetDelay
	}
	w := &WordSession{
		catalog:    assets.MustLoad(),
		resetDelay: resetDelay,
	}
	w.session = newSession(sp, src.Word)
	w.onClear = w.clearLocked
	w.onReady = func(c challenge.Word) string {
		w.pool = src.LetterPool(c)
		log.Debug().Str("word", c.Word).Strs("pool", w.pool).Msg("word challenge ready")
		return w.catalog.Word.Prompt
	}
	w.RequestNewChallenge()
	return w
}

// SelectTile appends the letter of pool tile i.
func (w *WordSession) SelectTile(i int) error {
	w.mu.Lock()
	if w.challenge == nil || w.loading {
		w.mu.Unlock()
		return ErrNoChallenge
	}
	if i < 0 || i >= len(w.pool) {
		w.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrTileOutOfRange, i)
	}
	msg := w.appendLocked(w.pool[i])
	w.mu.Unlock()

	w.say(msg)
	return nil
}

// SelectLetter appends letter, which must be on one of the tiles.
func (w *WordSession) SelectLetter(letter string) error {
	w.mu.Lock()
	if w.challenge == nil || w.loading {
		w.mu.Unlock()
		return ErrNoChallenge
	}
	found := false
	for _, l := range w.pool {
		if l == letter {
			found = true
			break
		}
	}
	if !found {
		w.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrTileOutOfRange, letter)
	}
	msg := w.appendLocked(letter)
	w.mu.Unlock()

	w.say(msg)
	return nil
}

// Backspace removes the last selected letter.
func (w *WordSession) Backspace() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.inputOpen() || len(w.progress) == 0 {
		return
	}
	w.progress = w.progress[:len(w.progress)-1]
}

// Snapshot returns the renderable state.
func (w *WordSession) Snapshot() WordSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	snap := WordSnapshot{
		State:      w.state(),
		Feedback:   w.feedback,
		Pool:       append([]string{}, w.pool...),
		Progress:   append([]string{}, w.progress...),
		InputOpen:  w.inputOpen(),
		CanAdvance: !w.loading && w.feedback == FeedbackCorrect,
		LoadFailed: !w.loading && w.challenge == nil,
	}
	if w.challenge != nil && !w.loading {
		c := *w.challenge
		snap.Challenge = &c
		snap.Slots = len(c.Letters())
	}
	return snap
}

// appendLocked records a letter and evaluates a complete word. It returns the
// phrase to announce, if any.
func (w *WordSession) appendLocked(letter string) string {
	if !w.inputOpen() {
		return ""
	}
	target := w.challenge.Letters()
	if len(w.progress) >= len(target) {
		return ""
	}
	w.progress = append(w.progress, letter)
	if len(w.progress) < len(target) {
		return ""
	}

	if strings.Join(w.progress, "") == w.challenge.Word {
		w.feedback = FeedbackCorrect
		return fmt.Sprintf(w.catalog.Word.Correct, w.challenge.Word)
	}
	w.feedback = FeedbackIncorrect
	round := w.round
	w.resetTimer = time.AfterFunc(w.resetDelay, func() { w.autoReset(round) })
	return w.catalog.Word.Incorrect
}

// autoReset clears a wrong attempt unless the session moved on meanwhile.
func (w *WordSession) autoReset(round uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || w.round != round || w.feedback != FeedbackIncorrect {
		return
	}
	w.feedback = FeedbackNone
	w.progress = nil
	w.resetTimer = nil
	w.round++
}

// clearLocked drops progress and any pending reset.
func (w *WordSession) clearLocked() {
	if w.resetTimer != nil {
		w.resetTimer.Stop()
		w.resetTimer = nil
	}
	w.progress = nil
	w.pool = nil
	w.round++
}
