// internal/game/session.go
//
// session is the fetch → ready half shared by the word and math games.
// Responsibilities:
//   - Run at most one challenge fetch at a time, off the caller's goroutine.
//   - Reach "ready" whenever the fetch settles (the source never fails).
//   - Discard results that arrive after Close.
//
// State transitions:
//   - RequestNewChallenge: ready/correct/incorrect → loading (ignored while loading).
//   - fetch settles:       loading → ready, prompt announced.
//   - Close:               any → closed; late results dropped.

package game

import (
	"context"
	"sync"
)

type session[C any] struct {
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	speaker Speaker
	fetch   func(context.Context) C

	// Hooks run with mu held. onReady returns the prompt to announce.
	onClear func()
	onReady func(C) string

	challenge *C
	loading   bool
	closed    bool
	feedback  Feedback
	settled   chan struct{}
}

func newSession[C any](sp Speaker, fetch func(context.Context) C) *session[C] {
	ctx, cancel := context.WithCancel(context.Background())
	return &session[C]{ctx: ctx, cancel: cancel, speaker: sp, fetch: fetch}
}

// RequestNewChallenge clears progress and feedback and fetches a new challenge
// in the background. A call while a fetch is in flight is ignored.
func (s *session[C]) RequestNewChallenge() {
	s.mu.Lock()
	if s.closed || s.loading {
		s.mu.Unlock()
		return
	}
	s.loading = true
	s.feedback = FeedbackNone
	if s.onClear != nil {
		s.onClear()
	}
	done := make(chan struct{})
	s.settled = done
	ctx := s.ctx
	s.mu.Unlock()

	go func() {
		defer close(done)
		c := s.fetch(ctx)

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		s.challenge = &c
		s.loading = false
		var prompt string
		if s.onReady != nil {
			prompt = s.onReady(c)
		}
		s.mu.Unlock()

		s.say(prompt)
	}()
}

// Settled returns a channel closed once no fetch is in flight.
func (s *session[C]) Settled() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settled == nil {
		done := make(chan struct{})
		close(done)
		return done
	}
	return s.settled
}

// Close tears the session down. Pending fetches are cancelled and their
// results discarded.
func (s *session[C]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.cancel()
	if s.onClear != nil {
		s.onClear()
	}
}

// state derives the coarse state; callers hold mu.
func (s *session[C]) state() State {
	switch {
	case s.loading:
		return StateLoading
	case s.feedback == FeedbackCorrect:
		return StateCorrect
	case s.feedback == FeedbackIncorrect:
		return StateIncorrect
	default:
		return StateReady
	}
}

// inputOpen reports whether answers are accepted; callers hold mu.
func (s *session[C]) inputOpen() bool {
	return !s.closed && !s.loading && s.challenge != nil && s.feedback == FeedbackNone
}

func (s *session[C]) say(text string) {
	if text != "" && s.speaker != nil {
		s.speaker.Speak(text)
	}
}
