// internal/shell/shell.go
//
// Shell is the per-client navigation root.
// Responsibilities:
//   - Hold the active screen and apply Transition.
//   - Mount the component of the screen being entered (word/math session,
//     drawing surface) and close the one being left.
//   - Expose the home cards and a renderable snapshot of whatever is mounted.
//
// At most one component is mounted at a time.

package shell

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/imparo/assets"
	"github.com/robalobadob/imparo/internal/drawing"
	"github.com/robalobadob/imparo/internal/game"
	"github.com/robalobadob/imparo/internal/speech"
)

// Options configures the components a Shell mounts.
type Options struct {
	Words      game.WordSource
	Math       game.MathSource
	ResetDelay time.Duration

	// Canvas size used when the client does not report its own.
	CanvasWidth  float64
	CanvasHeight float64
}

// Viewport is the drawing area reported by the page. Zero fields fall back
// to the configured defaults.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	DPR    float64 `json:"dpr"`
}

// Card is one tile of the home grid.
type Card struct {
	Screen   Screen `json:"screen"`
	Title    string `json:"title"`
	Color    string `json:"color"`
	Disabled bool   `json:"disabled"`
	Note     string `json:"note,omitempty"`
}

// DrawingView describes the mounted drawing surface.
type DrawingView struct {
	Color   string   `json:"color"`
	Palette []string `json:"palette"`
	Width   float64  `json:"width"`
	Height  float64  `json:"height"`
	DPR     float64  `json:"dpr"`
}

// Snapshot is everything the page needs to render the current screen.
type Snapshot struct {
	Screen  Screen             `json:"screen"`
	Title   string             `json:"title"`
	Cards   []Card             `json:"cards,omitempty"`
	Word    *game.WordSnapshot `json:"word,omitempty"`
	Math    *game.MathSnapshot `json:"math,omitempty"`
	Drawing *DrawingView       `json:"drawing,omitempty"`
	Speech  SpeechView         `json:"speech"`
}

// SpeechView reports whether utterances will be produced.
type SpeechView struct {
	Enabled bool `json:"enabled"`
}

// Shell is safe for concurrent use.
type Shell struct {
	opts    Options
	catalog *assets.Catalog
	speaker *speech.Announcer

	mu     sync.Mutex
	screen Screen
	word   *game.WordSession
	math   *game.MathSession
	canvas *drawing.Surface
}

// New returns a shell on the home screen.
func New(opts Options, sp *speech.Announcer) *Shell {
	if opts.CanvasWidth <= 0 {
		opts.CanvasWidth = 800
	}
	if opts.CanvasHeight <= 0 {
		opts.CanvasHeight = 600
	}
	return &Shell{opts: opts, catalog: assets.MustLoad(), speaker: sp, screen: Home}
}

// Screen returns the active screen.
func (s *Shell) Screen() Screen {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screen
}

// Announcer returns the shell's speech announcer.
func (s *Shell) Announcer() *speech.Announcer { return s.speaker }

// Navigate applies a. On error the shell is left unchanged.
func (s *Shell) Navigate(a Action, vp Viewport) (Screen, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	to, err := Transition(s.screen, a)
	if err != nil {
		return s.screen, err
	}
	if to == s.screen {
		return to, nil
	}

	s.unmountLocked()
	if err := s.mountLocked(to, vp); err != nil {
		s.screen = Home
		return Home, err
	}
	log.Debug().Str("from", string(s.screen)).Str("to", string(to)).Msg("navigate")
	s.screen = to
	return to, nil
}

func (s *Shell) mountLocked(to Screen, vp Viewport) error {
	switch to {
	case Word:
		s.word = game.NewWordSession(s.opts.Words, s.speaker, s.opts.ResetDelay)
	case Math:
		s.math = game.NewMathSession(s.opts.Math, s.speaker)
	case Drawing:
		w, h := vp.Width, vp.Height
		if w <= 0 || h <= 0 {
			w, h = s.opts.CanvasWidth, s.opts.CanvasHeight
		}
		c, err := drawing.New(w, h, vp.DPR)
		if err != nil {
			return err
		}
		s.canvas = c
	}
	return nil
}

func (s *Shell) unmountLocked() {
	if s.word != nil {
		s.word.Close()
		s.word = nil
	}
	if s.math != nil {
		s.math.Close()
		s.math = nil
	}
	s.canvas = nil
}

// WordSession returns the mounted word game.
func (s *Shell) WordSession() (*game.WordSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.word == nil {
		return nil, ErrNotMounted
	}
	return s.word, nil
}

// MathSession returns the mounted math game.
func (s *Shell) MathSession() (*game.MathSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.math == nil {
		return nil, ErrNotMounted
	}
	return s.math, nil
}

// Canvas returns the mounted drawing surface.
func (s *Shell) Canvas() (*drawing.Surface, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.canvas == nil {
		return nil, ErrNotMounted
	}
	return s.canvas, nil
}

// Palette is the fixed list of drawing colors.
func (s *Shell) Palette() []string {
	return append([]string{}, s.catalog.Drawing.Palette...)
}

// Cards lists the home grid in display order.
func (s *Shell) Cards() []Card {
	out := make([]Card, 0, len(s.catalog.Home.Cards))
	for _, c := range s.catalog.Home.Cards {
		card := Card{Screen: Screen(c.Screen), Title: c.Title, Color: c.Color, Disabled: c.Disabled}
		if c.Disabled {
			card.Note = s.catalog.Home.Soon
		}
		out = append(out, card)
	}
	return out
}

// Settled returns a channel closed once the mounted game has no fetch in flight.
func (s *Shell) Settled() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.word != nil:
		return s.word.Settled()
	case s.math != nil:
		return s.math.Settled()
	}
	done := make(chan struct{})
	close(done)
	return done
}

// Snapshot renders the active screen.
func (s *Shell) Snapshot() Snapshot {
	s.mu.Lock()
	screen, word, math, canvas := s.screen, s.word, s.math, s.canvas
	s.mu.Unlock()

	snap := Snapshot{Screen: screen, Speech: SpeechView{Enabled: s.speaker.Enabled()}}
	switch screen {
	case Home:
		snap.Title = s.catalog.Home.Title
		snap.Cards = s.Cards()
	case Word:
		snap.Title = s.catalog.Word.Title
		if word != nil {
			ws := word.Snapshot()
			snap.Word = &ws
		}
	case Math:
		snap.Title = s.catalog.Math.Title
		if math != nil {
			ms := math.Snapshot()
			snap.Math = &ms
		}
	case Drawing:
		snap.Title = s.catalog.Drawing.Title
		if canvas != nil {
			w, h, dpr := canvas.Size()
			snap.Drawing = &DrawingView{Color: canvas.Color(), Palette: s.Palette(), Width: w, Height: h, DPR: dpr}
		}
	}
	return snap
}

// Close unmounts everything and returns to home.
func (s *Shell) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unmountLocked()
	s.screen = Home
}
