package shell

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/imparo/internal/challenge"
	"github.com/robalobadob/imparo/internal/game"
	"github.com/robalobadob/imparo/internal/speech"
)

func TestTransition(t *testing.T) {
	cases := []struct {
		from Screen
		act  Action
		want Screen
		err  error
	}{
		{Home, Select(Word), Word, nil},
		{Home, Select(Math), Math, nil},
		{Home, Select(Drawing), Drawing, nil},
		{Home, Select(Measurement), Home, ErrUnavailable},
		{Home, Select(Home), Home, ErrInvalidTransition},
		{Home, Select("quiz"), Home, ErrInvalidTransition},
		{Home, Back, Home, nil},
		{Word, Back, Home, nil},
		{Math, Back, Home, nil},
		{Drawing, Back, Home, nil},
		{Word, Select(Math), Word, ErrInvalidTransition},
		{Drawing, Select(Word), Drawing, ErrInvalidTransition},
		{Math, Action{Kind: "jump"}, Math, ErrInvalidTransition},
		{Measurement, Back, Measurement, ErrInvalidTransition},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"/"+string(tc.act.Kind)+"/"+string(tc.act.Target), func(t *testing.T) {
			got, err := Transition(tc.from, tc.act)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func newShell(t *testing.T) *Shell {
	t.Helper()
	p := challenge.NewProvider(nil)
	s := New(Options{Words: p, Math: p, ResetDelay: time.Second, CanvasWidth: 320, CanvasHeight: 240},
		speech.New(true, "it-IT"))
	t.Cleanup(s.Close)
	return s
}

func waitSettled(t *testing.T, s *Shell) {
	t.Helper()
	select {
	case <-s.Settled():
	case <-time.After(2 * time.Second):
		t.Fatal("fetch did not settle")
	}
}

func TestShellStartsHomeWithCards(t *testing.T) {
	s := newShell(t)
	snap := s.Snapshot()
	assert.Equal(t, Home, snap.Screen)
	assert.Equal(t, "Imparo Giocando", snap.Title)
	require.Len(t, snap.Cards, 4)

	var disabled []Card
	for _, c := range snap.Cards {
		if c.Disabled {
			disabled = append(disabled, c)
		}
	}
	require.Len(t, disabled, 1)
	assert.Equal(t, Measurement, disabled[0].Screen)
	assert.Equal(t, "Prossimamente!", disabled[0].Note)
}

func TestShellMountsWordAndUnmountsOnBack(t *testing.T) {
	s := newShell(t)

	to, err := s.Navigate(Select(Word), Viewport{})
	require.NoError(t, err)
	assert.Equal(t, Word, to)
	waitSettled(t, s)

	w, err := s.WordSession()
	require.NoError(t, err)
	snap := s.Snapshot()
	require.NotNil(t, snap.Word)
	assert.Equal(t, game.StateReady, snap.Word.State)
	assert.Equal(t, "Componi la parola", snap.Title)

	_, err = s.Navigate(Back, Viewport{})
	require.NoError(t, err)
	assert.Equal(t, Home, s.Screen())
	_, err = s.WordSession()
	require.ErrorIs(t, err, ErrNotMounted)

	// The closed session no longer accepts input.
	assert.False(t, w.Snapshot().InputOpen)
}

func TestShellMountsMath(t *testing.T) {
	s := newShell(t)
	_, err := s.Navigate(Select(Math), Viewport{})
	require.NoError(t, err)
	waitSettled(t, s)

	m, err := s.MathSession()
	require.NoError(t, err)
	require.NoError(t, m.SubmitAnswer(3))
	assert.Equal(t, game.FeedbackCorrect, s.Snapshot().Math.Feedback)

	// Selecting from a game screen is rejected and leaves it mounted.
	_, err = s.Navigate(Select(Word), Viewport{})
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, Math, s.Screen())
	_, err = s.MathSession()
	require.NoError(t, err)
}

func TestShellDrawingViewport(t *testing.T) {
	s := newShell(t)
	_, err := s.Navigate(Select(Drawing), Viewport{Width: 400, Height: 300, DPR: 2})
	require.NoError(t, err)

	c, err := s.Canvas()
	require.NoError(t, err)
	assert.Equal(t, 800, c.Bounds().Dx())

	snap := s.Snapshot()
	require.NotNil(t, snap.Drawing)
	assert.Equal(t, "#000000", snap.Drawing.Color)
	assert.Len(t, snap.Drawing.Palette, 8)

	_, err = s.Navigate(Back, Viewport{})
	require.NoError(t, err)
	_, err = s.Navigate(Select(Drawing), Viewport{})
	require.NoError(t, err)
	c, err = s.Canvas()
	require.NoError(t, err)
	assert.Equal(t, 320, c.Bounds().Dx())
	assert.True(t, c.Empty())
}

func TestShellMeasurementUnavailable(t *testing.T) {
	s := newShell(t)
	_, err := s.Navigate(Select(Measurement), Viewport{})
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, Home, s.Screen())
}
