package drawing

import (
	"bytes"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pixel(s *Surface, x, y int) color.NRGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return color.NRGBAModel.Convert(s.dc.Image().At(x, y)).(color.NRGBA)
}

func stroke(s *Surface, pts ...Point) {
	s.PointerDown(pts[0])
	for _, p := range pts[1:] {
		s.PointerMove(p)
	}
	s.PointerUp()
}

func TestNewScalesBackingRaster(t *testing.T) {
	s, err := New(100, 50, 2)
	require.NoError(t, err)
	b := s.Bounds()
	assert.Equal(t, 200, b.Dx())
	assert.Equal(t, 100, b.Dy())

	w, h, dpr := s.Size()
	assert.Equal(t, []float64{100, 50, 2}, []float64{w, h, dpr})
	assert.True(t, s.Empty())
	assert.Equal(t, DefaultColor, s.Color())
}

func TestNewRejectsBadSize(t *testing.T) {
	for name, tc := range map[string]struct{ w, h, dpr float64 }{
		"zero width":    {0, 10, 1},
		"negative":      {10, -1, 1},
		"too wide":      {MaxSide + 1, 10, 1},
		"too tall":      {10, 200000, 1},
		"huge dpr":      {100, 100, MaxDPR + 0.5},
		"infinite dpr":  {100, 100, math.Inf(1)},
		"nan width":     {math.NaN(), 10, 1},
		"oversized all": {200000, 200000, 4},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := New(tc.w, tc.h, tc.dpr)
			require.ErrorIs(t, err, ErrInvalidSize)
		})
	}

	s, err := New(MaxSide, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, MaxSide, s.Bounds().Dx())
	s, err = New(10, 10, MaxDPR)
	require.NoError(t, err)
	assert.Equal(t, 10*MaxDPR, s.Bounds().Dx())

	s, err = New(10, 10, 0)
	require.NoError(t, err)
	_, _, dpr := s.Size()
	assert.Equal(t, 1.0, dpr)
}

func TestStrokeRendersInLogicalUnits(t *testing.T) {
	s, err := New(100, 50, 2)
	require.NoError(t, err)
	require.NoError(t, s.SetColor("#EF4444"))

	stroke(s, Point{10, 10}, Point{40, 10})

	// Logical (25,10) is device (50,20).
	p := pixel(s, 50, 20)
	assert.Equal(t, uint8(0xff), p.A)
	assert.Equal(t, uint8(0xEF), p.R)
	assert.Equal(t, uint8(0x44), p.G)
	assert.Zero(t, pixel(s, 150, 80).A)
	assert.False(t, s.Drawing())
}

func TestMoveWithoutPressDrawsNothing(t *testing.T) {
	s, err := New(60, 60, 1)
	require.NoError(t, err)

	s.PointerMove(Point{10, 10})
	s.PointerMove(Point{50, 50})
	assert.True(t, s.Empty())

	s.PointerDown(Point{10, 10})
	s.PointerLeave()
	s.PointerMove(Point{50, 50})
	assert.True(t, s.Empty())
}

func TestSetColorOnlyAffectsLaterStrokes(t *testing.T) {
	s, err := New(100, 100, 1)
	require.NoError(t, err)

	stroke(s, Point{10, 20}, Point{90, 20})
	require.NoError(t, s.SetColor("#22c55e"))
	stroke(s, Point{10, 70}, Point{90, 70})

	first, second := pixel(s, 50, 20), pixel(s, 50, 70)
	assert.Equal(t, color.NRGBA{0, 0, 0, 0xff}, first)
	assert.Equal(t, color.NRGBA{0x22, 0xc5, 0x5e, 0xff}, second)
	assert.Equal(t, "#22C55E", s.Color())
}

func TestClearAlwaysEmpties(t *testing.T) {
	for _, n := range []int{0, 1, 25} {
		s, err := New(80, 80, 1.5)
		require.NoError(t, err)
		for i := 0; i < n; i++ {
			stroke(s, Point{float64(i), 5}, Point{70, float64(i) + 10})
		}
		s.Clear()
		assert.Truef(t, s.Empty(), "not empty after %d strokes", n)
		assert.Equal(t, DefaultColor, s.Color())
	}
}

func TestLocateMouseAndTouchAgree(t *testing.T) {
	bounds := Rect{Left: 30, Top: 120, Width: 400, Height: 300}
	mouse := Locate(PointerEvent{Source: SourceMouse, ClientX: 130, ClientY: 170}, bounds)
	touch := Locate(PointerEvent{Source: SourceTouch, ClientX: 130, ClientY: 170}, bounds)
	assert.Equal(t, Point{100, 50}, mouse)
	assert.Equal(t, mouse, touch)
}

func TestParseColor(t *testing.T) {
	cases := []struct {
		in   string
		want color.NRGBA
		ok   bool
	}{
		{"#000000", color.NRGBA{0, 0, 0, 255}, true},
		{"#FDE047", color.NRGBA{0xFD, 0xE0, 0x47, 255}, true},
		{"#f00", color.NRGBA{255, 0, 0, 255}, true},
		{"FDE047", color.NRGBA{}, false},
		{"#12345", color.NRGBA{}, false},
		{"#zzzzzz", color.NRGBA{}, false},
		{"", color.NRGBA{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseColor(tc.in)
			if !tc.ok {
				require.ErrorIs(t, err, ErrInvalidColor)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEncodePNG(t *testing.T) {
	s, err := New(40, 30, 2)
	require.NoError(t, err)
	stroke(s, Point{5, 5}, Point{35, 25})

	var buf bytes.Buffer
	require.NoError(t, s.EncodePNG(&buf))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 80, img.Bounds().Dx())
	assert.Equal(t, 60, img.Bounds().Dy())
}
