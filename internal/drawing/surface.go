// internal/drawing/surface.go
//
// Surface is the freehand drawing canvas.
// Responsibilities:
//   - Own a raster sized width×height logical units at the device pixel ratio.
//   - Turn pointer down/move/up into line segments rendered immediately
//     (round caps, fixed width, active color).
//   - Map mouse and touch positions into the same logical coordinate space.
//   - Clear the raster wholesale; export it as PNG.
//
// Strokes are not kept as data: the raster is the only state.

package drawing

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/fogleman/gg"
)

const (
	// StrokeWidth is the line width in logical units.
	StrokeWidth = 5

	// DefaultColor is the color a new surface starts with.
	DefaultColor = "#000000"

	// MaxSide bounds each logical dimension.
	MaxSide = 4096

	// MaxDPR bounds the device pixel ratio.
	MaxDPR = 4
)

var (
	ErrInvalidColor = errors.New("invalid color")
	ErrInvalidSize  = errors.New("invalid canvas size")
)

// Point is a position in logical canvas units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Source is the input device that produced a pointer event.
type Source string

const (
	SourceMouse Source = "mouse"
	SourceTouch Source = "touch"
)

// PointerEvent carries viewport coordinates. For touch it is the first touch point.
type PointerEvent struct {
	Source  Source  `json:"source"`
	ClientX float64 `json:"clientX"`
	ClientY float64 `json:"clientY"`
}

// Rect is the canvas bounding box on screen, in viewport coordinates.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Locate maps ev into logical canvas coordinates relative to bounds.
// Mouse and touch share the same mapping.
func Locate(ev PointerEvent, bounds Rect) Point {
	return Point{X: ev.ClientX - bounds.Left, Y: ev.ClientY - bounds.Top}
}

// Surface is safe for concurrent use.
type Surface struct {
	mu      sync.Mutex
	dc      *gg.Context
	width   float64
	height  float64
	dpr     float64
	color   string
	drawing bool
	last    Point
}

// New creates a width×height (logical) surface backed by a raster scaled by dpr.
// Sides above MaxSide and dpr above MaxDPR are rejected with ErrInvalidSize.
func New(width, height, dpr float64) (*Surface, error) {
	if !(width > 0 && width <= MaxSide) || !(height > 0 && height <= MaxSide) {
		return nil, fmt.Errorf("%w: %gx%g", ErrInvalidSize, width, height)
	}
	if dpr <= 0 || math.IsNaN(dpr) {
		dpr = 1
	}
	if dpr > MaxDPR {
		return nil, fmt.Errorf("%w: dpr %g", ErrInvalidSize, dpr)
	}
	dc := gg.NewContext(int(math.Round(width*dpr)), int(math.Round(height*dpr)))
	dc.Scale(dpr, dpr)
	dc.SetLineCapRound()
	dc.SetLineJoinRound()
	dc.SetLineWidth(StrokeWidth)

	s := &Surface{dc: dc, width: width, height: height, dpr: dpr}
	if err := s.SetColor(DefaultColor); err != nil {
		return nil, err
	}
	return s, nil
}

// PointerDown starts a new path at p.
func (s *Surface) PointerDown(p Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drawing = true
	s.last = p
}

// PointerMove renders the segment from the previous position to p while drawing.
func (s *Surface) PointerMove(p Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.drawing {
		return
	}
	s.dc.MoveTo(s.last.X, s.last.Y)
	s.dc.LineTo(p.X, p.Y)
	s.dc.Stroke()
	s.last = p
}

// PointerUp ends the current path.
func (s *Surface) PointerUp() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drawing = false
	s.dc.ClearPath()
}

// PointerLeave behaves like PointerUp.
func (s *Surface) PointerLeave() { s.PointerUp() }

// Drawing reports whether a stroke is in progress.
func (s *Surface) Drawing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drawing
}

// SetColor changes the color of subsequent strokes ("#RGB" or "#RRGGBB").
func (s *Surface) SetColor(hex string) error {
	c, err := ParseColor(hex)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.color = strings.ToUpper(strings.TrimSpace(hex))
	s.dc.SetColor(c)
	return nil
}

// Color returns the active stroke color.
func (s *Surface) Color() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.color
}

// Clear wipes the raster. There is no undo.
func (s *Surface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, _ := ParseColor(s.color)
	s.dc.SetColor(color.Transparent)
	s.dc.Clear()
	s.dc.SetColor(c)
}

// Empty reports whether no pixel has been painted.
func (s *Surface) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	img := s.dc.Image()
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0 {
				return false
			}
		}
	}
	return true
}

// Size returns the logical size and the device pixel ratio.
func (s *Surface) Size() (width, height, dpr float64) {
	return s.width, s.height, s.dpr
}

// Bounds returns the backing raster bounds in device pixels.
func (s *Surface) Bounds() image.Rectangle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dc.Image().Bounds()
}

// EncodePNG writes the raster as PNG.
func (s *Surface) EncodePNG(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dc.EncodePNG(w)
}

// ParseColor parses "#RGB" or "#RRGGBB".
func ParseColor(hex string) (color.NRGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 || !strings.HasPrefix(strings.TrimSpace(hex), "#") {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, hex)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, hex)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
