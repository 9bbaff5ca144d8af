// internal/httpserver/routes_draw.go
//
// HTTP routes for the drawing surface.
//   - POST /api/draw/pointer     → down/move/up/leave in viewport coordinates
//   - POST /api/draw/color       → set the stroke color
//   - POST /api/draw/clear       → wipe the canvas
//   - GET  /api/draw/canvas.png  → current raster
//   - GET  /api/draw/palette     → the fixed color palette

package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/imparo/internal/drawing"
)

// mountDrawing registers the /draw routes.
func (s *Server) mountDrawing(r chi.Router) {
	r.Route("/draw", func(r chi.Router) {
		r.Post("/pointer", s.handlePointer)
		r.Post("/color", s.handleColor)
		r.Post("/clear", s.handleClear)
		r.Get("/canvas.png", s.handleCanvasPNG)
		r.Get("/palette", s.handlePalette)
	})
}

// pointerReq carries one pointer event plus the canvas bounding box.
type pointerReq struct {
	Type string `json:"type"` // "down" | "move" | "up" | "leave"
	drawing.PointerEvent
	Rect drawing.Rect `json:"rect"`
}

func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	var req pointerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	c, err := s.shellFor(r).Canvas()
	if err != nil {
		writeErr(w, err)
		return
	}
	p := drawing.Locate(req.PointerEvent, req.Rect)
	switch req.Type {
	case "down":
		c.PointerDown(p)
	case "move":
		c.PointerMove(p)
	case "up":
		c.PointerUp()
	case "leave":
		c.PointerLeave()
	default:
		http.Error(w, fmt.Sprintf(`{"error":"unknown pointer type %q"}`, req.Type), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type colorReq struct {
	Color string `json:"color"`
}

func (s *Server) handleColor(w http.ResponseWriter, r *http.Request) {
	var req colorReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	sh := s.shellFor(r)
	c, err := sh.Canvas()
	if err != nil {
		writeErr(w, err)
		return
	}
	if err := c.SetColor(req.Color); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, sh.Snapshot())
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	sh := s.shellFor(r)
	c, err := sh.Canvas()
	if err != nil {
		writeErr(w, err)
		return
	}
	c.Clear()
	writeJSON(w, sh.Snapshot())
}

func (s *Server) handleCanvasPNG(w http.ResponseWriter, r *http.Request) {
	c, err := s.shellFor(r).Canvas()
	if err != nil {
		writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := c.EncodePNG(w); err != nil {
		log.Warn().Err(err).Msg("encode canvas")
	}
}

func (s *Server) handlePalette(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.shellFor(r).Palette())
}
