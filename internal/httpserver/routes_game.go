// internal/httpserver/routes_game.go
//
// HTTP routes for the two challenge games.
//   - POST /api/word/new        → fetch the next word
//   - POST /api/word/tile       → pick a tile ({index} or {letter})
//   - POST /api/word/backspace  → drop the last picked letter
//   - POST /api/math/new        → fetch the next addition
//   - POST /api/math/answer     → choose an option ({option})
//
// All routes answer with the full shell snapshot. They return 409 when the
// game is not the active screen.

package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// mountGames registers the /word and /math routes.
func (s *Server) mountGames(r chi.Router) {
	r.Route("/word", func(r chi.Router) {
		r.Post("/new", s.handleWordNew)
		r.Post("/tile", s.handleWordTile)
		r.Post("/backspace", s.handleWordBackspace)
	})
	r.Route("/math", func(r chi.Router) {
		r.Post("/new", s.handleMathNew)
		r.Post("/answer", s.handleMathAnswer)
	})
}

func (s *Server) handleWordNew(w http.ResponseWriter, r *http.Request) {
	sh := s.shellFor(r)
	ws, err := sh.WordSession()
	if err != nil {
		writeErr(w, err)
		return
	}
	ws.RequestNewChallenge()
	writeJSON(w, sh.Snapshot())
}

// tileReq picks a tile by position, or by letter when Index is absent.
type tileReq struct {
	Index  *int   `json:"index"`
	Letter string `json:"letter"`
}

func (s *Server) handleWordTile(w http.ResponseWriter, r *http.Request) {
	var req tileReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	sh := s.shellFor(r)
	ws, err := sh.WordSession()
	if err != nil {
		writeErr(w, err)
		return
	}
	if req.Index != nil {
		err = ws.SelectTile(*req.Index)
	} else {
		err = ws.SelectLetter(req.Letter)
	}
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, sh.Snapshot())
}

func (s *Server) handleWordBackspace(w http.ResponseWriter, r *http.Request) {
	sh := s.shellFor(r)
	ws, err := sh.WordSession()
	if err != nil {
		writeErr(w, err)
		return
	}
	ws.Backspace()
	writeJSON(w, sh.Snapshot())
}

func (s *Server) handleMathNew(w http.ResponseWriter, r *http.Request) {
	sh := s.shellFor(r)
	ms, err := sh.MathSession()
	if err != nil {
		writeErr(w, err)
		return
	}
	ms.RequestNewChallenge()
	writeJSON(w, sh.Snapshot())
}

type answerReq struct {
	Option int `json:"option"`
}

func (s *Server) handleMathAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	sh := s.shellFor(r)
	ms, err := sh.MathSession()
	if err != nil {
		writeErr(w, err)
		return
	}
	if err := ms.SubmitAnswer(req.Option); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, sh.Snapshot())
}
