// internal/httpserver/server.go
//
// HTTP server wiring for the learning app.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/" (the page), "/static/*", "/health".
//   - Client-scoped API under /api: shell state and navigation, word and math
//     games, drawing surface, speech event stream.
//   - Graceful start/stop bound to a context.
//
// Notes:
//   - Every /api request runs with a client id (see client.go); the client's
//     shell is created on first use and dropped when the page is reloaded.
//   - The speech stream is long-lived, so it is mounted outside the
//     request-timeout group.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/robalobadob/imparo/assets"
	"github.com/robalobadob/imparo/internal/drawing"
	"github.com/robalobadob/imparo/internal/game"
	"github.com/robalobadob/imparo/internal/shell"
	"github.com/robalobadob/imparo/internal/store"
)

const (
	requestTimeout  = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Options configures the server.
type Options struct {
	ClientOrigin  string
	SessionSecret string
	SessionTTL    time.Duration
	Secure        bool // production cookies (Secure, SameSite=None)

	// NewShell builds the shell of a client seen for the first time.
	NewShell func() *shell.Shell
}

// Server bundles router, shell store, and page templates.
type Server struct {
	r       *chi.Mux
	store   store.Store
	opts    Options
	page    *template.Template
	catalog *assets.Catalog
}

// New constructs a Server, installs middleware, and registers routes.
func New(st store.Store, opts Options) *Server {
	if opts.SessionSecret == "" {
		opts.SessionSecret = "dev_secret_change_me"
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 14 * 24 * time.Hour
	}
	if opts.ClientOrigin == "" {
		opts.ClientOrigin = "http://localhost:5175"
	}
	s := &Server{
		r:       chi.NewRouter(),
		store:   st,
		opts:    opts,
		page:    assets.Templates(),
		catalog: assets.MustLoad(),
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)            // add X-Request-ID
	s.r.Use(chimw.RealIP)               // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)            // recover from panics
	s.r.Use(corsFor(opts.ClientOrigin)) // credentials-friendly CORS

	// --- page ---
	s.r.With(s.withClient).Get("/", s.handleIndex)
	s.r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(assets.StaticFS())))

	// --- speech stream (no request timeout) ---
	s.r.With(s.withClient).Get("/api/speech/events", s.handleSpeechEvents)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(requestTimeout)) // bound handler time
		r.Use(jsonContentType)               // default JSON responses

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		})

		r.Route("/api", func(r chi.Router) {
			r.Use(s.withClient)
			r.Get("/state", s.handleState)
			r.Post("/nav", s.handleNav)
			r.Get("/cards", s.handleCards)
			s.mountGames(r)
			s.mountDrawing(r)
		})

		// JSON 404 for easier debugging
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"not_found","path":"`+template.JSEscapeString(r.URL.Path)+`"}`, http.StatusNotFound)
		})
	})

	return s
}

// Start serves HTTP on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("http server listening")
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return hs.Shutdown(sctx)
	})
	return g.Wait()
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFor enables credentialed CORS for a single origin.
func corsFor(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ------------------------------- SHELL -------------------------------------

// handleIndex renders the single page with the copy catalogue inlined.
// A page load drops the client's shell, so every reload starts at home.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), clientID(r)); err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Warn().Err(err).Msg("reset client shell")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.ExecuteTemplate(w, "index.html.tmpl", s.catalog); err != nil {
		log.Error().Err(err).Msg("render index")
	}
}

// handleState returns the shell snapshot. With ?wait=1 it first waits for a
// pending challenge fetch to settle (bounded by the request timeout).
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sh := s.shellFor(r)
	if r.URL.Query().Get("wait") == "1" {
		select {
		case <-sh.Settled():
		case <-r.Context().Done():
		}
	}
	writeJSON(w, sh.Snapshot())
}

// navReq is the payload of POST /api/nav.
type navReq struct {
	Action   shell.ActionKind `json:"action"`
	Screen   shell.Screen     `json:"screen"`
	Viewport shell.Viewport   `json:"viewport"`
}

func (s *Server) handleNav(w http.ResponseWriter, r *http.Request) {
	var req navReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	sh := s.shellFor(r)
	if _, err := sh.Navigate(shell.Action{Kind: req.Action, Target: req.Screen}, req.Viewport); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, sh.Snapshot())
}

func (s *Server) handleCards(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.shellFor(r).Cards())
}

// ------------------------------- helpers -----------------------------------

func writeJSON(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

// writeErr maps domain errors onto HTTP status codes.
func writeErr(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, shell.ErrUnavailable),
		errors.Is(err, shell.ErrInvalidTransition),
		errors.Is(err, shell.ErrNotMounted),
		errors.Is(err, game.ErrNoChallenge):
		code = http.StatusConflict
	case errors.Is(err, game.ErrTileOutOfRange),
		errors.Is(err, game.ErrNotAnOption),
		errors.Is(err, drawing.ErrInvalidColor),
		errors.Is(err, drawing.ErrInvalidSize):
		code = http.StatusBadRequest
	default:
		log.Error().Err(err).Msg("unhandled error")
	}
	b, _ := json.Marshal(map[string]string{"error": err.Error()})
	http.Error(w, string(b), code)
}
