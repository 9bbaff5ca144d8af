// internal/httpserver/events.go
//
// GET /api/speech/events streams the client's utterances as server-sent events.
//   - "ready" is sent once the stream is subscribed, with the speech capability.
//   - "utterance" carries one speech.Utterance; the page cancels whatever it is
//     saying and speaks the new one.
//   - A comment heartbeat keeps intermediaries from closing idle streams.

package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const heartbeatInterval = 15 * time.Second

func (s *Server) handleSpeechEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, `{"error":"streaming_unsupported"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	announcer := s.shellFor(r).Announcer()
	utterances, unsubscribe := announcer.Subscribe()
	defer unsubscribe()

	client := clientID(r)
	log.Debug().Str("client", client).Msg("speech stream open")
	defer log.Debug().Str("client", client).Msg("speech stream closed")

	_, _ = fmt.Fprintf(w, "event: ready\ndata: {\"enabled\":%t}\n\n", announcer.Enabled())
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			_, _ = fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case u := <-utterances:
			b, err := json.Marshal(u)
			if err != nil {
				log.Warn().Err(err).Msg("marshal utterance")
				continue
			}
			_, _ = fmt.Fprintf(w, "event: utterance\ndata: %s\n\n", b)
			flusher.Flush()
		}
	}
}
