// internal/speech/announcer.go
//
// Announcer is the text-to-speech front of the app.
// Responsibilities:
//   - Own a single "active utterance" slot; each Speak replaces it.
//   - Fan the utterance out to listeners (the browser page plays it and
//     cancels whatever it was saying).
//   - No-op with a warning when speech is disabled.
//
// Speak is fire-and-forget: it never blocks on listeners.

package speech

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

// DefaultLocale is used when no locale (or an invalid one) is given.
var DefaultLocale = language.MustParse("it-IT")

// Utterance is one spoken phrase.
type Utterance struct {
	ID     string    `json:"id"`
	Text   string    `json:"text"`
	Locale string    `json:"locale"`
	At     time.Time `json:"at"`
}

// Announcer speaks one utterance at a time. Safe for concurrent use.
type Announcer struct {
	enabled bool
	locale  language.Tag

	mu     sync.Mutex
	active *Utterance
	subs   map[chan Utterance]struct{}
}

// New returns an Announcer. locale may be empty (it-IT).
func New(enabled bool, locale string) *Announcer {
	return &Announcer{
		enabled: enabled,
		locale:  parseLocale(locale, DefaultLocale),
		subs:    make(map[chan Utterance]struct{}),
	}
}

// Speak announces text in the announcer's locale.
func (a *Announcer) Speak(text string) { a.SpeakIn(text, "") }

// SpeakIn announces text in locale, replacing the active utterance.
func (a *Announcer) SpeakIn(text, locale string) {
	if a == nil {
		return
	}
	if !a.enabled {
		log.Warn().Str("text", text).Msg("text-to-speech not supported; skipping")
		return
	}
	u := Utterance{
		ID:     uuid.NewString(),
		Text:   text,
		Locale: parseLocale(locale, a.locale).String(),
		At:     time.Now().UTC(),
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.active = &u
	for ch := range a.subs {
		replace(ch, u)
	}
	log.Debug().Str("text", u.Text).Str("locale", u.Locale).Msg("speak")
}

// Active returns the most recent utterance, if any.
func (a *Announcer) Active() (Utterance, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.active == nil {
		return Utterance{}, false
	}
	return *a.active, true
}

// Enabled reports whether the announcer produces speech.
func (a *Announcer) Enabled() bool { return a != nil && a.enabled }

// Subscribe registers a listener. The channel holds at most one pending
// utterance: a newer one replaces an undelivered older one.
func (a *Announcer) Subscribe() (<-chan Utterance, func()) {
	ch := make(chan Utterance, 1)
	a.mu.Lock()
	a.subs[ch] = struct{}{}
	a.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.subs, ch)
			a.mu.Unlock()
		})
	}
}

// replace delivers u, dropping a pending utterance first. Callers hold a.mu,
// so nothing else sends on ch concurrently.
func replace(ch chan Utterance, u Utterance) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- u:
	default:
	}
}

func parseLocale(s string, def language.Tag) language.Tag {
	if s == "" {
		return def
	}
	tag, err := language.Parse(s)
	if err != nil {
		log.Warn().Err(err).Str("locale", s).Msg("invalid speech locale")
		return def
	}
	return tag
}
