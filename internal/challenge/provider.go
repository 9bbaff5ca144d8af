// internal/challenge/provider.go
//
// Provider turns a generative backend into challenges that never fail.
// Responsibilities:
//   - Ask the Generator for a structured word or addition problem.
//   - Validate and normalize the payload (lowercase word, addend bounds).
//   - Generate the illustration; substitute a placeholder URL on failure.
//   - Build the math options.
//   - Absorb every ErrProviderUnavailable into the fixed fallback payload.

package challenge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
)

const (
	maxWordLen = 5

	defaultPlaceholder = "https://picsum.photos/512/512"
	defaultAlphabet    = "abcdefghijklmnopqrstuvwxyz"
	defaultTimeout     = 30 * time.Second
)

const wordPrompt = "Genera una parola italiana semplice (massimo 5 lettere) per un bambino di 5 anni " +
	"e una descrizione per un'immagine in stile cartone animato che la rappresenti. " +
	"L'immagine deve essere semplice, colorata e su sfondo bianco."

const mathPrompt = "Crea un semplice problema di addizione per un bambino di 4 anni usando numeri tra 1 e 5. " +
	"Fornisci i due numeri, la risposta e una descrizione per un'immagine che rappresenti il problema " +
	"in stile cartone animato (es. '2 mele + 3 mele')."

var wordSchema = Schema{Fields: []Field{
	{Name: "word", Type: FieldString, Description: "La parola italiana, in minuscolo."},
	{Name: "imagePrompt", Type: FieldString, Description: "Una descrizione per l'immagine da generare, in inglese."},
}}

var mathSchema = Schema{Fields: []Field{
	{Name: "num1", Type: FieldInteger},
	{Name: "num2", Type: FieldInteger},
	{Name: "answer", Type: FieldInteger},
	{Name: "imagePrompt", Type: FieldString, Description: "Una descrizione per l'immagine, in inglese " +
		"(es. 'Cartoon drawing of 2 red apples next to 3 green apples on a white background')."},
}}

// Provider produces word and math challenges. Safe for concurrent use.
type Provider struct {
	gen         Generator
	alphabet    string
	placeholder string
	timeout     time.Duration

	mu  sync.Mutex // guards rng
	rng Rand
}

// Option configures a Provider.
type Option func(*Provider)

// WithAlphabet sets the letters a generated word may use.
func WithAlphabet(abc string) Option {
	return func(p *Provider) {
		if abc != "" {
			p.alphabet = strings.ToLower(abc)
		}
	}
}

// WithPlaceholder sets the base URL of the placeholder image service.
func WithPlaceholder(base string) Option {
	return func(p *Provider) {
		if base != "" {
			p.placeholder = base
		}
	}
}

// WithTimeout bounds a whole challenge fetch (text + image).
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithRand replaces the random source (tests use a seeded one).
func WithRand(r Rand) Option {
	return func(p *Provider) {
		if r != nil {
			p.rng = r
		}
	}
}

// NewProvider wraps gen. A nil gen behaves as a permanently unavailable backend.
func NewProvider(gen Generator, opts ...Option) *Provider {
	if gen == nil {
		gen = Unavailable{}
	}
	p := &Provider{
		gen:         gen,
		alphabet:    defaultAlphabet,
		placeholder: defaultPlaceholder,
		timeout:     defaultTimeout,
		rng:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Alphabet returns the letters words are drawn from.
func (p *Provider) Alphabet() string { return p.alphabet }

// Word returns a fresh word challenge, or the fallback on any failure.
func (p *Provider) Word(ctx context.Context) Word {
	w, err := p.word(ctx)
	if err != nil {
		logFailure(err, KindWord)
		return FallbackWord(p.PlaceholderURL())
	}
	return w
}

// Math returns a fresh addition challenge, or the fallback on any failure.
func (p *Provider) Math(ctx context.Context) Math {
	m, err := p.math(ctx)
	if err != nil {
		logFailure(err, KindMath)
		return FallbackMath(p.PlaceholderURL())
	}
	return m
}

// logFailure reports a fallback. A cancelled caller is not an outage.
func logFailure(err error, kind Kind) {
	ev := log.Error()
	if errors.Is(err, context.Canceled) {
		ev = log.Debug()
	}
	ev.Err(err).Str("kind", string(kind)).Msg("challenge fell back")
}

// LetterPool builds the tile pool for w using the provider's alphabet and rng.
func (p *Provider) LetterPool(w Word) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return LetterPool(w.Word, p.alphabet, p.rng)
}

// PlaceholderURL returns a randomized placeholder image locator.
func (p *Provider) PlaceholderURL() string {
	p.mu.Lock()
	n := p.rng.IntN(1 << 30)
	p.mu.Unlock()
	sep := "?"
	if strings.Contains(p.placeholder, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%srandom=%d", p.placeholder, sep, n)
}

func (p *Provider) word(ctx context.Context) (Word, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var out struct {
		Word        string `json:"word"`
		ImagePrompt string `json:"imagePrompt"`
	}
	if err := p.generate(ctx, wordPrompt, wordSchema, &out); err != nil {
		return Word{}, err
	}
	word := strings.ToLower(strings.TrimSpace(out.Word))
	if n := utf8.RuneCountInString(word); n == 0 || n > maxWordLen || !inAlphabet(word, p.alphabet) {
		return Word{}, fmt.Errorf("%w: unusable word %q", ErrProviderUnavailable, out.Word)
	}
	return Word{Word: word, ImageURL: p.image(ctx, out.ImagePrompt)}, nil
}

func (p *Provider) math(ctx context.Context) (Math, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var out struct {
		Num1        int    `json:"num1"`
		Num2        int    `json:"num2"`
		Answer      int    `json:"answer"`
		ImagePrompt string `json:"imagePrompt"`
	}
	if err := p.generate(ctx, mathPrompt, mathSchema, &out); err != nil {
		return Math{}, err
	}
	m := Math{Num1: out.Num1, Num2: out.Num2, Answer: out.Answer}
	if !m.Valid() {
		return Math{}, fmt.Errorf("%w: unusable problem %d+%d=%d", ErrProviderUnavailable, out.Num1, out.Num2, out.Answer)
	}
	m.ImageURL = p.image(ctx, out.ImagePrompt)

	p.mu.Lock()
	m.Options = MathOptions(m.Answer, p.rng)
	p.mu.Unlock()
	return m, nil
}

// generate runs a structured request and decodes it into out.
func (p *Provider) generate(ctx context.Context, prompt string, schema Schema, out any) error {
	raw, err := p.gen.GenerateJSON(ctx, prompt, schema)
	if err != nil {
		return fmt.Errorf("%w: generate: %w", ErrProviderUnavailable, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode: %w", ErrProviderUnavailable, err)
	}
	return nil
}

// image renders prompt into a data URL; any failure yields a placeholder.
func (p *Provider) image(ctx context.Context, prompt string) string {
	if strings.TrimSpace(prompt) == "" {
		return p.PlaceholderURL()
	}
	img, err := p.gen.GenerateImage(ctx, prompt)
	if err == nil && len(img.Bytes) == 0 {
		err = fmt.Errorf("%w: empty image", ErrProviderUnavailable)
	}
	if err != nil {
		log.Error().Err(err).Msg("generate image")
		return p.PlaceholderURL()
	}
	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Bytes)
}
