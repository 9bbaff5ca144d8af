// internal/challenge/types.go
//
// Challenge payloads handed to the game sessions.
// Defines:
//   - Kind: which mini-game a challenge belongs to.
//   - Word: a word to spell plus its illustration.
//   - Math: an addition problem, its answer, four options and an illustration.
//   - ErrProviderUnavailable: the only failure kind of the provider.

package challenge

import (
	"errors"
	"slices"
)

// Kind identifies the mini-game a challenge is generated for.
type Kind string

const (
	KindWord Kind = "word"
	KindMath Kind = "math"
)

// ErrProviderUnavailable covers network, parse and generation failures of the
// generative backend. It never escapes Provider; callers only see fallbacks.
var ErrProviderUnavailable = errors.New("challenge provider unavailable")

// Word is a spelling challenge. Word is lowercase and non-empty.
type Word struct {
	Word     string `json:"word"`
	ImageURL string `json:"imageUrl"`
}

// Letters splits the word into its characters, in order.
func (w Word) Letters() []string {
	out := make([]string, 0, len(w.Word))
	for _, r := range w.Word {
		out = append(out, string(r))
	}
	return out
}

// Math is an addition challenge.
// Invariants: Num1, Num2 ∈ [1,5]; Answer = Num1+Num2; Options holds exactly
// four distinct non-negative values, one of them Answer.
type Math struct {
	Num1     int    `json:"num1"`
	Num2     int    `json:"num2"`
	Answer   int    `json:"answer"`
	ImageURL string `json:"imageUrl"`
	Options  []int  `json:"options"`
}

const (
	minAddend   = 1
	maxAddend   = 5
	optionCount = 4
)

// Valid reports whether the problem part (addends and answer) is well formed.
func (m Math) Valid() bool {
	return m.Num1 >= minAddend && m.Num1 <= maxAddend &&
		m.Num2 >= minAddend && m.Num2 <= maxAddend &&
		m.Answer == m.Num1+m.Num2
}

// ValidOptions reports whether Options satisfies the option invariant.
func (m Math) ValidOptions() bool {
	if len(m.Options) != optionCount || !slices.Contains(m.Options, m.Answer) {
		return false
	}
	seen := make(map[int]struct{}, optionCount)
	for _, o := range m.Options {
		if o < 0 {
			return false
		}
		if _, dup := seen[o]; dup {
			return false
		}
		seen[o] = struct{}{}
	}
	return true
}

// fallbackWord is served whenever the word challenge cannot be generated.
const fallbackWord = "errore"

// FallbackWord returns the fixed word challenge with the given image.
func FallbackWord(imageURL string) Word {
	return Word{Word: fallbackWord, ImageURL: imageURL}
}

// FallbackMath returns the fixed math challenge with the given image.
func FallbackMath(imageURL string) Math {
	return Math{Num1: 2, Num2: 1, Answer: 3, ImageURL: imageURL, Options: []int{3, 1, 4, 2}}
}
